package models

import "github.com/shopspring/decimal"

// TransactionKind types a ledger entry. Manual entries may use any non-empty kind.
type TransactionKind string

const (
	InvoiceReceipt  TransactionKind = "invoice_receipt"
	PurchasePayment TransactionKind = "purchase_payment"
	ExpensePayment  TransactionKind = "expense_payment"
)

// Reference is a soft link from a transaction to a document. It is not a foreign key and may dangle.
type Reference struct {
	Kind DocumentKind `json:"kind"`
	ID   int64        `json:"id"`
}

type Transaction struct {
	ID           int64           `json:"id"`
	Date         string          `json:"date"`
	Kind         TransactionKind `json:"kind"`
	Reference    *Reference      `json:"reference,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currency_code"`
	MethodID     *int64          `json:"method_id,omitempty"`
	MethodName   string          `json:"method_name,omitempty"`
	Notes        string          `json:"notes,omitempty"`
}

// Settles reports whether t counts toward the outstanding balance of the given document.
func (t Transaction) Settles(kind DocumentKind, id int64) bool {
	return t.Reference != nil &&
		t.Reference.Kind == kind &&
		t.Reference.ID == id &&
		t.Kind == kind.SettlingKind()
}

type PaymentMethod struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	MethodType        string `json:"method_type"`
	AccountIdentifier string `json:"account_identifier,omitempty"`
	Details           string `json:"details,omitempty"`
}

type Currency struct {
	ID       int64  `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol,omitempty"`
	IsCrypto bool   `json:"is_crypto"`
}
