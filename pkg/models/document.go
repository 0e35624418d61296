package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentKind identifies which book a document or a transaction reference belongs to.
type DocumentKind string

const (
	KindInvoice  DocumentKind = "invoice"  // sales invoice issued to a customer
	KindPurchase DocumentKind = "purchase" // purchase invoice received from a vendor
	KindExpense  DocumentKind = "expense"  // single-amount expense
)

// SettlingKind returns the transaction kind that reduces the outstanding balance of this kind.
func (k DocumentKind) SettlingKind() TransactionKind {
	switch k {
	case KindInvoice:
		return InvoiceReceipt
	case KindPurchase:
		return PurchasePayment
	case KindExpense:
		return ExpensePayment
	default:
		return ""
	}
}

// NumberPrefix returns the prefix used for generated document numbers.
func (k DocumentKind) NumberPrefix() string {
	switch k {
	case KindInvoice:
		return "INV"
	case KindPurchase:
		return "PUR"
	case KindExpense:
		return "EXP"
	default:
		return "DOC"
	}
}

// HasLines reports whether documents of this kind carry line items.
func (k DocumentKind) HasLines() bool {
	return k == KindInvoice || k == KindPurchase
}

// ParseDocumentKind accepts singular or plural kind names ("invoices", "purchase").
func ParseDocumentKind(s string) (DocumentKind, bool) {
	switch s {
	case "invoice", "invoices":
		return KindInvoice, true
	case "purchase", "purchases":
		return KindPurchase, true
	case "expense", "expenses":
		return KindExpense, true
	default:
		return "", false
	}
}

// Party is the counterparty of a document: the customer of an invoice or the vendor of a purchase.
type Party struct {
	ID               *int64 `json:"id,omitempty"` // customer or vendor id, not enforced
	Name             string `json:"name"`
	TaxNumber        string `json:"tax_number,omitempty"`
	RegistrationName string `json:"registration_name,omitempty"`
	Phone            string `json:"phone,omitempty"`
	Address          string `json:"address,omitempty"`
	Address2         string `json:"address_2,omitempty"`
	Website          string `json:"website,omitempty"`
	Country          string `json:"country,omitempty"`
}

type Document struct {
	ID           int64        `json:"id"`
	Kind         DocumentKind `json:"kind"`
	Number       string       `json:"number"`
	Date         string       `json:"date"` // ISO YYYY-MM-DD
	Party        Party        `json:"party"`
	CurrencyCode string       `json:"currency_code"`
	Lines        []LineItem   `json:"lines"`

	// Derived from Lines on every write.
	Subtotal decimal.Decimal `json:"subtotal"`
	VATTotal decimal.Decimal `json:"vat_total"`
	Total    decimal.Decimal `json:"total"`

	CreatedAt time.Time `json:"created_at,omitempty"`
}

type LineItem struct {
	ID         int64           `json:"id,omitempty"`
	ItemID     *int64          `json:"item_id,omitempty"`
	Name       string          `json:"name"`
	Quantity   decimal.Decimal `json:"quantity"`
	Unit       string          `json:"unit"`
	Price      decimal.Decimal `json:"price"`
	VATPercent decimal.Decimal `json:"vat_percent"` // rate applied to quantity × price
	LineTotal  decimal.Decimal `json:"line_total"`
}

// DocumentSummary is a list row with its settlement state.
type DocumentSummary struct {
	ID          int64           `json:"id"`
	Kind        DocumentKind    `json:"kind"`
	Number      string          `json:"number"`
	Date        string          `json:"date"`
	PartyName   string          `json:"party_name"`
	Total       decimal.Decimal `json:"total"`
	Paid        decimal.Decimal `json:"paid"`
	Outstanding decimal.Decimal `json:"outstanding"` // never negative
}

type Expense struct {
	ID         int64           `json:"id"`
	Number     string          `json:"number"`
	Date       string          `json:"date"`
	Title      string          `json:"title"`
	Category   string          `json:"category,omitempty"`
	MethodID   int64           `json:"payment_method_id"`
	MethodName string          `json:"payment_method_name,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Notes      string          `json:"notes,omitempty"`
}

// ItemMovement is one purchased or sold line with the date of its document.
type ItemMovement struct {
	ItemID   *int64
	Name     string
	Unit     string
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Date     string
}
