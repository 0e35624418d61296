package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"invoicing/internal/period"
	"invoicing/internal/store"
	"invoicing/internal/vat"
	"invoicing/pkg/models"
)

// Report is the lifetime view: totals, balances, recognized VAT and turnover series.
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`

	Sold     decimal.Decimal `json:"sold_total"`
	Bought   decimal.Decimal `json:"bought_total"`
	Expenses decimal.Decimal `json:"expenses_total"`
	Benefit  decimal.Decimal `json:"benefit"`
	Loss     decimal.Decimal `json:"loss"`

	ShouldReceive decimal.Decimal `json:"should_receive"`
	IOwe          decimal.Decimal `json:"i_owe"`
	Debt          decimal.Decimal `json:"debt"`

	VAT vat.Report `json:"vat"`

	Monthly []period.Turnover `json:"monthly"`
	Yearly  []period.Turnover `json:"yearly"`
}

// BuildReport computes the lifetime report from a snapshot.
func BuildReport(snap *store.Snapshot) *Report {
	sold := documentAmounts(snap.Invoices)
	bought := documentAmounts(snap.Purchases)
	spent := expenseAmounts(snap.Expenses)

	r := &Report{
		Sold:     period.Total(sold),
		Bought:   period.Total(bought),
		Expenses: period.Total(spent),
		Benefit:  decimal.Zero,
		Loss:     decimal.Zero,
	}

	net := r.Sold.Sub(r.Bought).Sub(r.Expenses)
	switch {
	case net.IsPositive():
		r.Benefit = net
	case net.IsNegative():
		r.Loss = net.Neg()
	}

	r.ShouldReceive = outstanding(snap.Invoices, settledBy(snap.Transactions, models.KindInvoice, ""), "")
	r.IOwe = outstanding(snap.Purchases, settledBy(snap.Transactions, models.KindPurchase, ""), "")
	r.Debt = r.IOwe

	r.VAT = recognized(snap)
	r.Monthly = period.Monthly(sold, bought, spent)
	r.Yearly = period.Yearly(sold, bought, spent)
	return r
}
