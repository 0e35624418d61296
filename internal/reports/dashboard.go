package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"invoicing/internal/documents"
	"invoicing/internal/period"
	"invoicing/internal/store"
	"invoicing/internal/vat"
	"invoicing/pkg/models"
)

// RecentLimit is the number of recent invoices and purchases on the dashboard.
const RecentLimit = 5

// Figures are the sums compared between the current and the previous window.
type Figures struct {
	Sales       decimal.Decimal `json:"sales"`
	Purchases   decimal.Decimal `json:"purchases"`
	Expenses    decimal.Decimal `json:"expenses"`
	NetProfit   decimal.Decimal `json:"net_profit"`
	Receivables decimal.Decimal `json:"receivables"`
	Payables    decimal.Decimal `json:"payables"`
}

type Trends struct {
	Sales       period.Trend `json:"sales"`
	Purchases   period.Trend `json:"purchases"`
	Expenses    period.Trend `json:"expenses"`
	NetProfit   period.Trend `json:"net_profit"`
	Receivables period.Trend `json:"receivables"`
	Payables    period.Trend `json:"payables"`
}

// WindowVAT is VAT recognized from the payments dated inside the current window.
type WindowVAT struct {
	Received decimal.Decimal `json:"received"`
	Paid     decimal.Decimal `json:"paid"`
	Balance  decimal.Decimal `json:"balance"`
}

type Dashboard struct {
	Period   period.Granularity `json:"period"`
	Label    string             `json:"label"`
	Window   period.Window      `json:"window"`
	Previous period.Window      `json:"previous_window"`

	Current       Figures `json:"current"`
	PreviousTotal Figures `json:"previous"`
	Trends        Trends  `json:"trends"`

	PaymentsIn  decimal.Decimal `json:"payments_in"`
	PaymentsOut decimal.Decimal `json:"payments_out"`
	VAT         WindowVAT       `json:"vat"`

	Series          []period.MonthPoint      `json:"series"`
	StockAlerts     []period.StockAlert      `json:"stock_alerts"`
	RecentInvoices  []models.DocumentSummary `json:"recent_invoices"`
	RecentPurchases []models.DocumentSummary `json:"recent_purchases"`
}

func windowFigures(snap *store.Snapshot, w period.Window) Figures {
	f := Figures{
		Sales:     period.Sum(documentAmounts(snap.Invoices), w),
		Purchases: period.Sum(documentAmounts(snap.Purchases), w),
		Expenses:  period.Sum(expenseAmounts(snap.Expenses), w),
	}
	f.NetProfit = f.Sales.Sub(f.Purchases).Sub(f.Expenses)
	return f
}

// BuildDashboard computes the dashboard for granularity g anchored at today.
//
// Current receivables and payables are full-history balances as of now. The previous ones are
// balances as they stood at the end of the previous window.
func BuildDashboard(snap *store.Snapshot, g period.Granularity, today time.Time) *Dashboard {
	cur := period.Current(g, today)
	prev := period.Previous(g, today)

	d := &Dashboard{
		Period:   g,
		Label:    period.Label(g, today),
		Window:   cur,
		Previous: prev,
	}

	allInvoices := settledBy(snap.Transactions, models.KindInvoice, "")
	allPurchases := settledBy(snap.Transactions, models.KindPurchase, "")

	d.Current = windowFigures(snap, cur)
	d.Current.Receivables = outstanding(snap.Invoices, allInvoices, "")
	d.Current.Payables = outstanding(snap.Purchases, allPurchases, "")

	d.PreviousTotal = windowFigures(snap, prev)
	d.PreviousTotal.Receivables = outstanding(snap.Invoices, settledBy(snap.Transactions, models.KindInvoice, prev.End), prev.End)
	d.PreviousTotal.Payables = outstanding(snap.Purchases, settledBy(snap.Transactions, models.KindPurchase, prev.End), prev.End)

	c, p := d.Current, d.PreviousTotal
	d.Trends = Trends{
		Sales:       period.CompareTrend(c.Sales, p.Sales, true),
		Purchases:   period.CompareTrend(c.Purchases, p.Purchases, false),
		Expenses:    period.CompareTrend(c.Expenses, p.Expenses, false),
		NetProfit:   period.CompareTrend(c.NetProfit, p.NetProfit, true),
		Receivables: period.CompareTrend(c.Receivables, p.Receivables, false),
		Payables:    period.CompareTrend(c.Payables, p.Payables, false),
	}

	d.PaymentsIn, d.PaymentsOut = payments(snap.Transactions, cur)
	d.VAT = windowVAT(snap, cur)

	d.Series = period.BuildSeries(today,
		documentAmounts(snap.Invoices), documentAmounts(snap.Purchases), expenseAmounts(snap.Expenses))
	d.StockAlerts = period.StockAlerts(snap.Purchased, snap.Sold)
	d.RecentInvoices = recent(snap.Invoices, allInvoices)
	d.RecentPurchases = recent(snap.Purchases, allPurchases)
	return d
}

// payments sums receipts in and purchase or expense payments out inside w.
func payments(txs []models.Transaction, w period.Window) (in, out decimal.Decimal) {
	in, out = decimal.Zero, decimal.Zero
	for _, t := range txs {
		if !w.Contains(t.Date) {
			continue
		}
		switch t.Kind {
		case models.InvoiceReceipt:
			in = in.Add(t.Amount)
		case models.PurchasePayment, models.ExpensePayment:
			out = out.Add(t.Amount)
		}
	}
	return in, out
}

// windowVAT attributes vat/total of the settled document to each settling payment in w.
// Payments whose document no longer exists are skipped.
func windowVAT(snap *store.Snapshot, w period.Window) WindowVAT {
	index := func(docs []models.Document) map[int64]models.Document {
		m := make(map[int64]models.Document, len(docs))
		for _, doc := range docs {
			m[doc.ID] = doc
		}
		return m
	}
	byKind := map[models.DocumentKind]map[int64]models.Document{
		models.KindInvoice:  index(snap.Invoices),
		models.KindPurchase: index(snap.Purchases),
	}

	v := WindowVAT{Received: decimal.Zero, Paid: decimal.Zero}
	for _, t := range snap.Transactions {
		if t.Reference == nil || !w.Contains(t.Date) || t.Kind != t.Reference.Kind.SettlingKind() {
			continue
		}
		doc, ok := byKind[t.Reference.Kind][t.Reference.ID]
		if !ok || !doc.Total.IsPositive() {
			continue
		}
		share := doc.VATTotal.Mul(t.Amount).Div(doc.Total)
		switch doc.Kind {
		case models.KindInvoice:
			v.Received = v.Received.Add(share)
		case models.KindPurchase:
			v.Paid = v.Paid.Add(share)
		}
	}
	v.Balance = v.Received.Sub(v.Paid)
	return v
}

// recent returns the newest documents by id. docs is already ordered newest first.
func recent(docs []models.Document, settled map[int64]decimal.Decimal) []models.DocumentSummary {
	if len(docs) > RecentLimit {
		docs = docs[:RecentLimit]
	}
	return documents.Summarize(docs, settled)
}

// recognized builds the cash-basis VAT report over full history.
func recognized(snap *store.Snapshot) vat.Report {
	return vat.Build(snap.Invoices, snap.Purchases, map[models.DocumentKind]map[int64]decimal.Decimal{
		models.KindInvoice:  settledBy(snap.Transactions, models.KindInvoice, ""),
		models.KindPurchase: settledBy(snap.Transactions, models.KindPurchase, ""),
	})
}
