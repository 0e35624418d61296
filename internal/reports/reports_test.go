package reports

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicing/internal/period"
	"invoicing/internal/store"
	"invoicing/pkg/models"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ref(kind models.DocumentKind, id int64) *models.Reference {
	return &models.Reference{Kind: kind, ID: id}
}

// snapshot anchored at 2024-05-15: one invoice last month, one this month, one purchase.
func fixtureSnapshot() *store.Snapshot {
	return &store.Snapshot{
		Invoices: []models.Document{
			{ID: 2, Kind: models.KindInvoice, Number: "INV-2", Date: "2024-05-10", Party: models.Party{Name: "Acme"}, Total: d("1180"), VATTotal: d("180")},
			{ID: 1, Kind: models.KindInvoice, Number: "INV-1", Date: "2024-04-20", Total: d("100"), VATTotal: d("0")},
		},
		Purchases: []models.Document{
			{ID: 1, Kind: models.KindPurchase, Number: "PUR-1", Date: "2024-04-05", Total: d("236"), VATTotal: d("36")},
		},
		Expenses: []models.Expense{
			{ID: 1, Date: "2024-05-02", Title: "Rent", Amount: d("50")},
			{ID: 2, Date: "2024-04-02", Title: "Rent", Amount: d("50")},
		},
		Transactions: []models.Transaction{
			{ID: 6, Date: "2024-05-12", Kind: models.InvoiceReceipt, Reference: ref(models.KindInvoice, 2), Amount: d("590")},
			{ID: 5, Date: "2024-05-03", Kind: models.InvoiceReceipt, Reference: ref(models.KindInvoice, 1), Amount: d("60")},
			{ID: 4, Date: "2024-05-02", Kind: models.ExpensePayment, Reference: ref(models.KindExpense, 1), Amount: d("50")},
			{ID: 3, Date: "2024-04-25", Kind: models.InvoiceReceipt, Reference: ref(models.KindInvoice, 1), Amount: d("40")},
			{ID: 2, Date: "2024-04-06", Kind: models.PurchasePayment, Reference: ref(models.KindPurchase, 1), Amount: d("118")},
			{ID: 1, Date: "2024-04-02", Kind: models.ExpensePayment, Reference: ref(models.KindExpense, 2), Amount: d("50")},
		},
		Purchased: []models.ItemMovement{{Name: "Widget", Quantity: d("3"), Price: d("10"), Date: "2024-04-05"}},
		Sold:      []models.ItemMovement{{Name: "widget", Quantity: d("1"), Date: "2024-05-10"}},
	}
}

var today = time.Date(2024, 5, 15, 9, 0, 0, 0, time.UTC)

func TestBuildDashboardMonth(t *testing.T) {
	dash := BuildDashboard(fixtureSnapshot(), period.Month, today)

	assert.Equal(t, "This Month (May 2024)", dash.Label)
	assert.Equal(t, period.Window{Start: "2024-05-01", End: "2024-05-15"}, dash.Window)
	assert.Equal(t, period.Window{Start: "2024-04-01", End: "2024-04-30"}, dash.Previous)

	c := dash.Current
	assert.True(t, c.Sales.Equal(d("1180")))
	assert.True(t, c.Purchases.IsZero())
	assert.True(t, c.Expenses.Equal(d("50")))
	assert.True(t, c.NetProfit.Equal(d("1130")))
	// 1280 invoiced − 690 received; 236 − 118 paid
	assert.True(t, c.Receivables.Equal(d("590")), c.Receivables.String())
	assert.True(t, c.Payables.Equal(d("118")))

	p := dash.PreviousTotal
	assert.True(t, p.Sales.Equal(d("100")))
	assert.True(t, p.Purchases.Equal(d("236")))
	assert.True(t, p.NetProfit.Equal(d("-186")))
	// as of 2024-04-30: INV-1 only, 40 received
	assert.True(t, p.Receivables.Equal(d("60")), p.Receivables.String())
	assert.True(t, p.Payables.Equal(d("118")))

	assert.Equal(t, "+1080.0% vs prev", dash.Trends.Sales.Label)
	assert.Equal(t, period.Favorable, dash.Trends.Sales.Style)
	assert.Equal(t, period.Favorable, dash.Trends.Purchases.Style)
	assert.Equal(t, "No change", dash.Trends.Expenses.Label)
	assert.Equal(t, "No change", dash.Trends.Payables.Label)
	assert.Equal(t, period.Unfavorable, dash.Trends.Receivables.Style)

	assert.True(t, dash.PaymentsIn.Equal(d("650")))
	assert.True(t, dash.PaymentsOut.Equal(d("50")))
	assert.True(t, dash.VAT.Received.Equal(d("90")), dash.VAT.Received.String())
	assert.True(t, dash.VAT.Paid.IsZero())

	require.Len(t, dash.Series, 12)
	assert.True(t, dash.Series[11].Net.Equal(d("1130")))
	require.Len(t, dash.StockAlerts, 1)
	assert.True(t, dash.StockAlerts[0].Available.Equal(d("2")))

	require.Len(t, dash.RecentInvoices, 2)
	assert.Equal(t, "INV-2", dash.RecentInvoices[0].Number)
	assert.True(t, dash.RecentInvoices[0].Outstanding.Equal(d("590")))
	assert.True(t, dash.RecentInvoices[1].Outstanding.IsZero())
}

func TestOutstandingIsNotFlooredPerDocument(t *testing.T) {
	docs := []models.Document{{ID: 1, Total: d("100")}, {ID: 2, Total: d("50")}}
	settled := map[int64]decimal.Decimal{1: d("130"), 3: d("999")}
	assert.True(t, outstanding(docs, settled, "").Equal(d("20")))
}

func TestBuildReport(t *testing.T) {
	r := BuildReport(fixtureSnapshot())

	assert.True(t, r.Sold.Equal(d("1280")))
	assert.True(t, r.Bought.Equal(d("236")))
	assert.True(t, r.Expenses.Equal(d("100")))
	assert.True(t, r.Benefit.Equal(d("944")))
	assert.True(t, r.Loss.IsZero())
	assert.True(t, r.ShouldReceive.Equal(d("590")))
	assert.True(t, r.IOwe.Equal(d("118")))
	assert.True(t, r.Debt.Equal(r.IOwe))

	require.Len(t, r.VAT.Entries, 2)
	assert.True(t, r.VAT.ReceivedVAT.Equal(d("90")))
	assert.True(t, r.VAT.PaidVAT.Equal(d("18")))
	assert.True(t, r.VAT.Balance.Equal(d("72")))

	require.Len(t, r.Monthly, 2)
	assert.Equal(t, "2024-04", r.Monthly[0].Period)
	assert.True(t, r.Monthly[0].Turnover.Equal(d("-186")))
	require.Len(t, r.Yearly, 1)
	assert.True(t, r.Yearly[0].Turnover.Equal(d("944")))
}

func TestBuildReportLoss(t *testing.T) {
	r := BuildReport(&store.Snapshot{Expenses: []models.Expense{{Date: "2024-01-01", Amount: d("10")}}})
	assert.True(t, r.Benefit.IsZero())
	assert.True(t, r.Loss.Equal(d("10")))
}

func TestRenderPDF(t *testing.T) {
	r := BuildReport(fixtureSnapshot())
	r.GeneratedAt = today

	out, err := RenderPDF(r, "")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestServiceAgainstStore(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(ctx, store.Config{Driver: store.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(ctx))

	id, err := s.InsertDocument(ctx, &models.Document{Kind: models.KindInvoice, Number: "INV-X", Date: "2024-05-01", Total: d("200"), VATTotal: d("20"), Subtotal: d("180")})
	require.NoError(t, err)
	_, err = s.InsertTransaction(ctx, &models.Transaction{Date: "2024-05-02", Kind: models.InvoiceReceipt, Reference: ref(models.KindInvoice, id), Amount: d("100"), CurrencyCode: "USD"})
	require.NoError(t, err)

	svc := NewService(s)
	svc.now = func() time.Time { return today }

	dash, err := svc.Dashboard(ctx, "quarter")
	require.NoError(t, err)
	assert.Equal(t, "This Quarter (Q2 2024)", dash.Label)
	assert.True(t, dash.Current.Receivables.Equal(d("100")))

	rep, err := svc.Report(ctx)
	require.NoError(t, err)
	assert.True(t, rep.VAT.ReceivedVAT.Equal(d("10")))
	assert.Equal(t, today, rep.GeneratedAt)

	assets, err := svc.Assets(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, assets.Items)
}
