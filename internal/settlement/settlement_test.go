package settlement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicing/internal/money"
	"invoicing/internal/store"
	"invoicing/pkg/models"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDecide(t *testing.T) {
	tests := []struct {
		name                      string
		total, settled, requested string
		want                      string
		err                       error
	}{
		{"partial payment", "100", "0", "40", "40", nil},
		{"zero pays in full", "100", "30", "0", "70", nil},
		{"negative pays in full", "100", "30", "-5", "70", nil},
		{"clamped to outstanding", "100", "30", "500", "70", nil},
		{"exact outstanding", "100", "30", "70", "70", nil},
		{"fully settled", "100", "100", "10", "0", ErrFullySettled},
		{"overpaid", "100", "120", "0", "0", ErrFullySettled},
		{"zero total", "0", "0", "10", "0", ErrFullySettled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decide(d(tt.total), d(tt.settled), d(tt.requested))
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(d(tt.want)), "got %s", got)
		})
	}
}

func TestDefaultNotes(t *testing.T) {
	assert.Equal(t, "Invoice payment received for INV-1", DefaultNotes(models.KindInvoice, "INV-1"))
	assert.Equal(t, "Purchase payment for PUR-1", DefaultNotes(models.KindPurchase, "PUR-1"))
}

type fixture struct {
	svc    *Service
	store  *store.Store
	method int64
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(ctx, store.Config{Driver: store.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(ctx))

	method, err := s.InsertMethod(ctx, &models.PaymentMethod{Name: "Bank", MethodType: "bank"})
	require.NoError(t, err)

	svc := NewService(s)
	svc.now = func() time.Time { return time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC) }
	return fixture{svc: svc, store: s, method: method}
}

func (f fixture) document(t *testing.T, kind models.DocumentKind, total string) int64 {
	t.Helper()
	ctx := context.Background()
	doc := &models.Document{Kind: kind, Number: kind.NumberPrefix() + "-T" + total, Date: "2024-06-01", Total: d(total), Subtotal: d(total)}
	id, err := f.store.InsertDocument(ctx, doc)
	require.NoError(t, err)
	return id
}

func (f fixture) ledgerCount(t *testing.T) int {
	t.Helper()
	txs, err := f.store.ListTransactions(context.Background())
	require.NoError(t, err)
	return len(txs)
}

func TestAcceptPaymentSequence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.document(t, models.KindInvoice, "100")

	r, err := f.svc.AcceptPayment(ctx, Request{Kind: models.KindInvoice, DocumentID: id, MethodID: f.method, Amount: "30"})
	require.NoError(t, err)
	assert.True(t, r.Amount.Equal(d("30")))
	assert.True(t, r.Outstanding.Equal(d("70")))

	r, err = f.svc.AcceptPayment(ctx, Request{Kind: models.KindInvoice, DocumentID: id, MethodID: f.method, Amount: "1000"})
	require.NoError(t, err)
	assert.True(t, r.Amount.Equal(d("70")), "clamped, got %s", r.Amount)
	assert.True(t, r.Outstanding.IsZero())

	_, err = f.svc.AcceptPayment(ctx, Request{Kind: models.KindInvoice, DocumentID: id, MethodID: f.method})
	assert.ErrorIs(t, err, ErrFullySettled)
	assert.Equal(t, 2, f.ledgerCount(t))

	b, err := f.svc.Balance(ctx, models.KindInvoice, id)
	require.NoError(t, err)
	assert.True(t, b.Settled.Equal(d("100")))
	assert.True(t, b.Outstanding.IsZero())

	txs, err := f.store.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-30", txs[0].Date)
	assert.Equal(t, models.InvoiceReceipt, txs[0].Kind)
	assert.Equal(t, "TRY", txs[0].CurrencyCode)
	assert.Equal(t, "Invoice payment received for INV-T100", txs[0].Notes)
}

func TestAcceptPaymentZeroPaysInFull(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.document(t, models.KindPurchase, "250.75")

	r, err := f.svc.AcceptPayment(ctx, Request{
		Kind: models.KindPurchase, DocumentID: id, MethodID: f.method, Amount: "", Date: "2024-01-02", Notes: "wire",
	})
	require.NoError(t, err)
	assert.True(t, r.Amount.Equal(d("250.75")))

	txs, err := f.store.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, models.PurchasePayment, txs[0].Kind)
	assert.Equal(t, "2024-01-02", txs[0].Date)
	assert.Equal(t, "wire", txs[0].Notes)
}

func TestAcceptPaymentRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.document(t, models.KindInvoice, "10")

	tests := []struct {
		name string
		req  Request
		err  error
	}{
		{"unknown document", Request{Kind: models.KindInvoice, DocumentID: id + 1, MethodID: f.method}, models.ErrDocumentNotFound},
		{"unknown method", Request{Kind: models.KindInvoice, DocumentID: id, MethodID: f.method + 1}, models.ErrMethodNotFound},
		{"expense kind", Request{Kind: models.KindExpense, DocumentID: id, MethodID: f.method}, models.ErrUnsupportedKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.AcceptPayment(ctx, tt.req)
			assert.True(t, errors.Is(err, tt.err), "got %v", err)
		})
	}
	assert.Equal(t, 0, f.ledgerCount(t))
}

func TestConcurrentPaymentsNeverOverpay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.document(t, models.KindInvoice, "100")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.svc.AcceptPayment(ctx, Request{Kind: models.KindInvoice, DocumentID: id, MethodID: f.method, Amount: money.Input("30")})
		}()
	}
	wg.Wait()

	b, err := f.svc.Balance(ctx, models.KindInvoice, id)
	require.NoError(t, err)
	assert.True(t, b.Settled.Equal(d("100")), "settled %s", b.Settled)
	assert.False(t, b.Outstanding.IsNegative())
}
