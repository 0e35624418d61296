package store

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicing/pkg/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, Config{Driver: DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(ctx))
	return s
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRebind(t *testing.T) {
	pg := conn{postgres: true}
	assert.Equal(t, "SELECT a FROM b WHERE x = $1 AND y = $2", pg.rebind("SELECT a FROM b WHERE x = ? AND y = ?"))

	lite := conn{}
	assert.Equal(t, "SELECT ?", lite.rebind("SELECT ?"))
	assert.Equal(t, "", lite.forUpdate())
	assert.Equal(t, " FOR UPDATE", pg.forUpdate())
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "a.db?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate", sqliteDSN("a.db"))
	assert.Equal(t, "a.db?mode=ro", sqliteDSN("a.db?mode=ro"))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mysql"})
	assert.Error(t, err)

	_, err = Open(context.Background(), Config{Driver: DriverPostgres})
	assert.Error(t, err)
}

func TestMigrateIsIdempotentAndSeedsCurrencies(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx))

	currencies, err := s.ListCurrencies(ctx)
	require.NoError(t, err)
	assert.Len(t, currencies, 6)

	code, err := s.DefaultCurrencyCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, "TRY", code)
}

func TestPickDefaultCurrency(t *testing.T) {
	tests := []struct {
		name       string
		currencies []models.Currency
		want       string
	}{
		{"empty registry", nil, "USD"},
		{"preference order", []models.Currency{{Code: "EUR"}, {Code: "USD"}}, "USD"},
		{"alphabetical after preferred", []models.Currency{{Code: "GBP"}, {Code: "AED"}}, "AED"},
		{"crypto skipped", []models.Currency{{Code: "BTC", IsCrypto: true}, {Code: "JPY"}}, "JPY"},
		{"only crypto", []models.Currency{{Code: "ETH", IsCrypto: true}, {Code: "BTC", IsCrypto: true}}, "BTC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pickDefaultCurrency(tt.currencies))
		})
	}
}

func TestDocumentRoundTripAndCascade(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	itemID := int64(7)
	doc := &models.Document{
		Kind:         models.KindInvoice,
		Number:       "INV-0001",
		Date:         "2024-05-15",
		Party:        models.Party{Name: "Acme Ltd", Country: "TR"},
		CurrencyCode: "EUR",
		Subtotal:     dec("100"),
		VATTotal:     dec("18"),
		Total:        dec("118"),
	}
	lines := []models.LineItem{
		{ItemID: &itemID, Name: "Widget", Quantity: dec("2"), Unit: "pcs", Price: dec("50"), VATPercent: dec("18"), LineTotal: dec("118")},
	}

	err := s.WithTx(ctx, func(tx *Tx) error {
		id, err := tx.InsertDocument(ctx, doc)
		if err != nil {
			return err
		}
		doc.ID = id
		return tx.ReplaceLines(ctx, doc.Kind, id, lines)
	})
	require.NoError(t, err)

	got, err := s.GetDocument(ctx, models.KindInvoice, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "INV-0001", got.Number)
	assert.Equal(t, "Acme Ltd", got.Party.Name)
	assert.True(t, got.Total.Equal(dec("118")))
	require.Len(t, got.Lines, 1)
	assert.Equal(t, int64(7), *got.Lines[0].ItemID)
	assert.True(t, got.Lines[0].VATPercent.Equal(dec("18")))

	exists, err := s.DocumentNumberExists(ctx, models.KindInvoice, "INV-0001")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = s.DocumentNumberExists(ctx, models.KindPurchase, "INV-0001")
	require.NoError(t, err)
	assert.False(t, exists)

	found, err := s.ListDocuments(ctx, models.KindInvoice, "acme")
	require.NoError(t, err)
	assert.Len(t, found, 1)
	found, err = s.ListDocuments(ctx, models.KindInvoice, "nobody")
	require.NoError(t, err)
	assert.Empty(t, found)

	require.NoError(t, s.DeleteDocument(ctx, models.KindInvoice, doc.ID))
	_, err = s.GetDocument(ctx, models.KindInvoice, doc.ID)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	movements, err := s.ItemMovements(ctx, models.KindInvoice)
	require.NoError(t, err)
	assert.Empty(t, movements)
}

func TestTransactionsSumAndSettled(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ref := &models.Reference{Kind: models.KindInvoice, ID: 1}
	entries := []models.Transaction{
		{Date: "2024-01-10", Kind: models.InvoiceReceipt, Reference: ref, Amount: dec("10.10"), CurrencyCode: "EUR"},
		{Date: "2024-02-10", Kind: models.InvoiceReceipt, Reference: ref, Amount: dec("20.20"), CurrencyCode: "EUR"},
		{Date: "2024-02-11", Kind: "refund", Reference: ref, Amount: dec("5"), CurrencyCode: "EUR"},
		{Date: "2024-02-12", Kind: "manual", Amount: dec("99"), CurrencyCode: "EUR"},
	}
	for i := range entries {
		_, err := s.InsertTransaction(ctx, &entries[i])
		require.NoError(t, err)
	}

	sum, err := s.SumTransactions(ctx, *ref, models.InvoiceReceipt)
	require.NoError(t, err)
	assert.True(t, sum.Equal(dec("30.30")), "got %s", sum)

	settled, err := s.SettledAmounts(ctx, models.KindInvoice, "2024-01-31")
	require.NoError(t, err)
	assert.True(t, settled[1].Equal(dec("10.10")))

	all, err := s.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, models.TransactionKind("manual"), all[0].Kind)
	assert.Nil(t, all[0].Reference)
}

func TestExpenseTransactionUpdateAndDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ref := &models.Reference{Kind: models.KindExpense, ID: 3}
	_, err := s.InsertTransaction(ctx, &models.Transaction{
		Date: "2024-03-01", Kind: models.ExpensePayment, Reference: ref, Amount: dec("40"), CurrencyCode: "USD",
	})
	require.NoError(t, err)

	n, err := s.UpdateExpenseTransaction(ctx, &models.Transaction{Date: "2024-03-02", Reference: ref, Amount: dec("45")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.UpdateExpenseTransaction(ctx, &models.Transaction{Reference: &models.Reference{Kind: models.KindExpense, ID: 4}})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = s.DeleteExpenseTransactions(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMethods(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.InsertMethod(ctx, &models.PaymentMethod{Name: "Bank", MethodType: "bank"})
	require.NoError(t, err)

	ok, err := s.MethodExists(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.MethodExists(ctx, id+100)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.True(t, errors.Is(s.DeleteMethod(ctx, id+100), models.ErrNotFound))
}
