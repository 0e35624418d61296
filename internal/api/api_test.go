package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicing/internal/documents"
	"invoicing/internal/ledger"
	"invoicing/internal/reports"
	"invoicing/internal/settlement"
	"invoicing/internal/store"
	"invoicing/pkg/models"
)

func newApp(t *testing.T, opts Options) *fiber.App {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(ctx, store.Config{Driver: store.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(ctx))

	l := ledger.New(s)
	srv := NewServer(documents.NewService(s, l), l, settlement.NewService(s), reports.NewService(s), opts)
	return srv.App()
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (r response) json(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(r.body, &out), string(r.body))
	return out
}

func do(t *testing.T, app *fiber.App, method, path, body string) response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return response{status: resp.StatusCode, header: resp.Header, body: raw}
}

func TestHealth(t *testing.T) {
	app := newApp(t, Options{})
	r := do(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, true, r.json(t)["ok"])
	assert.NotEmpty(t, r.header.Get(requestIDHeader))
}

func TestInvoicePaymentFlow(t *testing.T) {
	app := newApp(t, Options{})

	r := do(t, app, http.MethodPost, "/api/payment-methods", `{"name":"Bank","method_type":"bank"}`)
	require.Equal(t, http.StatusCreated, r.status, string(r.body))
	methodID := r.json(t)["id"]

	r = do(t, app, http.MethodPost, "/api/invoices", `{
		"date": "2024-05-01",
		"party": {"name": "Acme"},
		"lines": [{"name": "Widget", "quantity": "2", "price": 50, "vat_percent": "20"}]
	}`)
	require.Equal(t, http.StatusCreated, r.status, string(r.body))
	created := r.json(t)
	assert.True(t, strings.HasPrefix(created["number"].(string), "INV-"))
	docPath := fmt.Sprintf("/api/invoices/%v", created["id"])

	r = do(t, app, http.MethodPost, docPath+"/payments", fmt.Sprintf(`{"payment_method_id": %v, "amount": "200"}`, methodID))
	require.Equal(t, http.StatusCreated, r.status, string(r.body))
	receipt := r.json(t)
	assert.Equal(t, 120.0, receipt["amount"])
	assert.Equal(t, 0.0, receipt["outstanding"])

	r = do(t, app, http.MethodPost, docPath+"/payments", fmt.Sprintf(`{"payment_method_id": %v}`, methodID))
	assert.Equal(t, http.StatusConflict, r.status)
	assert.Equal(t, settlement.ErrFullySettled.Error(), r.json(t)["error"])

	r = do(t, app, http.MethodGet, docPath, "")
	require.Equal(t, http.StatusOK, r.status)
	doc := r.json(t)
	assert.Equal(t, 120.0, doc["total"])
	assert.Equal(t, 120.0, doc["balance"].(map[string]any)["settled"])

	r = do(t, app, http.MethodGet, "/api/invoices?q=acme", "")
	require.Equal(t, http.StatusOK, r.status)
	var list []models.DocumentSummary
	require.NoError(t, json.Unmarshal(r.body, &list))
	require.Len(t, list, 1)
	assert.True(t, list[0].Outstanding.IsZero())

	r = do(t, app, http.MethodGet, "/api/transactions", "")
	require.Equal(t, http.StatusOK, r.status)
	var txs []models.Transaction
	require.NoError(t, json.Unmarshal(r.body, &txs))
	require.Len(t, txs, 1)
	assert.Equal(t, models.InvoiceReceipt, txs[0].Kind)
}

func TestBadItemIDKeepsLine(t *testing.T) {
	app := newApp(t, Options{})

	r := do(t, app, http.MethodPost, "/api/purchases", `{
		"date": "2024-05-02",
		"party": {"name": "Supplier"},
		"lines": [
			{"name": "Widget", "item_id": "abc", "quantity": "1", "price": "10"},
			{"name": "Bolt", "item_id": 3, "quantity": "2", "price": "5"}
		]
	}`)
	require.Equal(t, http.StatusCreated, r.status, string(r.body))

	r = do(t, app, http.MethodGet, fmt.Sprintf("/api/purchases/%v", r.json(t)["id"]), "")
	require.Equal(t, http.StatusOK, r.status)
	doc := r.json(t)
	assert.Equal(t, 20.0, doc["total"])

	lines := doc["lines"].([]any)
	require.Len(t, lines, 2)
	assert.NotContains(t, lines[0].(map[string]any), "item_id")
	assert.Equal(t, 3.0, lines[1].(map[string]any)["item_id"])
}

func TestErrorStatuses(t *testing.T) {
	app := newApp(t, Options{})

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"missing date", http.MethodPost, "/api/purchases", `{"party":{"name":"x"}}`, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/api/purchases", `{`, http.StatusBadRequest},
		{"bad id", http.MethodGet, "/api/invoices/abc", "", http.StatusBadRequest},
		{"unknown invoice", http.MethodGet, "/api/invoices/99", "", http.StatusNotFound},
		{"pay unknown invoice", http.MethodPost, "/api/invoices/99/payments", `{"payment_method_id":1}`, http.StatusNotFound},
		{"unknown expense", http.MethodDelete, "/api/expenses/7", "", http.StatusNotFound},
		{"expense without method", http.MethodPost, "/api/expenses", `{"date":"2024-01-01","title":"Rent"}`, http.StatusBadRequest},
		{"transaction without kind", http.MethodPost, "/api/transactions", `{"date":"2024-01-01","currency_code":"usd"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := do(t, app, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, r.status, string(r.body))
			assert.NotEmpty(t, r.json(t)["error"])
		})
	}
}

func TestExpenseRoutes(t *testing.T) {
	app := newApp(t, Options{})

	r := do(t, app, http.MethodPost, "/api/payment-methods", `{"name":"Card","method_type":"card"}`)
	require.Equal(t, http.StatusCreated, r.status)
	methodID := r.json(t)["id"]

	r = do(t, app, http.MethodPost, "/api/expenses", fmt.Sprintf(`{"date":"2024-03-01","title":"Rent","payment_method_id":%v,"amount":"750.50"}`, methodID))
	require.Equal(t, http.StatusCreated, r.status, string(r.body))
	path := fmt.Sprintf("/api/expenses/%v", r.json(t)["id"])

	r = do(t, app, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, 750.5, r.json(t)["amount"])

	r = do(t, app, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, r.status)

	r = do(t, app, http.MethodGet, "/api/transactions", "")
	assert.JSONEq(t, `[]`, string(r.body))
}

func TestReportRoutes(t *testing.T) {
	app := newApp(t, Options{ReportTitle: "Books"})

	r := do(t, app, http.MethodGet, "/api/dashboard?period=quarter", "")
	require.Equal(t, http.StatusOK, r.status)
	assert.True(t, strings.HasPrefix(r.json(t)["label"].(string), "This Quarter"))

	r = do(t, app, http.MethodGet, "/api/report", "")
	require.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, 0.0, r.json(t)["benefit"])

	r = do(t, app, http.MethodGet, "/api/report.pdf", "")
	require.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, "application/pdf", r.header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(string(r.body), "%PDF-"))

	r = do(t, app, http.MethodGet, "/api/assets?q=bolt", "")
	require.Equal(t, http.StatusOK, r.status)

	r = do(t, app, http.MethodGet, "/api/currencies", "")
	require.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, "TRY", r.json(t)["default"])
}

func TestRateLimitAppliesToWritesOnly(t *testing.T) {
	app := newApp(t, Options{RateLimitWrites: 1})

	r := do(t, app, http.MethodPost, "/api/currencies", `{"code":"gbp"}`)
	require.Equal(t, http.StatusCreated, r.status)

	r = do(t, app, http.MethodPost, "/api/currencies", `{"code":"chf"}`)
	assert.Equal(t, http.StatusTooManyRequests, r.status)

	for i := 0; i < 3; i++ {
		r = do(t, app, http.MethodGet, "/api/currencies", "")
		assert.Equal(t, http.StatusOK, r.status)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{fiber.NewError(fiber.StatusTeapot, "tea"), fiber.StatusTeapot},
		{fmt.Errorf("op: %w", models.NewValidationError("date", nil, "is required")), fiber.StatusBadRequest},
		{fmt.Errorf("op: %w", models.ErrUnsupportedKind), fiber.StatusBadRequest},
		{fmt.Errorf("op: %w", models.ErrDocumentNotFound), fiber.StatusNotFound},
		{fmt.Errorf("op: %w", models.ErrMethodNotFound), fiber.StatusNotFound},
		{fmt.Errorf("op: %w", settlement.ErrFullySettled), fiber.StatusConflict},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		code, _ := StatusFor(tt.err)
		assert.Equal(t, tt.code, code, tt.err.Error())
	}

	_, msg := StatusFor(fmt.Errorf("documents.Create: %w", models.NewValidationError("date", nil, "is required")))
	assert.Equal(t, "validation error for field date: is required", msg)
}
