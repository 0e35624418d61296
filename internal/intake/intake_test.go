package intake

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicing/internal/documents"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.234,50", "1234.5"},
		{"1,234.50", "1234.5"},
		{"€ 7.303,08", "7303.08"},
		{"12,5", "12.5"},
		{"1,234", "1234"},
		{"$99.99", "99.99"},
		{"580 EUR", "580"},
		{"-15,00", "-15"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), got.String())
		})
	}

	_, err := ParseAmount("n/a")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	assert.Equal(t, "2024-05-15", ParseDate("2024-05-15"))
	assert.Equal(t, "2024-05-15", ParseDate(" 15.05.2024 "))
	assert.Equal(t, "2024-03-12", ParseDate("12/03/2024"))
	assert.Equal(t, "2024-01-02", ParseDate("Jan 2, 2024"))
	assert.Equal(t, "", ParseDate("soon"))
}

func TestNormalizeCurrency(t *testing.T) {
	tests := map[string]string{
		"€": "EUR", "euro": "EUR", "$": "USD", "£": "GBP", "₺": "TRY", "tl": "TRY", "chf": "CHF", "": "", "monopoly": "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeCurrency(in), in)
	}
}

func TestReadPDFRejectsNonPDF(t *testing.T) {
	_, err := readPDF("test", strings.NewReader("hello"))
	assert.ErrorIs(t, err, ErrInvalidPDF)

	var procErr *ProcessingError
	require.ErrorAs(t, err, &procErr)
	assert.Equal(t, "test", procErr.Op)

	data, err := readPDF("test", strings.NewReader("%PDF-1.7 ..."))
	require.NoError(t, err)
	assert.Len(t, data, 12)
}

func entity(typ, text string, props ...*documentaipb.Document_Entity) *documentaipb.Document_Entity {
	return &documentaipb.Document_Entity{Type: typ, MentionText: text, Properties: props}
}

func TestPurchaseFromDocument(t *testing.T) {
	doc := &documentaipb.Document{
		Entities: []*documentaipb.Document_Entity{
			entity("invoice_id", "A-1001"),
			entity("supplier_name", "Bolt Supplies"),
			entity("supplier_address", "1 Dock Road\nHarbour"),
			entity("invoice_date", "15.05.2024"),
			entity("currency", "€"),
			entity("net_amount", "1.000,00"),
			entity("total_tax_amount", "200,00"),
			entity("total_amount", "1.200,00"),
			entity("line_item", "Bolts 100 5,00",
				entity("line_item/description", "Bolts"),
				entity("line_item/quantity", "100"),
				entity("line_item/unit_price", "5,00"),
			),
			entity("line_item", "Nuts 500.00",
				entity("line_item/description", "Nuts"),
				entity("line_item/amount", "500.00"),
			),
		},
	}

	in, err := PurchaseFromDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, "A-1001", in.Number)
	assert.Equal(t, "Bolt Supplies", in.Party.Name)
	assert.Equal(t, "1 Dock Road Harbour", in.Party.Address)
	assert.Equal(t, "2024-05-15", in.Date)
	assert.Equal(t, "EUR", in.CurrencyCode)
	require.Len(t, in.Lines, 2)
	assert.Equal(t, "Nuts", in.Lines[1].Name)

	totals := documents.ComputeTotals(documents.ParseLines(in.Lines))
	assert.True(t, totals.Subtotal.Equal(decimal.NewFromInt(1000)), totals.Subtotal.String())
	assert.True(t, totals.VAT.Equal(decimal.NewFromInt(200)), totals.VAT.String())
	assert.True(t, totals.Total.Equal(decimal.NewFromInt(1200)))
}

func TestPurchaseFromDocumentWithoutLines(t *testing.T) {
	doc := &documentaipb.Document{
		Text: "ACME Ltd\nInvoice No: 2024-0042\nThank you",
		Entities: []*documentaipb.Document_Entity{
			entity("supplier_name", "ACME Ltd"),
			entity("total_amount", "118.00"),
			entity("total_tax_amount", "18.00"),
		},
	}

	in, err := PurchaseFromDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, "2024-0042", in.Number)
	require.Len(t, in.Lines, 1)
	assert.Equal(t, "ACME Ltd", in.Lines[0].Name)

	totals := documents.ComputeTotals(documents.ParseLines(in.Lines))
	assert.True(t, totals.Total.Equal(decimal.NewFromInt(118)), totals.Total.String())
}

func TestPurchaseFromEmptyDocument(t *testing.T) {
	_, err := PurchaseFromDocument(&documentaipb.Document{})
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestClassifyAPIError(t *testing.T) {
	assert.ErrorIs(t, classifyAPIError("op", errors.New("rpc error: code = PermissionDenied")), ErrInvalidCredentials)
	assert.ErrorIs(t, classifyAPIError("op", errors.New("code = NotFound desc = processor")), ErrProcessorNotFound)
	assert.ErrorIs(t, classifyAPIError("op", errors.New("context deadline exceeded")), context.DeadlineExceeded)
	assert.ErrorIs(t, classifyAPIError("op", errors.New("boom")), ErrProcessingFailed)
}

func pages(texts ...string) *visionpb.AnnotateFileResponse {
	resp := &visionpb.AnnotateFileResponse{}
	for _, text := range texts {
		resp.Responses = append(resp.Responses, &visionpb.AnnotateImageResponse{
			FullTextAnnotation: &visionpb.TextAnnotation{Text: text},
		})
	}
	return resp
}

func TestPagesText(t *testing.T) {
	text, err := pagesText(pages("first", "second"))
	require.NoError(t, err)
	assert.Equal(t, "first\n\n--- Page 2 ---\n\nsecond", text)

	_, err = pagesText(pages("1", "2", "3", "4", "5", "6"))
	assert.ErrorIs(t, err, ErrTooManyPages)

	_, err = pagesText(pages("  "))
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestParseReceiptJSON(t *testing.T) {
	f, err := ParseReceiptJSON("```json\n{\"merchant\":\"Rail Co\",\"title\":\"Ticket\",\"date\":\"2024-02-01\",\"total\":42.5,\"currency\":\"eur\",\"category\":\"Travel\",\"receipt_number\":null}\n```")
	require.NoError(t, err)

	in := f.expenseInput(3)
	assert.Equal(t, "Rail Co - Ticket", in.Title)
	assert.Equal(t, "2024-02-01", in.Date)
	assert.Equal(t, "42.50", string(in.Amount))
	assert.Equal(t, "EUR", in.CurrencyCode)
	assert.Equal(t, "travel", in.Category)
	assert.Equal(t, int64(3), in.MethodID)

	_, err = ParseReceiptJSON("not json")
	assert.Error(t, err)
}

const cafeReceipt = `
Corner Cafe
12/03/2024 09:14
Coffee        3,50
Croissant     3,50
Subtotal      7,00
VAT           1,40
TOTAL EUR     8,40
`

func TestScanReceipt(t *testing.T) {
	f := ScanReceipt(cafeReceipt)
	assert.Equal(t, "Corner Cafe", f.Merchant)
	assert.Equal(t, "12.03.2024", f.Date)
	assert.Equal(t, "8,40", f.Total)
	assert.Equal(t, "EUR", f.Currency)
}

type fakeOCR struct {
	text string
	err  error
}

func (f fakeOCR) ReadText(context.Context, io.Reader) (string, error) {
	return f.text, f.err
}

func TestReadReceiptFallsBackToScan(t *testing.T) {
	r := NewReceiptReader(fakeOCR{text: cafeReceipt}, nil, ReceiptConfig{})

	in, err := r.ReadReceipt(context.Background(), strings.NewReader("%PDF"), 9)
	require.NoError(t, err)
	assert.Equal(t, "Corner Cafe", in.Title)
	assert.Equal(t, "2024-03-12", in.Date)
	assert.Equal(t, "8.40", string(in.Amount))
	assert.Equal(t, "EUR", in.CurrencyCode)
	assert.Equal(t, int64(9), in.MethodID)
}

func TestReadReceiptErrors(t *testing.T) {
	r := NewReceiptReader(fakeOCR{err: ErrEmptyDocument}, nil, ReceiptConfig{})
	_, err := r.ReadReceipt(context.Background(), strings.NewReader(""), 1)
	assert.ErrorIs(t, err, ErrEmptyDocument)

	r = NewReceiptReader(fakeOCR{text: "\n\n"}, nil, ReceiptConfig{})
	_, err = r.ReadReceipt(context.Background(), strings.NewReader(""), 1)
	assert.ErrorIs(t, err, ErrEmptyDocument)
}
