package intake

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"google.golang.org/api/option"

	"invoicing/internal/documents"
	"invoicing/internal/logger"
	"invoicing/internal/money"
)

// DocumentAIConfig selects the invoice processor.
type DocumentAIConfig struct {
	ProjectID        string
	Location         string // "us" or "eu"
	ProcessorID      string
	ProcessorVersion string
	Timeout          time.Duration
}

// PurchaseReader extracts purchase drafts from supplier invoices with Google Document AI.
type PurchaseReader struct {
	client *documentai.DocumentProcessorClient
	config DocumentAIConfig
	log    zerolog.Logger
}

// NewPurchaseReader creates a Document AI client for the configured region.
func NewPurchaseReader(ctx context.Context, config DocumentAIConfig, keyFile string) (*PurchaseReader, error) {
	const op = "NewPurchaseReader"

	if config.ProjectID == "" || config.ProcessorID == "" {
		return nil, wrapError(op, ErrProcessorNotFound, "project and processor id are required")
	}
	if config.Location == "" {
		config.Location = "us"
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}

	opts := clientOptions(keyFile)
	if config.Location != "us" {
		opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, wrapError(op, ErrMissingCredentials, err.Error())
	}

	return &PurchaseReader{
		client: client,
		config: config,
		log:    logger.WithComponent("document-ai"),
	}, nil
}

// Close closes the underlying Document AI client.
func (p *PurchaseReader) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

func (p *PurchaseReader) processorName() string {
	name := fmt.Sprintf("projects/%s/locations/%s/processors/%s", p.config.ProjectID, p.config.Location, p.config.ProcessorID)
	if p.config.ProcessorVersion != "" {
		name += "/processorVersions/" + p.config.ProcessorVersion
	}
	return name
}

// ReadPurchase sends one PDF to Document AI and maps the answer to a purchase draft.
func (p *PurchaseReader) ReadPurchase(ctx context.Context, pdf io.Reader) (*documents.Input, error) {
	const op = "ReadPurchase"

	data, err := readPDF(op, pdf)
	if err != nil {
		return nil, err
	}

	processCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	resp, err := p.client.ProcessDocument(processCtx, &documentaipb.ProcessRequest{
		Name: p.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  data,
				MimeType: "application/pdf",
			},
		},
	})
	if err != nil {
		return nil, classifyAPIError(op, err)
	}
	if resp.Document == nil {
		return nil, wrapError(op, ErrProcessingFailed, "no document in response")
	}

	in, err := PurchaseFromDocument(resp.Document)
	if err != nil {
		return nil, wrapError(op, err, "failed to map invoice fields")
	}

	p.log.Info().
		Str("number", in.Number).
		Str("vendor", in.Party.Name).
		Str("date", in.Date).
		Int("lines", len(in.Lines)).
		Msg("Purchase extracted from Document AI")

	return in, nil
}

// classifyAPIError converts gRPC error text to intake sentinels.
func classifyAPIError(op string, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "PERMISSION_DENIED"), strings.Contains(msg, "PermissionDenied"):
		return wrapError(op, ErrInvalidCredentials, "insufficient permissions")
	case strings.Contains(msg, "QUOTA_EXCEEDED"), strings.Contains(msg, "ResourceExhausted"):
		return wrapError(op, ErrQuotaExceeded, msg)
	case strings.Contains(msg, "NOT_FOUND"), strings.Contains(msg, "NotFound"):
		return wrapError(op, ErrProcessorNotFound, msg)
	case strings.Contains(msg, "INVALID_ARGUMENT"), strings.Contains(msg, "InvalidArgument"):
		return wrapError(op, ErrInvalidPDF, "document format not supported or corrupted")
	case strings.Contains(msg, "DeadlineExceeded"), strings.Contains(msg, "context deadline exceeded"):
		return wrapError(op, context.DeadlineExceeded, "processing timeout")
	default:
		return wrapError(op, ErrProcessingFailed, msg)
	}
}

type lineDraft struct {
	description string
	quantity    decimal.Decimal
	unitPrice   decimal.Decimal
	amount      decimal.Decimal
}

// PurchaseFromDocument maps Document AI invoice entities to a purchase input. Line VAT rates are
// the document-wide rate total_tax / net, since the processor rarely reports per-line rates.
func PurchaseFromDocument(doc *documentaipb.Document) (*documents.Input, error) {
	in := &documents.Input{}
	var net, tax, gross decimal.Decimal
	var lines []lineDraft

	for _, entity := range doc.Entities {
		value := strings.TrimSpace(entity.MentionText)
		switch entity.Type {
		case "invoice_id", "invoice_number":
			in.Number = value
		case "supplier_name", "vendor_name":
			in.Party.Name = value
		case "supplier_tax_id":
			in.Party.TaxNumber = value
		case "supplier_address":
			in.Party.Address = strings.Join(strings.Fields(value), " ")
		case "supplier_phone":
			in.Party.Phone = value
		case "supplier_website":
			in.Party.Website = value
		case "invoice_date":
			in.Date = entityDate(entity)
		case "currency":
			in.CurrencyCode = NormalizeCurrency(value)
		case "net_amount", "subtotal_amount":
			net = entityMoney(entity)
		case "total_tax_amount", "vat_amount":
			tax = entityMoney(entity)
		case "total_amount", "gross_amount":
			gross = entityMoney(entity)
		case "line_item":
			lines = append(lines, lineFromEntity(entity))
		}
	}

	if in.Number == "" {
		in.Number = invoiceNumberFromText(doc.Text)
	}

	switch {
	case net.IsZero() && gross.IsPositive():
		net = gross.Sub(tax)
	case tax.IsZero() && gross.GreaterThan(net) && net.IsPositive():
		tax = gross.Sub(net)
	}
	if net.IsZero() && len(lines) == 0 {
		return nil, ErrEmptyDocument
	}

	rate := decimal.Zero
	if net.IsPositive() && tax.IsPositive() {
		rate = tax.Div(net).Mul(money.Hundred).Round(2)
	}

	if len(lines) == 0 {
		name := in.Party.Name
		if name == "" {
			name = "Purchase"
		}
		lines = []lineDraft{{description: name, quantity: money.One, unitPrice: net}}
	}

	for _, l := range lines {
		qty, price := l.quantity, l.unitPrice
		if !qty.IsPositive() {
			qty = money.One
		}
		if price.IsZero() && l.amount.IsPositive() {
			price = l.amount.Div(qty).Round(4)
		}
		name := l.description
		if name == "" {
			name = "Item"
		}
		in.Lines = append(in.Lines, documents.LineInput{
			Name:       name,
			Quantity:   money.Input(qty.String()),
			Price:      money.Input(price.String()),
			VATPercent: money.Input(rate.String()),
		})
	}
	return in, nil
}

func lineFromEntity(entity *documentaipb.Document_Entity) lineDraft {
	l := lineDraft{description: strings.TrimSpace(entity.MentionText)}
	for _, prop := range entity.Properties {
		switch prop.Type {
		case "line_item/description":
			l.description = strings.Join(strings.Fields(prop.MentionText), " ")
		case "line_item/quantity":
			if q, err := ParseAmount(prop.MentionText); err == nil {
				l.quantity = q
			}
		case "line_item/unit_price":
			l.unitPrice = entityMoney(prop)
		case "line_item/amount":
			l.amount = entityMoney(prop)
		}
	}
	return l
}

func entityDate(entity *documentaipb.Document_Entity) string {
	if nv := entity.GetNormalizedValue(); nv != nil {
		if d := nv.GetDateValue(); d != nil && d.Year > 0 {
			return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
		}
	}
	return ParseDate(entity.MentionText)
}

func entityMoney(entity *documentaipb.Document_Entity) decimal.Decimal {
	if nv := entity.GetNormalizedValue(); nv != nil {
		if m := nv.GetMoneyValue(); m != nil {
			return decimal.NewFromInt(m.Units).Add(decimal.New(int64(m.Nanos), -9))
		}
	}
	amount, err := ParseAmount(entity.MentionText)
	if err != nil {
		return decimal.Zero
	}
	return amount
}

var invoiceNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:invoice|inv|rechnung|fatura)[\s\-:\.]*(?:no|nr|number|#)?[\s\-:\.#]*([A-Z0-9][A-Z0-9\-/\.]{3,19})`),
	regexp.MustCompile(`(?i)(?:^|\s)(?:no|nr|number)[\s\-:\.]*(\d{6,})`),
}

// invoiceNumberFromText finds a labelled invoice number in the OCR text.
func invoiceNumberFromText(text string) string {
	for _, re := range invoiceNumberPatterns {
		if m := re.FindStringSubmatch(text); len(m) > 1 {
			candidate := strings.TrimRight(strings.TrimSpace(m[1]), ".-/")
			if len(candidate) >= 4 && strings.ContainsAny(candidate, "0123456789") {
				return candidate
			}
		}
	}
	return ""
}
