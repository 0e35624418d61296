package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"

	"invoicing/internal/documents"
	"invoicing/internal/logger"
	"invoicing/internal/money"
)

// ReceiptConfig configures the language model step.
type ReceiptConfig struct {
	Model       string
	Temperature float32
	MaxRetries  int
}

// ReceiptReader turns receipt PDFs into expense drafts: OCR first, then field extraction with an
// OpenAI chat completion. Without a client, or when every attempt fails, a pattern scan of the
// text fills what it can.
type ReceiptReader struct {
	ocr    TextSource
	client *openai.Client
	config ReceiptConfig
	log    zerolog.Logger
}

func NewReceiptReader(ocr TextSource, client *openai.Client, config ReceiptConfig) *ReceiptReader {
	if config.Model == "" {
		config.Model = openai.GPT4oMini
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	return &ReceiptReader{
		ocr:    ocr,
		client: client,
		config: config,
		log:    logger.WithComponent("receipt-intake"),
	}
}

// ReceiptFields is the JSON object the model is asked to return.
type ReceiptFields struct {
	Merchant string `json:"merchant"`
	Title    string `json:"title"`
	Number   string `json:"receipt_number"`
	Date     string `json:"date"`
	Total    any    `json:"total"`
	Currency string `json:"currency"`
	Category string `json:"category"`
}

// ReadReceipt extracts an expense draft paid with methodID.
func (r *ReceiptReader) ReadReceipt(ctx context.Context, pdf io.Reader, methodID int64) (*documents.ExpenseInput, error) {
	const op = "ReadReceipt"

	text, err := r.ocr.ReadText(ctx, pdf)
	if err != nil {
		return nil, wrapError(op, err, "OCR failed")
	}

	r.log.Info().Int("text_length", len(text)).Msg("Receipt text extracted")

	fields, err := r.extract(ctx, text)
	if err != nil {
		r.log.Warn().Err(err).Msg("Model extraction failed, scanning text instead")
		fields = ScanReceipt(text)
	}

	in := fields.expenseInput(methodID)
	if in.Title == "" && in.Amount == "" {
		return nil, wrapError(op, ErrEmptyDocument, "no merchant or total found")
	}

	r.log.Info().
		Str("title", in.Title).
		Str("date", in.Date).
		Str("amount", string(in.Amount)).
		Msg("Receipt extracted")

	return in, nil
}

func (r *ReceiptReader) extract(ctx context.Context, text string) (ReceiptFields, error) {
	const op = "extract"

	if r.client == nil {
		return ReceiptFields{}, fmt.Errorf("%s: %w: no OpenAI client", op, ErrExtractionFailed)
	}

	var lastErr error
	for attempt := 1; attempt <= r.config.MaxRetries; attempt++ {
		resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       r.config.Model,
			Temperature: r.config.Temperature,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: receiptSystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: "Receipt text:\n\n" + text},
			},
			MaxTokens: 400,
		})
		if err != nil {
			lastErr = err
			r.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_retries", r.config.MaxRetries).
				Msg("OpenAI request failed, retrying")
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("no response choices")
			continue
		}

		fields, err := ParseReceiptJSON(resp.Choices[0].Message.Content)
		if err != nil {
			lastErr = err
			continue
		}
		return fields, nil
	}
	return ReceiptFields{}, fmt.Errorf("%s: %w: all %d attempts failed: %v", op, ErrExtractionFailed, r.config.MaxRetries, lastErr)
}

const receiptSystemPrompt = `You read shop and service receipts for a small business ledger.
Return ONLY a JSON object with these fields:
  "merchant": the seller's name,
  "title": a short description of what was bought,
  "receipt_number": the receipt or invoice number, or null,
  "date": the purchase date as YYYY-MM-DD,
  "total": the amount paid including tax, as a string like "123.45",
  "currency": the ISO currency code, or null,
  "category": one word such as travel, meals, office, utilities, rent, other.
Use null for anything you cannot find.`

// ParseReceiptJSON decodes the model answer. total may be a string or a number.
func ParseReceiptJSON(content string) (ReceiptFields, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var f ReceiptFields
	if err := json.Unmarshal([]byte(content), &f); err != nil {
		return ReceiptFields{}, fmt.Errorf("failed to parse receipt JSON: %w", err)
	}
	return f, nil
}

func (f ReceiptFields) total() decimal.Decimal {
	switch v := f.Total.(type) {
	case string:
		if d, err := ParseAmount(v); err == nil {
			return d
		}
	case float64:
		return decimal.NewFromFloat(v)
	}
	return decimal.Zero
}

func (f ReceiptFields) expenseInput(methodID int64) *documents.ExpenseInput {
	title := strings.TrimSpace(f.Title)
	merchant := strings.TrimSpace(f.Merchant)
	switch {
	case title == "":
		title = merchant
	case merchant != "" && !strings.Contains(strings.ToLower(title), strings.ToLower(merchant)):
		title = merchant + " - " + title
	}

	in := &documents.ExpenseInput{
		Number:       strings.TrimSpace(f.Number),
		Date:         ParseDate(f.Date),
		Title:        title,
		Category:     strings.ToLower(strings.TrimSpace(f.Category)),
		MethodID:     methodID,
		CurrencyCode: NormalizeCurrency(f.Currency),
	}
	if total := f.total(); total.IsPositive() {
		in.Amount = money.Input(total.StringFixed(2))
	}
	return in
}

var (
	receiptTotal = regexp.MustCompile(`(?im)^.*\b(?:grand total|total|amount due|toplam|summe|gesamt)\b[^0-9\n]*([0-9][0-9., ]*[0-9])`)
	receiptDate  = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2}|\d{2}[./-]\d{2}[./-]\d{4})\b`)
	receiptCode  = regexp.MustCompile(`(?i)(\bEUR\b|\bUSD\b|\bGBP\b|\bTRY\b|€|\$|£|₺)`)
)

// ScanReceipt pulls merchant, date, total and currency out of OCR text with patterns. The merchant
// is the first non-blank line.
func ScanReceipt(text string) ReceiptFields {
	var f ReceiptFields
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			f.Merchant = line
			break
		}
	}

	if m := receiptDate.FindStringSubmatch(text); m != nil {
		date := strings.NewReplacer("/", ".", "-", ".").Replace(m[1])
		if len(m[1]) == 10 && m[1][4] == '-' {
			date = m[1]
		}
		f.Date = date
	}

	// the last matching line is the amount paid
	if all := receiptTotal.FindAllStringSubmatch(text, -1); len(all) > 0 {
		f.Total = strings.Join(strings.Fields(all[len(all)-1][1]), "")
	}
	if m := receiptCode.FindStringSubmatch(text); m != nil {
		f.Currency = m[1]
	}
	return f
}
