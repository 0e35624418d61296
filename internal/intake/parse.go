// Package intake turns scanned paperwork into drafts for the ledger: supplier PDF invoices become
// purchase inputs through Document AI, receipts become expense inputs through Vision OCR and an
// OpenAI chat completion.
//
// Credentials come from a service account key file, GOOGLE_APPLICATION_CREDENTIALS or inline
// GOOGLE_CREDENTIALS JSON, in that order.
package intake

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/api/option"
)

// MaxDocumentSizeBytes is the maximum document size for synchronous processing (20MB)
const MaxDocumentSizeBytes = 20 * 1024 * 1024

// readPDF buffers r and checks the size limit and the PDF header.
func readPDF(op string, r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDocumentSizeBytes+1))
	if err != nil {
		return nil, wrapError(op, err, "failed to read PDF data")
	}
	if len(data) > MaxDocumentSizeBytes {
		return nil, wrapError(op, ErrDocumentTooLarge, fmt.Sprintf("limit: %d bytes", MaxDocumentSizeBytes))
	}
	if len(data) < 4 || string(data[:4]) != "%PDF" {
		return nil, wrapError(op, ErrInvalidPDF, "missing PDF header")
	}
	return data, nil
}

// clientOptions picks the credential source for Google API clients.
func clientOptions(keyFile string) []option.ClientOption {
	switch {
	case keyFile != "":
		return []option.ClientOption{option.WithCredentialsFile(keyFile)}
	case os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "":
		return []option.ClientOption{option.WithCredentialsFile(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))}
	case os.Getenv("GOOGLE_CREDENTIALS") != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(os.Getenv("GOOGLE_CREDENTIALS")))}
	default:
		return nil
	}
}

// ParseAmount reads a printed amount in English (1,234.50) or continental (1.234,50) notation.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	for _, sym := range []string{" ", "\u00a0", "€", "$", "£", "₺", "EUR", "USD", "GBP", "TRY", "TL"} {
		cleaned = strings.ReplaceAll(cleaned, sym, "")
	}

	dot, comma := strings.LastIndex(cleaned, "."), strings.LastIndex(cleaned, ",")
	switch {
	case dot >= 0 && comma >= 0 && comma > dot:
		// 1.234,50
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	case dot >= 0 && comma >= 0:
		// 1,234.50
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case comma >= 0:
		if len(cleaned)-comma-1 <= 2 {
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to parse amount: %s (cleaned: %s)", s, cleaned)
	}
	return d, nil
}

var dateFormats = []string{
	time.DateOnly,
	"02.01.2006",
	"02/01/2006",
	"2006/01/02",
	"02-01-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
}

// ParseDate returns the ISO form of a printed date, or "" when no known layout matches.
func ParseDate(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(time.DateOnly)
		}
	}
	return ""
}

// NormalizeCurrency maps printed currency symbols and names to ISO codes. Unknown values are "".
func NormalizeCurrency(currency string) string {
	normalized := strings.ToUpper(strings.TrimSpace(currency))
	switch normalized {
	case "":
		return ""
	case "€", "EURO", "EUROS":
		return "EUR"
	case "$", "DOLLAR", "DOLLARS", "US$":
		return "USD"
	case "£", "POUND", "POUNDS":
		return "GBP"
	case "₺", "TL", "LIRA":
		return "TRY"
	default:
		if len(normalized) == 3 {
			return normalized
		}
		return ""
	}
}
