// Package documents stores sales invoices, purchase invoices and expenses.
//
// Totals are never taken from the caller: every create and edit parses the submitted lines,
// recomputes subtotal, VAT and total, and writes head and lines in one transaction.
package documents

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"invoicing/internal/ledger"
	"invoicing/internal/logger"
	"invoicing/internal/money"
	"invoicing/internal/store"
	"invoicing/pkg/models"
)

type Service struct {
	store  *store.Store
	ledger *ledger.Ledger
	log    zerolog.Logger
}

func NewService(s *store.Store, l *ledger.Ledger) *Service {
	return &Service{
		store:  s,
		ledger: l,
		log:    logger.WithComponent("documents"),
	}
}

// Input is a submitted invoice or purchase. Number is only honoured on create.
type Input struct {
	Number       string       `json:"number"`
	Date         string       `json:"date"`
	Party        models.Party `json:"party"`
	CurrencyCode string       `json:"currency_code"`
	Lines        []LineInput  `json:"lines"`
}

func (in Input) validate() error {
	return models.Required("date", strings.TrimSpace(in.Date))
}

// build derives the stored document from the input; totals come from the parsed lines.
func (in Input) build(kind models.DocumentKind) *models.Document {
	lines := ParseLines(in.Lines)
	totals := ComputeTotals(lines)
	party := in.Party
	party.Name = strings.TrimSpace(party.Name)
	return &models.Document{
		Kind:         kind,
		Date:         strings.TrimSpace(in.Date),
		Party:        party,
		CurrencyCode: strings.ToUpper(strings.TrimSpace(in.CurrencyCode)),
		Lines:        lines,
		Subtotal:     totals.Subtotal,
		VATTotal:     totals.VAT,
		Total:        totals.Total,
	}
}

func requireLines(kind models.DocumentKind) error {
	if !kind.HasLines() {
		return fmt.Errorf("%s: %w", kind, models.ErrUnsupportedKind)
	}
	return nil
}

// Create stores a new document and returns its id and number.
func (s *Service) Create(ctx context.Context, kind models.DocumentKind, in Input) (int64, string, error) {
	const op = "documents.Create"

	if err := requireLines(kind); err != nil {
		return 0, "", fmt.Errorf("%s: %w", op, err)
	}
	if err := in.validate(); err != nil {
		return 0, "", fmt.Errorf("%s: %w", op, err)
	}

	doc := in.build(kind)
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		if doc.CurrencyCode == "" {
			code, err := tx.DefaultCurrencyCode(ctx)
			if err != nil {
				return err
			}
			doc.CurrencyCode = code
		}

		number, err := EnsureUniqueNumber(ctx, kind.NumberPrefix(), in.Number, func(ctx context.Context, n string) (bool, error) {
			return tx.DocumentNumberExists(ctx, kind, n)
		})
		if err != nil {
			return err
		}
		doc.Number = number

		if doc.ID, err = tx.InsertDocument(ctx, doc); err != nil {
			return err
		}
		return tx.ReplaceLines(ctx, kind, doc.ID, doc.Lines)
	})
	if err != nil {
		return 0, "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info().
		Str("kind", string(kind)).
		Int64("id", doc.ID).
		Str("number", doc.Number).
		Int("lines", len(doc.Lines)).
		Str("total", money.Format(doc.Total)).
		Msg("Document created")

	return doc.ID, doc.Number, nil
}

// Update replaces the head fields and every line of a document. The number never changes.
func (s *Service) Update(ctx context.Context, kind models.DocumentKind, id int64, in Input) error {
	const op = "documents.Update"

	if err := requireLines(kind); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := in.validate(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	doc := in.build(kind)
	doc.ID = id
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		current, err := tx.LockDocument(ctx, kind, id)
		if err != nil {
			return err
		}
		if doc.CurrencyCode == "" {
			doc.CurrencyCode = current.CurrencyCode
		}
		if err := tx.UpdateDocument(ctx, doc); err != nil {
			return err
		}
		return tx.ReplaceLines(ctx, kind, id, doc.Lines)
	})
	if err != nil {
		return fmt.Errorf("%s %d: %w", op, id, err)
	}

	s.log.Info().
		Str("kind", string(kind)).
		Int64("id", id).
		Int("lines", len(doc.Lines)).
		Str("total", money.Format(doc.Total)).
		Msg("Document updated")

	return nil
}

// Delete removes a document with its lines. Payments that reference it are kept.
func (s *Service) Delete(ctx context.Context, kind models.DocumentKind, id int64) error {
	const op = "documents.Delete"

	if err := requireLines(kind); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		return tx.DeleteDocument(ctx, kind, id)
	})
	if err != nil {
		return fmt.Errorf("%s %d: %w", op, id, err)
	}

	s.log.Info().Str("kind", string(kind)).Int64("id", id).Msg("Document deleted")
	return nil
}

func (s *Service) Get(ctx context.Context, kind models.DocumentKind, id int64) (*models.Document, error) {
	if err := requireLines(kind); err != nil {
		return nil, fmt.Errorf("documents.Get: %w", err)
	}
	doc, err := s.store.GetDocument(ctx, kind, id)
	if err != nil {
		return nil, fmt.Errorf("documents.Get: %w", err)
	}
	return doc, nil
}

// List returns documents newest first with what has been paid and what is still outstanding.
func (s *Service) List(ctx context.Context, kind models.DocumentKind, search string) ([]models.DocumentSummary, error) {
	const op = "documents.List"

	if err := requireLines(kind); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var (
		docs    []models.Document
		settled map[int64]decimal.Decimal
	)
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		if docs, err = tx.ListDocuments(ctx, kind, strings.TrimSpace(search)); err != nil {
			return err
		}
		settled, err = tx.SettledAmounts(ctx, kind, "")
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return Summarize(docs, settled), nil
}

// Summarize pairs each document with its settled amount. Outstanding is floored at zero.
func Summarize(docs []models.Document, settled map[int64]decimal.Decimal) []models.DocumentSummary {
	out := make([]models.DocumentSummary, 0, len(docs))
	for _, doc := range docs {
		paid := settled[doc.ID]
		outstanding := doc.Total.Sub(paid)
		if outstanding.IsNegative() {
			outstanding = decimal.Zero
		}
		out = append(out, models.DocumentSummary{
			ID:          doc.ID,
			Kind:        doc.Kind,
			Number:      doc.Number,
			Date:        doc.Date,
			PartyName:   doc.Party.Name,
			Total:       doc.Total,
			Paid:        paid,
			Outstanding: outstanding,
		})
	}
	return out
}
