// Package settlement accepts payments against invoices and purchases.
//
// A payment never overshoots: the requested amount is clamped to what is still outstanding,
// a zero or negative request pays the outstanding balance in full, and a document with nothing
// outstanding accepts no payment at all. The document row is locked while the settled sum is
// read so that concurrent payments cannot overpay.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"invoicing/internal/logger"
	"invoicing/internal/money"
	"invoicing/internal/store"
	"invoicing/pkg/models"
)

// ErrFullySettled rejects a payment against a document whose outstanding balance is zero or less.
var ErrFullySettled = errors.New("document is already fully settled")

// Decide returns the amount to record for a requested payment, or ErrFullySettled.
func Decide(total, settled, requested decimal.Decimal) (decimal.Decimal, error) {
	outstanding := total.Sub(settled)
	if !outstanding.IsPositive() {
		return decimal.Zero, ErrFullySettled
	}
	if !requested.IsPositive() || requested.GreaterThan(outstanding) {
		return outstanding, nil
	}
	return requested, nil
}

// Outstanding is total minus settled. It can be negative for overpaid documents.
func Outstanding(total, settled decimal.Decimal) decimal.Decimal {
	return total.Sub(settled)
}

// DefaultNotes describes a payment when the caller gives no notes.
func DefaultNotes(kind models.DocumentKind, number string) string {
	if kind == models.KindPurchase {
		return "Purchase payment for " + number
	}
	return "Invoice payment received for " + number
}

type Request struct {
	Kind       models.DocumentKind `json:"-"`
	DocumentID int64               `json:"-"`
	MethodID   int64               `json:"payment_method_id"`
	Amount     money.Input         `json:"amount"`
	Date       string              `json:"date,omitempty"`  // today when blank
	Notes      string              `json:"notes,omitempty"` // DefaultNotes when blank
}

// Receipt describes an accepted payment.
type Receipt struct {
	TransactionID int64           `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Outstanding   decimal.Decimal `json:"outstanding"` // after the payment
}

// Balance is the settlement state of one document.
type Balance struct {
	Total       decimal.Decimal `json:"total"`
	Settled     decimal.Decimal `json:"settled"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

type Service struct {
	store *store.Store
	now   func() time.Time
	log   zerolog.Logger
}

func NewService(s *store.Store) *Service {
	return &Service{
		store: s,
		now:   time.Now,
		log:   logger.WithComponent("settlement"),
	}
}

func payable(kind models.DocumentKind) error {
	if kind != models.KindInvoice && kind != models.KindPurchase {
		return fmt.Errorf("payment against %q: %w", kind, models.ErrUnsupportedKind)
	}
	return nil
}

// AcceptPayment records a settling transaction for the document. Every rejection leaves the
// ledger unchanged.
func (s *Service) AcceptPayment(ctx context.Context, req Request) (*Receipt, error) {
	const op = "settlement.AcceptPayment"

	if err := payable(req.Kind); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var receipt Receipt
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		doc, err := tx.LockDocument(ctx, req.Kind, req.DocumentID)
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("%s %d: %w", req.Kind, req.DocumentID, models.ErrDocumentNotFound)
		}
		if err != nil {
			return err
		}

		ok, err := tx.MethodExists(ctx, req.MethodID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("method %d: %w", req.MethodID, models.ErrMethodNotFound)
		}

		ref := models.Reference{Kind: req.Kind, ID: doc.ID}
		settled, err := tx.SumTransactions(ctx, ref, req.Kind.SettlingKind())
		if err != nil {
			return err
		}
		amount, err := Decide(doc.Total, settled, req.Amount.Or(decimal.Zero))
		if err != nil {
			return fmt.Errorf("%s %s: %w", req.Kind, doc.Number, err)
		}

		currency, err := tx.DefaultCurrencyCode(ctx)
		if err != nil {
			return err
		}

		date := strings.TrimSpace(req.Date)
		if date == "" {
			date = s.now().Format(time.DateOnly)
		}
		notes := strings.TrimSpace(req.Notes)
		if notes == "" {
			notes = DefaultNotes(req.Kind, doc.Number)
		}

		methodID := req.MethodID
		id, err := tx.InsertTransaction(ctx, &models.Transaction{
			Date:         date,
			Kind:         req.Kind.SettlingKind(),
			Reference:    &ref,
			Amount:       amount,
			CurrencyCode: currency,
			MethodID:     &methodID,
			Notes:        notes,
		})
		if err != nil {
			return err
		}

		receipt = Receipt{
			TransactionID: id,
			Amount:        amount,
			Outstanding:   Outstanding(doc.Total, settled.Add(amount)),
		}
		return nil
	})
	if err != nil {
		s.log.Warn().
			Err(err).
			Str("kind", string(req.Kind)).
			Int64("document_id", req.DocumentID).
			Msg("Payment rejected")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log := logger.WithDocument("settlement", string(req.Kind), req.DocumentID)
	log.Info().
		Int64("transaction_id", receipt.TransactionID).
		Str("requested", string(req.Amount)).
		Str("amount", money.Format(receipt.Amount)).
		Str("outstanding", money.Format(receipt.Outstanding)).
		Msg("Payment accepted")

	return &receipt, nil
}

// Balance reports total, settled and outstanding for one document.
func (s *Service) Balance(ctx context.Context, kind models.DocumentKind, id int64) (*Balance, error) {
	const op = "settlement.Balance"

	if err := payable(kind); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var b Balance
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		doc, err := tx.LockDocument(ctx, kind, id)
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("%s %d: %w", kind, id, models.ErrDocumentNotFound)
		}
		if err != nil {
			return err
		}
		settled, err := tx.SumTransactions(ctx, models.Reference{Kind: kind, ID: id}, kind.SettlingKind())
		if err != nil {
			return err
		}
		b = Balance{Total: doc.Total, Settled: settled, Outstanding: Outstanding(doc.Total, settled)}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &b, nil
}
