// Package ledger records payment transactions.
//
// Entries are append-only with two exceptions: manual entries can be deleted, and the single
// payment created for each expense is rewritten whenever the expense changes.
package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"invoicing/internal/logger"
	"invoicing/internal/money"
	"invoicing/internal/store"
	"invoicing/pkg/models"
)

type Ledger struct {
	store *store.Store
	log   zerolog.Logger
}

func New(s *store.Store) *Ledger {
	return &Ledger{
		store: s,
		log:   logger.WithComponent("ledger"),
	}
}

// ManualInput is a transaction entered by hand. Kind is free-form.
type ManualInput struct {
	Date          string      `json:"date"`
	Kind          string      `json:"kind"`
	ReferenceKind string      `json:"reference_type,omitempty"`
	ReferenceID   *int64      `json:"reference_id,omitempty"`
	Amount        money.Input `json:"amount"`
	CurrencyCode  string      `json:"currency_code"`
	MethodID      *int64      `json:"method_id,omitempty"`
	Notes         string      `json:"notes,omitempty"`
}

func (in ManualInput) validate() error {
	if err := models.Required("date", strings.TrimSpace(in.Date)); err != nil {
		return err
	}
	if err := models.Required("kind", strings.TrimSpace(in.Kind)); err != nil {
		return err
	}
	if err := models.Required("currency_code", strings.TrimSpace(in.CurrencyCode)); err != nil {
		return err
	}
	if in.ReferenceKind != "" {
		if _, ok := models.ParseDocumentKind(in.ReferenceKind); !ok {
			return models.NewValidationError("reference_type", in.ReferenceKind, "unknown document kind")
		}
		if in.ReferenceID == nil {
			return models.NewValidationError("reference_id", nil, "is required with reference_type")
		}
	}
	return nil
}

// Record appends a manual transaction and returns its id.
func (l *Ledger) Record(ctx context.Context, in ManualInput) (int64, error) {
	const op = "ledger.Record"

	if err := in.validate(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	t := &models.Transaction{
		Date:         strings.TrimSpace(in.Date),
		Kind:         models.TransactionKind(strings.TrimSpace(in.Kind)),
		Amount:       in.Amount.Or(decimal.Zero),
		CurrencyCode: strings.ToUpper(strings.TrimSpace(in.CurrencyCode)),
		MethodID:     in.MethodID,
		Notes:        strings.TrimSpace(in.Notes),
	}
	if in.ReferenceKind != "" {
		kind, _ := models.ParseDocumentKind(in.ReferenceKind)
		t.Reference = &models.Reference{Kind: kind, ID: *in.ReferenceID}
	}

	var id int64
	err := l.store.WithTx(ctx, func(tx *store.Tx) error {
		if t.MethodID != nil {
			ok, err := tx.MethodExists(ctx, *t.MethodID)
			if err != nil {
				return err
			}
			if !ok {
				return models.ErrMethodNotFound
			}
		}
		var err error
		id, err = tx.InsertTransaction(ctx, t)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	l.log.Info().
		Int64("transaction_id", id).
		Str("kind", string(t.Kind)).
		Str("amount", money.Format(t.Amount)).
		Msg("Transaction recorded")

	return id, nil
}

// Sum totals the amounts recorded for one document under one kind.
func (l *Ledger) Sum(ctx context.Context, ref models.Reference, kind models.TransactionKind) (decimal.Decimal, error) {
	sum, err := l.store.SumTransactions(ctx, ref, kind)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ledger.Sum: %w", err)
	}
	return sum, nil
}

// List returns every transaction newest first.
func (l *Ledger) List(ctx context.Context) ([]models.Transaction, error) {
	txs, err := l.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger.List: %w", err)
	}
	return txs, nil
}

func (l *Ledger) Delete(ctx context.Context, id int64) error {
	if err := l.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("ledger.Delete %d: %w", id, err)
	}
	l.log.Info().Int64("transaction_id", id).Msg("Transaction deleted")
	return nil
}

// ExpenseNotes is the transaction description used when an expense has no notes.
func ExpenseNotes(exp *models.Expense) string {
	if notes := strings.TrimSpace(exp.Notes); notes != "" {
		return notes
	}
	return "Expense payment for " + exp.Title
}

// SyncExpense makes the payment of exp match it: the existing expense_payment row is updated,
// or one is inserted when none exists. It runs inside the caller's transaction.
func (l *Ledger) SyncExpense(ctx context.Context, tx *store.Tx, exp *models.Expense, currency string) error {
	const op = "ledger.SyncExpense"

	methodID := exp.MethodID
	t := &models.Transaction{
		Date:         exp.Date,
		Kind:         models.ExpensePayment,
		Reference:    &models.Reference{Kind: models.KindExpense, ID: exp.ID},
		Amount:       exp.Amount,
		CurrencyCode: currency,
		MethodID:     &methodID,
		Notes:        ExpenseNotes(exp),
	}

	n, err := tx.UpdateExpenseTransaction(ctx, t)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n > 0 {
		l.log.Debug().Int64("expense_id", exp.ID).Msg("Expense payment updated")
		return nil
	}

	id, err := tx.InsertTransaction(ctx, t)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	l.log.Debug().
		Int64("expense_id", exp.ID).
		Int64("transaction_id", id).
		Msg("Expense payment created")
	return nil
}

// RemoveExpense deletes the payment of an expense inside the caller's transaction.
func (l *Ledger) RemoveExpense(ctx context.Context, tx *store.Tx, expenseID int64) error {
	n, err := tx.DeleteExpenseTransactions(ctx, expenseID)
	if err != nil {
		return fmt.Errorf("ledger.RemoveExpense: %w", err)
	}
	l.log.Debug().
		Int64("expense_id", expenseID).
		Int64("removed", n).
		Msg("Expense payment removed")
	return nil
}
