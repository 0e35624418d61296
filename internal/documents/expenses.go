package documents

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"invoicing/internal/money"
	"invoicing/internal/store"
	"invoicing/pkg/models"
)

// ExpenseInput is a submitted expense. The payment transaction is derived from it.
type ExpenseInput struct {
	Number       string      `json:"number"`
	Date         string      `json:"date"`
	Title        string      `json:"title"`
	Category     string      `json:"category"`
	MethodID     int64       `json:"payment_method_id"`
	Amount       money.Input `json:"amount"`
	Notes        string      `json:"notes"`
	CurrencyCode string      `json:"currency_code"`
}

func (in ExpenseInput) validate() error {
	if err := models.Required("date", strings.TrimSpace(in.Date)); err != nil {
		return err
	}
	if err := models.Required("title", strings.TrimSpace(in.Title)); err != nil {
		return err
	}
	if in.MethodID <= 0 {
		return models.NewValidationError("payment_method_id", nil, "is required")
	}
	return nil
}

func (in ExpenseInput) build() *models.Expense {
	return &models.Expense{
		Date:     strings.TrimSpace(in.Date),
		Title:    strings.TrimSpace(in.Title),
		Category: strings.TrimSpace(in.Category),
		MethodID: in.MethodID,
		Amount:   in.Amount.Or(decimal.Zero),
		Notes:    strings.TrimSpace(in.Notes),
	}
}

// expenseCurrency resolves the currency of the payment and checks the method exists.
func expenseCurrency(ctx context.Context, tx *store.Tx, in ExpenseInput) (string, error) {
	ok, err := tx.MethodExists(ctx, in.MethodID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("method %d: %w", in.MethodID, models.ErrMethodNotFound)
	}
	if code := strings.ToUpper(strings.TrimSpace(in.CurrencyCode)); code != "" {
		return code, nil
	}
	return tx.DefaultCurrencyCode(ctx)
}

// RecordExpense stores an expense together with the payment that settles it.
func (s *Service) RecordExpense(ctx context.Context, in ExpenseInput) (int64, error) {
	const op = "documents.RecordExpense"

	if err := in.validate(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	exp := in.build()
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		currency, err := expenseCurrency(ctx, tx, in)
		if err != nil {
			return err
		}
		exp.Number, err = EnsureUniqueNumber(ctx, models.KindExpense.NumberPrefix(), in.Number, tx.ExpenseNumberExists)
		if err != nil {
			return err
		}
		if exp.ID, err = tx.InsertExpense(ctx, exp); err != nil {
			return err
		}
		return s.ledger.SyncExpense(ctx, tx, exp, currency)
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info().
		Int64("id", exp.ID).
		Str("number", exp.Number).
		Str("amount", money.Format(exp.Amount)).
		Msg("Expense recorded")

	return exp.ID, nil
}

// UpdateExpense rewrites an expense and its payment. A missing payment is recreated.
func (s *Service) UpdateExpense(ctx context.Context, id int64, in ExpenseInput) error {
	const op = "documents.UpdateExpense"

	if err := in.validate(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	exp := in.build()
	exp.ID = id
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		currency, err := expenseCurrency(ctx, tx, in)
		if err != nil {
			return err
		}
		if err := tx.UpdateExpense(ctx, exp); err != nil {
			return err
		}
		return s.ledger.SyncExpense(ctx, tx, exp, currency)
	})
	if err != nil {
		return fmt.Errorf("%s %d: %w", op, id, err)
	}

	s.log.Info().
		Int64("id", id).
		Str("amount", money.Format(exp.Amount)).
		Msg("Expense updated")

	return nil
}

// DeleteExpense removes the payment of an expense, then the expense.
func (s *Service) DeleteExpense(ctx context.Context, id int64) error {
	const op = "documents.DeleteExpense"

	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		if _, err := tx.GetExpense(ctx, id); err != nil {
			return err
		}
		if err := s.ledger.RemoveExpense(ctx, tx, id); err != nil {
			return err
		}
		return tx.DeleteExpense(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("%s %d: %w", op, id, err)
	}

	s.log.Info().Int64("id", id).Msg("Expense deleted")
	return nil
}

func (s *Service) GetExpense(ctx context.Context, id int64) (*models.Expense, error) {
	exp, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("documents.GetExpense: %w", err)
	}
	return exp, nil
}

func (s *Service) ListExpenses(ctx context.Context, search string) ([]models.Expense, error) {
	exps, err := s.store.ListExpenses(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, fmt.Errorf("documents.ListExpenses: %w", err)
	}
	return exps, nil
}
