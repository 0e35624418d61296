package ledger

import (
	"context"
	"fmt"
	"strings"

	"invoicing/pkg/models"
)

// AddMethod registers a payment method. Name and type are required.
func (l *Ledger) AddMethod(ctx context.Context, m models.PaymentMethod) (int64, error) {
	m.Name = strings.TrimSpace(m.Name)
	m.MethodType = strings.TrimSpace(m.MethodType)
	if err := models.Required("name", m.Name); err != nil {
		return 0, fmt.Errorf("ledger.AddMethod: %w", err)
	}
	if err := models.Required("method_type", m.MethodType); err != nil {
		return 0, fmt.Errorf("ledger.AddMethod: %w", err)
	}

	id, err := l.store.InsertMethod(ctx, &m)
	if err != nil {
		return 0, fmt.Errorf("ledger.AddMethod: %w", err)
	}
	l.log.Info().Int64("method_id", id).Str("name", m.Name).Msg("Payment method added")
	return id, nil
}

func (l *Ledger) UpdateMethod(ctx context.Context, m models.PaymentMethod) error {
	m.Name = strings.TrimSpace(m.Name)
	m.MethodType = strings.TrimSpace(m.MethodType)
	if err := models.Required("name", m.Name); err != nil {
		return fmt.Errorf("ledger.UpdateMethod: %w", err)
	}
	if err := models.Required("method_type", m.MethodType); err != nil {
		return fmt.Errorf("ledger.UpdateMethod: %w", err)
	}
	if err := l.store.UpdateMethod(ctx, &m); err != nil {
		return fmt.Errorf("ledger.UpdateMethod %d: %w", m.ID, err)
	}
	return nil
}

func (l *Ledger) DeleteMethod(ctx context.Context, id int64) error {
	if err := l.store.DeleteMethod(ctx, id); err != nil {
		return fmt.Errorf("ledger.DeleteMethod %d: %w", id, err)
	}
	return nil
}

func (l *Ledger) Methods(ctx context.Context) ([]models.PaymentMethod, error) {
	methods, err := l.store.ListMethods(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger.Methods: %w", err)
	}
	return methods, nil
}

// AddCurrency registers a currency code. Existing codes are left unchanged.
func (l *Ledger) AddCurrency(ctx context.Context, c models.Currency) error {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	if err := models.Required("code", c.Code); err != nil {
		return fmt.Errorf("ledger.AddCurrency: %w", err)
	}
	if strings.TrimSpace(c.Name) == "" {
		c.Name = c.Code
	}
	if err := l.store.InsertCurrency(ctx, c.Code, c.Name, c.Symbol, c.IsCrypto); err != nil {
		return fmt.Errorf("ledger.AddCurrency: %w", err)
	}
	return nil
}

func (l *Ledger) Currencies(ctx context.Context) ([]models.Currency, error) {
	currencies, err := l.store.ListCurrencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger.Currencies: %w", err)
	}
	return currencies, nil
}

// DefaultCurrency is the code recorded on payments when none is given.
func (l *Ledger) DefaultCurrency(ctx context.Context) (string, error) {
	code, err := l.store.DefaultCurrencyCode(ctx)
	if err != nil {
		return "", fmt.Errorf("ledger.DefaultCurrency: %w", err)
	}
	return code, nil
}
