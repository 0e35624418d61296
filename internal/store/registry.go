package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"invoicing/pkg/models"
)

// FallbackCurrency is used when the currency registry is empty.
const FallbackCurrency = "USD"

func (c conn) InsertMethod(ctx context.Context, m *models.PaymentMethod) (int64, error) {
	id, err := c.insert(ctx, `INSERT INTO payment_methods (name, method_type, account_identifier, details)
		VALUES (?, ?, ?, ?)`,
		m.Name, m.MethodType, nullString(m.AccountIdentifier), nullString(m.Details))
	if err != nil {
		return 0, fmt.Errorf("insert payment_methods: %w", err)
	}
	return id, nil
}

func (c conn) UpdateMethod(ctx context.Context, m *models.PaymentMethod) error {
	res, err := c.exec(ctx, `UPDATE payment_methods
		SET name = ?, method_type = ?, account_identifier = ?, details = ?
		WHERE id = ?`,
		m.Name, m.MethodType, nullString(m.AccountIdentifier), nullString(m.Details), m.ID)
	if err != nil {
		return fmt.Errorf("update payment_methods: %w", err)
	}
	return requireAffected(res)
}

func (c conn) DeleteMethod(ctx context.Context, id int64) error {
	res, err := c.exec(ctx, "DELETE FROM payment_methods WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete payment_methods: %w", err)
	}
	return requireAffected(res)
}

func (c conn) ListMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	rows, err := c.query(ctx, `SELECT id, name, method_type, account_identifier, details
		FROM payment_methods ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("select payment_methods: %w", err)
	}
	defer rows.Close()

	out := []models.PaymentMethod{}
	for rows.Next() {
		var (
			m             models.PaymentMethod
			acct, details sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.Name, &m.MethodType, &acct, &details); err != nil {
			return nil, fmt.Errorf("scan payment_methods: %w", err)
		}
		m.AccountIdentifier = acct.String
		m.Details = details.String
		out = append(out, m)
	}
	return out, rows.Err()
}

// MethodExists reports whether a payment method with id exists.
func (c conn) MethodExists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := c.queryRow(ctx, "SELECT 1 FROM payment_methods WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check payment_methods: %w", err)
	}
	return true, nil
}

// InsertCurrency adds a currency; an existing code is left unchanged.
func (c conn) InsertCurrency(ctx context.Context, code, name, symbol string, crypto bool) error {
	isCrypto := 0
	if crypto {
		isCrypto = 1
	}
	_, err := c.exec(ctx, `INSERT INTO payment_currencies (code, name, symbol, is_crypto)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (code) DO NOTHING`,
		strings.ToUpper(strings.TrimSpace(code)), name, nullString(symbol), isCrypto)
	if err != nil {
		return fmt.Errorf("insert payment_currencies: %w", err)
	}
	return nil
}

func (c conn) ListCurrencies(ctx context.Context) ([]models.Currency, error) {
	rows, err := c.query(ctx, `SELECT id, code, name, symbol, is_crypto
		FROM payment_currencies ORDER BY code ASC`)
	if err != nil {
		return nil, fmt.Errorf("select payment_currencies: %w", err)
	}
	defer rows.Close()

	out := []models.Currency{}
	for rows.Next() {
		var (
			cur      models.Currency
			symbol   sql.NullString
			isCrypto int
		)
		if err := rows.Scan(&cur.ID, &cur.Code, &cur.Name, &symbol, &isCrypto); err != nil {
			return nil, fmt.Errorf("scan payment_currencies: %w", err)
		}
		cur.Symbol = symbol.String
		cur.IsCrypto = isCrypto != 0
		out = append(out, cur)
	}
	return out, rows.Err()
}

// DefaultCurrencyCode picks the first non-crypto currency preferring TRY, USD, EUR, then
// alphabetical order. With no fiat currency it takes the first code alphabetically, and with
// an empty registry FallbackCurrency.
func (c conn) DefaultCurrencyCode(ctx context.Context) (string, error) {
	currencies, err := c.ListCurrencies(ctx)
	if err != nil {
		return "", err
	}
	return pickDefaultCurrency(currencies), nil
}

var currencyPreference = map[string]int{"TRY": 0, "USD": 1, "EUR": 2}

func pickDefaultCurrency(currencies []models.Currency) string {
	best, bestRank := "", 0
	for _, cur := range currencies {
		if cur.IsCrypto || cur.Code == "" {
			continue
		}
		rank, ok := currencyPreference[cur.Code]
		if !ok {
			rank = 9
		}
		if best == "" || rank < bestRank || (rank == bestRank && cur.Code < best) {
			best, bestRank = cur.Code, rank
		}
	}
	if best != "" {
		return best
	}
	for _, cur := range currencies {
		if cur.Code != "" && (best == "" || cur.Code < best) {
			best = cur.Code
		}
	}
	if best != "" {
		return best
	}
	return FallbackCurrency
}
