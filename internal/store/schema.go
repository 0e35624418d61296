package store

import (
	"context"
	"fmt"
	"strings"
)

// schema uses {{PK}} and {{REAL}} so that one definition serves both drivers.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS invoices (
		id {{PK}},
		invoice_number TEXT NOT NULL UNIQUE,
		invoice_date TEXT NOT NULL,
		customer_id BIGINT,
		customer_name TEXT,
		customer_tax_number TEXT,
		registration_name TEXT,
		phone_number TEXT,
		address TEXT,
		website TEXT,
		country TEXT,
		address_2 TEXT,
		subtotal {{REAL}} NOT NULL DEFAULT 0,
		vat_total {{REAL}} NOT NULL DEFAULT 0,
		total {{REAL}} NOT NULL DEFAULT 0,
		currency_code TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS invoice_items (
		id {{PK}},
		invoice_id BIGINT NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
		item_id BIGINT,
		item_name TEXT NOT NULL,
		quantity {{REAL}} NOT NULL DEFAULT 1,
		unit TEXT NOT NULL DEFAULT '1',
		price {{REAL}} NOT NULL DEFAULT 0,
		vat_amount {{REAL}} NOT NULL DEFAULT 0,
		line_total {{REAL}} NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS purchase_invoices (
		id {{PK}},
		purchase_number TEXT NOT NULL UNIQUE,
		purchase_date TEXT NOT NULL,
		vendor_id BIGINT,
		vendor_name TEXT,
		vendor_tax_number TEXT,
		registration_name TEXT,
		phone_number TEXT,
		address TEXT,
		website TEXT,
		country TEXT,
		address_2 TEXT,
		subtotal {{REAL}} NOT NULL DEFAULT 0,
		vat_total {{REAL}} NOT NULL DEFAULT 0,
		total {{REAL}} NOT NULL DEFAULT 0,
		currency_code TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS purchase_invoice_items (
		id {{PK}},
		purchase_invoice_id BIGINT NOT NULL REFERENCES purchase_invoices(id) ON DELETE CASCADE,
		item_id BIGINT,
		item_name TEXT NOT NULL,
		quantity {{REAL}} NOT NULL DEFAULT 1,
		unit TEXT NOT NULL DEFAULT '1',
		price {{REAL}} NOT NULL DEFAULT 0,
		vat_amount {{REAL}} NOT NULL DEFAULT 0,
		line_total {{REAL}} NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS payment_methods (
		id {{PK}},
		name TEXT NOT NULL,
		method_type TEXT NOT NULL,
		account_identifier TEXT,
		details TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS payment_currencies (
		id {{PK}},
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		symbol TEXT,
		is_crypto INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS expenses (
		id {{PK}},
		expense_number TEXT NOT NULL UNIQUE,
		expense_date TEXT NOT NULL,
		title TEXT NOT NULL,
		category TEXT,
		payment_method_id BIGINT,
		amount {{REAL}} NOT NULL DEFAULT 0,
		notes TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS payment_transactions (
		id {{PK}},
		transaction_date TEXT NOT NULL,
		transaction_type TEXT NOT NULL,
		reference_type TEXT,
		reference_id BIGINT,
		amount {{REAL}} NOT NULL DEFAULT 0,
		currency_code TEXT NOT NULL,
		method_id BIGINT,
		notes TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_payment_transactions_reference
		ON payment_transactions (reference_type, reference_id, transaction_type)`,
}

// defaultCurrencies are inserted on every migrate; existing codes are left untouched.
var defaultCurrencies = []struct {
	code, name, symbol string
	crypto             bool
}{
	{"USD", "US Dollar", "$", false},
	{"EUR", "Euro", "€", false},
	{"TRY", "Turkish Lira", "₺", false},
	{"AED", "UAE Dirham", "د.إ", false},
	{"BTC", "Bitcoin", "₿", true},
	{"ETH", "Ethereum", "Ξ", true},
}

// Migrate creates missing tables and seeds the default currencies.
func (s *Store) Migrate(ctx context.Context) error {
	const op = "Migrate"

	pk, realType := "INTEGER PRIMARY KEY AUTOINCREMENT", "REAL"
	if s.postgres {
		pk, realType = "BIGSERIAL PRIMARY KEY", "DOUBLE PRECISION"
	}
	replacer := strings.NewReplacer("{{PK}}", pk, "{{REAL}}", realType)

	return s.WithTx(ctx, func(tx *Tx) error {
		for _, stmt := range schema {
			if _, err := tx.exec(ctx, replacer.Replace(stmt)); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}
		for _, c := range defaultCurrencies {
			if err := tx.InsertCurrency(ctx, c.code, c.name, c.symbol, c.crypto); err != nil {
				return fmt.Errorf("%s: seed currency %s: %w", op, c.code, err)
			}
		}
		s.log.Info().
			Int("statements", len(schema)).
			Int("currencies", len(defaultCurrencies)).
			Msg("Schema migrated")
		return nil
	})
}
