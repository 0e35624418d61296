package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"invoicing/internal/money"
	"invoicing/pkg/models"
)

// InsertTransaction appends a ledger entry and returns its id.
func (c conn) InsertTransaction(ctx context.Context, t *models.Transaction) (int64, error) {
	var refKind, refID any
	if t.Reference != nil {
		refKind, refID = string(t.Reference.Kind), t.Reference.ID
	}
	id, err := c.insert(ctx, `INSERT INTO payment_transactions (
			transaction_date, transaction_type, reference_type, reference_id,
			amount, currency_code, method_id, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Date, string(t.Kind), refKind, refID, money.Float(t.Amount), t.CurrencyCode,
		nullInt(t.MethodID), nullString(t.Notes))
	if err != nil {
		return 0, fmt.Errorf("insert payment_transactions: %w", err)
	}
	return id, nil
}

// ListTransactions returns every entry newest first with the method name resolved.
func (c conn) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	rows, err := c.query(ctx, `SELECT t.id, t.transaction_date, t.transaction_type, t.reference_type,
			t.reference_id, t.amount, t.currency_code, t.method_id, t.notes, m.name
		FROM payment_transactions t
		LEFT JOIN payment_methods m ON m.id = t.method_id
		ORDER BY t.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("select payment_transactions: %w", err)
	}
	defer rows.Close()

	out := []models.Transaction{}
	for rows.Next() {
		var (
			t                     models.Transaction
			kind                  string
			refKind, notes, mname sql.NullString
			refID, methodID       sql.NullInt64
			currency              sql.NullString
			amount                float64
		)
		if err := rows.Scan(&t.ID, &t.Date, &kind, &refKind, &refID, &amount, &currency, &methodID, &notes, &mname); err != nil {
			return nil, fmt.Errorf("scan payment_transactions: %w", err)
		}
		t.Kind = models.TransactionKind(kind)
		if refKind.Valid && refID.Valid {
			t.Reference = &models.Reference{Kind: models.DocumentKind(refKind.String), ID: refID.Int64}
		}
		t.Amount = money.FromFloat(amount)
		t.CurrencyCode = currency.String
		t.MethodID = intPtr(methodID)
		t.Notes = notes.String
		t.MethodName = mname.String
		out = append(out, t)
	}
	return out, rows.Err()
}

func (c conn) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := c.exec(ctx, "DELETE FROM payment_transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete payment_transactions: %w", err)
	}
	return requireAffected(res)
}

// SumTransactions adds the amounts recorded for one document under one kind.
func (c conn) SumTransactions(ctx context.Context, ref models.Reference, kind models.TransactionKind) (decimal.Decimal, error) {
	rows, err := c.query(ctx, `SELECT amount FROM payment_transactions
		WHERE reference_type = ? AND reference_id = ? AND transaction_type = ?`,
		string(ref.Kind), ref.ID, string(kind))
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum payment_transactions: %w", err)
	}
	defer rows.Close()

	sum := decimal.Zero
	for rows.Next() {
		var amount float64
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, fmt.Errorf("scan payment_transactions: %w", err)
		}
		sum = sum.Add(money.FromFloat(amount))
	}
	return sum, rows.Err()
}

// SettledAmounts sums settling transactions per document id for kind. A non-empty cutoff keeps
// only transactions dated on or before it.
func (c conn) SettledAmounts(ctx context.Context, kind models.DocumentKind, cutoff string) (map[int64]decimal.Decimal, error) {
	query := `SELECT reference_id, amount FROM payment_transactions
		WHERE reference_type = ? AND transaction_type = ? AND reference_id IS NOT NULL`
	args := []any{string(kind), string(kind.SettlingKind())}
	if cutoff != "" {
		query += " AND transaction_date <= ?"
		args = append(args, cutoff)
	}
	rows, err := c.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select payment_transactions: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]decimal.Decimal)
	for rows.Next() {
		var (
			id     int64
			amount float64
		)
		if err := rows.Scan(&id, &amount); err != nil {
			return nil, fmt.Errorf("scan payment_transactions: %w", err)
		}
		out[id] = out[id].Add(money.FromFloat(amount))
	}
	return out, rows.Err()
}

// UpdateExpenseTransaction rewrites the auto-created payment of an expense and reports how many
// rows matched.
func (c conn) UpdateExpenseTransaction(ctx context.Context, t *models.Transaction) (int64, error) {
	res, err := c.exec(ctx, `UPDATE payment_transactions
		SET transaction_date = ?, amount = ?, method_id = ?, notes = ?
		WHERE reference_type = ? AND reference_id = ? AND transaction_type = ?`,
		t.Date, money.Float(t.Amount), nullInt(t.MethodID), nullString(t.Notes),
		string(models.KindExpense), t.Reference.ID, string(models.ExpensePayment))
	if err != nil {
		return 0, fmt.Errorf("update payment_transactions: %w", err)
	}
	return res.RowsAffected()
}

// DeleteExpenseTransactions removes the auto-created payment of an expense.
func (c conn) DeleteExpenseTransactions(ctx context.Context, expenseID int64) (int64, error) {
	res, err := c.exec(ctx, `DELETE FROM payment_transactions
		WHERE reference_type = ? AND reference_id = ? AND transaction_type = ?`,
		string(models.KindExpense), expenseID, string(models.ExpensePayment))
	if err != nil {
		return 0, fmt.Errorf("delete payment_transactions: %w", err)
	}
	return res.RowsAffected()
}
