package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"invoicing/internal/money"
	"invoicing/pkg/models"
)

const expenseColumns = `e.id, e.expense_number, e.expense_date, e.title, e.category, e.payment_method_id,
	e.amount, e.notes, m.name`

func scanExpense(row rowScanner) (*models.Expense, error) {
	var (
		e                      models.Expense
		category, notes, mname sql.NullString
		methodID               sql.NullInt64
		amount                 float64
	)
	if err := row.Scan(&e.ID, &e.Number, &e.Date, &e.Title, &category, &methodID, &amount, &notes, &mname); err != nil {
		return nil, err
	}
	e.Category = category.String
	e.MethodID = methodID.Int64
	e.Amount = money.FromFloat(amount)
	e.Notes = notes.String
	e.MethodName = mname.String
	return &e, nil
}

func (c conn) InsertExpense(ctx context.Context, e *models.Expense) (int64, error) {
	id, err := c.insert(ctx, `INSERT INTO expenses
			(expense_number, expense_date, title, category, payment_method_id, amount, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Number, e.Date, e.Title, nullString(e.Category), e.MethodID, money.Float(e.Amount), nullString(e.Notes))
	if err != nil {
		return 0, fmt.Errorf("insert expenses: %w", err)
	}
	return id, nil
}

func (c conn) UpdateExpense(ctx context.Context, e *models.Expense) error {
	res, err := c.exec(ctx, `UPDATE expenses
		SET expense_date = ?, title = ?, category = ?, payment_method_id = ?, amount = ?, notes = ?
		WHERE id = ?`,
		e.Date, e.Title, nullString(e.Category), e.MethodID, money.Float(e.Amount), nullString(e.Notes), e.ID)
	if err != nil {
		return fmt.Errorf("update expenses: %w", err)
	}
	return requireAffected(res)
}

func (c conn) DeleteExpense(ctx context.Context, id int64) error {
	res, err := c.exec(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete expenses: %w", err)
	}
	return requireAffected(res)
}

func (c conn) GetExpense(ctx context.Context, id int64) (*models.Expense, error) {
	e, err := scanExpense(c.queryRow(ctx, `SELECT `+expenseColumns+`
		FROM expenses e LEFT JOIN payment_methods m ON m.id = e.payment_method_id
		WHERE e.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select expenses: %w", err)
	}
	return e, nil
}

// ListExpenses returns expenses newest first. Search matches number, date, title, category,
// method name or notes.
func (c conn) ListExpenses(ctx context.Context, search string) ([]models.Expense, error) {
	query := `SELECT ` + expenseColumns + `
		FROM expenses e LEFT JOIN payment_methods m ON m.id = e.payment_method_id`
	var args []any
	if search != "" {
		query += ` WHERE LOWER(e.expense_number) LIKE ?
			OR LOWER(e.expense_date) LIKE ?
			OR LOWER(e.title) LIKE ?
			OR LOWER(COALESCE(e.category, '')) LIKE ?
			OR LOWER(COALESCE(m.name, '')) LIKE ?
			OR LOWER(COALESCE(e.notes, '')) LIKE ?`
		p := likePattern(search)
		args = append(args, p, p, p, p, p, p)
	}
	query += " ORDER BY e.id DESC"

	rows, err := c.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select expenses: %w", err)
	}
	defer rows.Close()

	out := []models.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expenses: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (c conn) ExpenseNumberExists(ctx context.Context, number string) (bool, error) {
	var one int
	err := c.queryRow(ctx, "SELECT 1 FROM expenses WHERE expense_number = ? LIMIT 1", number).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check expense_number: %w", err)
	}
	return true, nil
}
