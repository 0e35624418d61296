package store

import (
	"context"
	"fmt"

	"invoicing/pkg/models"
)

// Snapshot is every fact the reports need, read inside one transaction.
type Snapshot struct {
	Invoices     []models.Document // heads only
	Purchases    []models.Document // heads only
	Expenses     []models.Expense
	Transactions []models.Transaction
	Sold         []models.ItemMovement
	Purchased    []models.ItemMovement
}

// Snapshot loads a consistent view of documents, expenses, transactions and item movements.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	const op = "Snapshot"

	var snap Snapshot
	err := s.WithTx(ctx, func(tx *Tx) error {
		var err error
		if snap.Invoices, err = tx.ListDocuments(ctx, models.KindInvoice, ""); err != nil {
			return err
		}
		if snap.Purchases, err = tx.ListDocuments(ctx, models.KindPurchase, ""); err != nil {
			return err
		}
		if snap.Expenses, err = tx.ListExpenses(ctx, ""); err != nil {
			return err
		}
		if snap.Transactions, err = tx.ListTransactions(ctx); err != nil {
			return err
		}
		if snap.Sold, err = tx.ItemMovements(ctx, models.KindInvoice); err != nil {
			return err
		}
		if snap.Purchased, err = tx.ItemMovements(ctx, models.KindPurchase); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Debug().
		Int("invoices", len(snap.Invoices)).
		Int("purchases", len(snap.Purchases)).
		Int("expenses", len(snap.Expenses)).
		Int("transactions", len(snap.Transactions)).
		Msg("Report snapshot loaded")

	return &snap, nil
}
