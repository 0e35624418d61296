// Package reports derives the dashboard, the lifetime report and the asset rollup from a
// snapshot of the store. Everything after the snapshot is a pure function of it.
package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"invoicing/internal/logger"
	"invoicing/internal/period"
	"invoicing/internal/store"
	"invoicing/pkg/models"
)

type Service struct {
	store *store.Store
	now   func() time.Time
	log   zerolog.Logger
}

func NewService(s *store.Store) *Service {
	return &Service{
		store: s,
		now:   time.Now,
		log:   logger.WithComponent("reports"),
	}
}

// Dashboard builds the dashboard for the period keyword anchored at today.
func (s *Service) Dashboard(ctx context.Context, keyword string) (*Dashboard, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("reports.Dashboard: %w", err)
	}
	g := period.ParseGranularity(keyword)
	d := BuildDashboard(snap, g, s.now())

	s.log.Debug().
		Str("period", string(g)).
		Str("start", d.Window.Start).
		Str("end", d.Window.End).
		Msg("Dashboard built")

	return d, nil
}

// Report builds the lifetime report.
func (s *Service) Report(ctx context.Context) (*Report, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("reports.Report: %w", err)
	}
	r := BuildReport(snap)
	r.GeneratedAt = s.now()
	return r, nil
}

// Assets rolls up stock per item, filtered by name.
func (s *Service) Assets(ctx context.Context, search string) (*period.Assets, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("reports.Assets: %w", err)
	}
	a := period.BuildAssets(snap.Purchased, snap.Sold, search)
	return &a, nil
}

func documentAmounts(docs []models.Document) []period.Amount {
	out := make([]period.Amount, 0, len(docs))
	for _, doc := range docs {
		out = append(out, period.Amount{Date: doc.Date, Value: doc.Total})
	}
	return out
}

func expenseAmounts(exps []models.Expense) []period.Amount {
	out := make([]period.Amount, 0, len(exps))
	for _, e := range exps {
		out = append(out, period.Amount{Date: e.Date, Value: e.Amount})
	}
	return out
}

// settledBy sums settling transactions per document of kind. A non-empty cutoff keeps only
// transactions dated on or before it.
func settledBy(txs []models.Transaction, kind models.DocumentKind, cutoff string) map[int64]decimal.Decimal {
	out := make(map[int64]decimal.Decimal)
	for _, t := range txs {
		if t.Reference == nil || t.Reference.Kind != kind || t.Kind != kind.SettlingKind() {
			continue
		}
		if cutoff != "" && t.Date > cutoff {
			continue
		}
		out[t.Reference.ID] = out[t.Reference.ID].Add(t.Amount)
	}
	return out
}

// outstanding is Σ total − Σ settled over docs, not floored per document. A non-empty cutoff
// keeps only documents dated on or before it; settled must already carry the same cutoff.
func outstanding(docs []models.Document, settled map[int64]decimal.Decimal, cutoff string) decimal.Decimal {
	sum := decimal.Zero
	for _, doc := range docs {
		if cutoff != "" && doc.Date > cutoff {
			continue
		}
		sum = sum.Add(doc.Total).Sub(settled[doc.ID])
	}
	return sum
}
