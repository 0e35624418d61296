package vat

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicing/pkg/models"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestQuarterKey(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2024-05-15", "2024-Q2"},
		{"2024-01-01", "2024-Q1"},
		{"2024-03-31", "2024-Q1"},
		{"2024-12-31", "2024-Q4"},
		{"2023-07", "2023-Q3"},
		{"2024-5-15", "2024-Q2"},
		{"2024-11-3", "2024-Q4"},
		{"2024/05/15", UnknownQuarter},
		{"", UnknownQuarter},
		{"abc", UnknownQuarter},
		{"abcd-ef-gh", UnknownQuarter},
		{"2024-13-01", UnknownQuarter},
		{"2024-00-10", UnknownQuarter},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			assert.Equal(t, tt.want, QuarterKey(tt.date))
		})
	}
}

func TestRecognize(t *testing.T) {
	tests := []struct {
		name                string
		total, vat, settled string
		wantRatio, wantVAT  string
	}{
		{"half settled", "1000", "180", "500", "0.5", "90"},
		{"nothing settled", "1000", "180", "0", "0", "0"},
		{"negative settlement", "1000", "180", "-50", "0", "0"},
		{"fully settled", "1000", "180", "1000", "1", "180"},
		{"overpaid", "1000", "180", "1500", "1", "180"},
		{"thirds", "300", "54", "100", "0.3333333333333333", "18"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Recognize(d(tt.total), d(tt.vat), d(tt.settled))
			assert.True(t, got.Equal(d(tt.wantVAT)), "recognized %s", got)
			ratio := Ratio(d(tt.total), d(tt.settled))
			assert.True(t, ratio.Equal(d(tt.wantRatio)), "ratio %s", ratio)
		})
	}
}

func TestBuild(t *testing.T) {
	invoices := []models.Document{
		{ID: 1, Kind: models.KindInvoice, Number: "INV-A", Date: "2024-05-15", Party: models.Party{Name: "Acme"}, Total: d("1180"), VATTotal: d("180")},
		{ID: 2, Kind: models.KindInvoice, Date: "2024-01-10", Total: d("118"), VATTotal: d("18")},
		{ID: 3, Kind: models.KindInvoice, Number: "INV-NOVAT", Date: "2024-02-01", Total: d("100"), VATTotal: d("0")},
		{ID: 4, Kind: models.KindInvoice, Number: "INV-NODATE", Total: d("10"), VATTotal: d("1")},
	}
	purchases := []models.Document{
		{ID: 1, Kind: models.KindPurchase, Number: "PUR-A", Date: "2024-04-02", Party: models.Party{Name: "Vendor"}, Total: d("236"), VATTotal: d("36")},
	}
	settled := map[models.DocumentKind]map[int64]decimal.Decimal{
		models.KindInvoice:  {1: d("590"), 2: d("118"), 4: d("10")},
		models.KindPurchase: {1: d("236")},
	}

	r := Build(invoices, purchases, settled)

	require.Len(t, r.Entries, 4)
	assert.Equal(t, "INV-A", r.Entries[0].Reference)
	assert.Equal(t, "PUR-A", r.Entries[1].Reference)
	assert.Equal(t, PurchaseVAT, r.Entries[1].Type)
	assert.Equal(t, "INV-2", r.Entries[2].Reference)
	assert.Equal(t, "-", r.Entries[2].Party)
	assert.Equal(t, "-", r.Entries[3].Date)
	assert.Equal(t, UnknownQuarter, r.Entries[3].Quarter)
	assert.True(t, r.Entries[0].RecognizedVAT.Equal(d("90")))

	require.Len(t, r.Quarters, 3)
	assert.Equal(t, "2024-Q1", r.Quarters[0].Key)
	assert.Equal(t, "2024-Q2", r.Quarters[1].Key)
	assert.Equal(t, UnknownQuarter, r.Quarters[2].Key)
	assert.True(t, r.Quarters[1].OutputVAT.Equal(d("90")))
	assert.True(t, r.Quarters[1].InputVAT.Equal(d("36")))
	assert.True(t, r.Quarters[1].NetVAT.Equal(d("54")))

	assert.True(t, r.ReceivedVAT.Equal(d("109")), r.ReceivedVAT.String())
	assert.True(t, r.PaidVAT.Equal(d("36")))
	assert.True(t, r.Balance.Equal(d("73")))
}

func TestBuildEmpty(t *testing.T) {
	r := Build(nil, nil, nil)
	assert.Empty(t, r.Entries)
	assert.Empty(t, r.Quarters)
	assert.True(t, r.Balance.IsZero())
}

func ExampleRecognize() {
	fmt.Println(Recognize(decimal.NewFromInt(1000), decimal.NewFromInt(180), decimal.NewFromInt(500)))
	// Output: 90
}
