// Package vat recognizes VAT on a cash basis: a document contributes the share of its VAT that
// matches the share of its total already settled, bucketed by the calendar quarter of its date.
package vat

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"invoicing/internal/money"
	"invoicing/pkg/models"
)

// UnknownQuarter buckets documents whose date cannot be parsed.
const UnknownQuarter = "Unknown"

const (
	SalesVAT    = "Sales VAT"
	PurchaseVAT = "Purchase VAT"
)

// QuarterKey returns "YYYY-Qn" for a dash separated date, or UnknownQuarter. The month may lack
// its leading zero.
func QuarterKey(date string) string {
	if len(date) < 7 {
		return UnknownQuarter
	}
	parts := strings.SplitN(date, "-", 3)
	if len(parts) < 2 {
		return UnknownQuarter
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return UnknownQuarter
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return UnknownQuarter
	}
	return fmt.Sprintf("%04d-Q%d", year, (month-1)/3+1)
}

// Ratio is settled/total capped at 1. Nothing settled, or a non-positive total, gives 0.
func Ratio(total, settled decimal.Decimal) decimal.Decimal {
	if !settled.IsPositive() || !total.IsPositive() {
		return decimal.Zero
	}
	return money.Min(settled.Div(total), money.One)
}

// Recognize returns the VAT attributable to the settled amount. The multiplication happens before
// the division so that 180 × 500 / 1000 is exactly 90.
func Recognize(total, vatTotal, settled decimal.Decimal) decimal.Decimal {
	if !settled.IsPositive() || !total.IsPositive() {
		return decimal.Zero
	}
	if settled.GreaterThanOrEqual(total) {
		return vatTotal
	}
	return vatTotal.Mul(settled).Div(total)
}

// Entry is one qualifying document.
type Entry struct {
	Date          string          `json:"date"`
	Quarter       string          `json:"quarter"`
	Type          string          `json:"type"`
	Reference     string          `json:"reference"`
	Party         string          `json:"party"`
	Total         decimal.Decimal `json:"total"`
	VATTotal      decimal.Decimal `json:"vat_total"`
	Settled       decimal.Decimal `json:"settled"`
	Ratio         decimal.Decimal `json:"ratio"`
	RecognizedVAT decimal.Decimal `json:"recognized_vat"`
}

type Quarter struct {
	Key       string          `json:"quarter"`
	OutputVAT decimal.Decimal `json:"output_vat"` // sales
	InputVAT  decimal.Decimal `json:"input_vat"`  // purchases
	NetVAT    decimal.Decimal `json:"net_vat"`
}

type Report struct {
	Entries     []Entry         `json:"entries"`
	Quarters    []Quarter       `json:"quarters"`
	ReceivedVAT decimal.Decimal `json:"received_vat"`
	PaidVAT     decimal.Decimal `json:"paid_vat"`
	Balance     decimal.Decimal `json:"balance"`
}

// Build recognizes VAT for invoices and purchases. settled maps a kind to the settled sum per
// document id; a missing id counts as nothing settled.
func Build(invoices, purchases []models.Document, settled map[models.DocumentKind]map[int64]decimal.Decimal) Report {
	r := Report{
		Entries:     []Entry{},
		Quarters:    []Quarter{},
		ReceivedVAT: decimal.Zero,
		PaidVAT:     decimal.Zero,
	}
	quarters := make(map[string]*Quarter)

	add := func(doc models.Document) {
		if !doc.Total.IsPositive() || !doc.VATTotal.IsPositive() {
			return
		}
		paid := settled[doc.Kind][doc.ID]
		recognized := Recognize(doc.Total, doc.VATTotal, paid)
		key := QuarterKey(doc.Date)

		q, ok := quarters[key]
		if !ok {
			q = &Quarter{Key: key, OutputVAT: decimal.Zero, InputVAT: decimal.Zero}
			quarters[key] = q
		}

		e := Entry{
			Date:          doc.Date,
			Quarter:       key,
			Reference:     doc.Number,
			Party:         doc.Party.Name,
			Total:         doc.Total,
			VATTotal:      doc.VATTotal,
			Settled:       paid,
			Ratio:         Ratio(doc.Total, paid),
			RecognizedVAT: recognized,
		}
		if doc.Kind == models.KindPurchase {
			e.Type = PurchaseVAT
			if e.Reference == "" {
				e.Reference = fmt.Sprintf("PUR-%d", doc.ID)
			}
			q.InputVAT = q.InputVAT.Add(recognized)
			r.PaidVAT = r.PaidVAT.Add(recognized)
		} else {
			e.Type = SalesVAT
			if e.Reference == "" {
				e.Reference = fmt.Sprintf("INV-%d", doc.ID)
			}
			q.OutputVAT = q.OutputVAT.Add(recognized)
			r.ReceivedVAT = r.ReceivedVAT.Add(recognized)
		}
		if e.Date == "" {
			e.Date = "-"
		}
		if e.Party == "" {
			e.Party = "-"
		}
		r.Entries = append(r.Entries, e)
	}
	for _, doc := range invoices {
		add(doc)
	}
	for _, doc := range purchases {
		add(doc)
	}

	sort.SliceStable(r.Entries, func(i, j int) bool {
		return sortDate(r.Entries[i].Date) > sortDate(r.Entries[j].Date)
	})

	for _, q := range quarters {
		q.NetVAT = q.OutputVAT.Sub(q.InputVAT)
		r.Quarters = append(r.Quarters, *q)
	}
	sort.Slice(r.Quarters, func(i, j int) bool {
		return r.Quarters[i].Key < r.Quarters[j].Key
	})

	r.Balance = r.ReceivedVAT.Sub(r.PaidVAT)
	return r
}

func sortDate(date string) string {
	if date == "" || date == "-" {
		return "0000-00-00"
	}
	return date
}
