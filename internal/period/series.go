package period

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Amount is a value booked on a date.
type Amount struct {
	Date  string
	Value decimal.Decimal
}

// Sum adds the amounts dated inside w.
func Sum(amounts []Amount, w Window) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		if w.Contains(a.Date) {
			total = total.Add(a.Value)
		}
	}
	return total
}

// Total adds every amount regardless of date.
func Total(amounts []Amount) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a.Value)
	}
	return total
}

// monthKey returns the "YYYY-MM" prefix of an ISO date, or "" when there is none.
func monthKey(date string) string {
	if len(date) < 7 {
		return ""
	}
	return date[:7]
}

// TrailingMonths returns n "YYYY-MM" keys ending with the month of today, oldest first.
func TrailingMonths(today time.Time, n int) []string {
	first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	keys := make([]string, n)
	for i := 0; i < n; i++ {
		keys[i] = first.AddDate(0, i-n+1, 0).Format("2006-01")
	}
	return keys
}

// MonthLabel renders "2024-01" as "Jan 2024". Keys that do not parse are returned unchanged.
func MonthLabel(key string) string {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return key
	}
	return t.Format("Jan 2006")
}

// MonthPoint is one month of the dashboard chart.
type MonthPoint struct {
	Key       string          `json:"key"`
	Label     string          `json:"label"`
	Sales     decimal.Decimal `json:"sales"`
	Purchases decimal.Decimal `json:"purchases"`
	Expenses  decimal.Decimal `json:"expenses"`
	Net       decimal.Decimal `json:"net"`
}

func byMonth(amounts []Amount) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, a := range amounts {
		if key := monthKey(a.Date); key != "" {
			out[key] = out[key].Add(a.Value)
		}
	}
	return out
}

// BuildSeries returns the trailing 12 months ending with the month of today. Months without
// activity are zero.
func BuildSeries(today time.Time, sales, purchases, expenses []Amount) []MonthPoint {
	s, p, e := byMonth(sales), byMonth(purchases), byMonth(expenses)
	keys := TrailingMonths(today, 12)
	points := make([]MonthPoint, 0, len(keys))
	for _, key := range keys {
		pt := MonthPoint{
			Key:       key,
			Label:     MonthLabel(key),
			Sales:     s[key],
			Purchases: p[key],
			Expenses:  e[key],
		}
		pt.Net = pt.Sales.Sub(pt.Purchases).Sub(pt.Expenses)
		points = append(points, pt)
	}
	return points
}

// Turnover is one row of the monthly or yearly report series.
type Turnover struct {
	Period   string          `json:"period"`
	Sold     decimal.Decimal `json:"sold"`
	Bought   decimal.Decimal `json:"bought"`
	Expenses decimal.Decimal `json:"expenses"`
	Turnover decimal.Decimal `json:"turnover"` // sold − bought − expenses
}

func rollup(key func(date string) string, sold, bought, expenses []Amount) []Turnover {
	rows := make(map[string]*Turnover)
	get := func(k string) *Turnover {
		r, ok := rows[k]
		if !ok {
			r = &Turnover{Period: k, Sold: decimal.Zero, Bought: decimal.Zero, Expenses: decimal.Zero}
			rows[k] = r
		}
		return r
	}
	for _, a := range sold {
		if k := key(a.Date); k != "" {
			r := get(k)
			r.Sold = r.Sold.Add(a.Value)
		}
	}
	for _, a := range bought {
		if k := key(a.Date); k != "" {
			r := get(k)
			r.Bought = r.Bought.Add(a.Value)
		}
	}
	for _, a := range expenses {
		if k := key(a.Date); k != "" {
			r := get(k)
			r.Expenses = r.Expenses.Add(a.Value)
		}
	}

	out := make([]Turnover, 0, len(rows))
	for _, r := range rows {
		r.Turnover = r.Sold.Sub(r.Bought).Sub(r.Expenses)
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

// Monthly groups amounts by "YYYY-MM". Undated amounts are skipped.
func Monthly(sold, bought, expenses []Amount) []Turnover {
	return rollup(monthKey, sold, bought, expenses)
}

// Yearly groups amounts by "YYYY". Undated amounts are skipped.
func Yearly(sold, bought, expenses []Amount) []Turnover {
	return rollup(func(date string) string {
		if k := monthKey(date); k != "" {
			return k[:4]
		}
		return ""
	}, sold, bought, expenses)
}
