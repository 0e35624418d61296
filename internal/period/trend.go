package period

import (
	"github.com/shopspring/decimal"
)

type Style string

const (
	Favorable   Style = "favorable"
	Unfavorable Style = "unfavorable"
	Neutral     Style = "neutral"
)

// Trend compares a value with the previous period.
type Trend struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Style Style  `json:"style"`
}

var hundred = decimal.NewFromInt(100)

// CompareTrend labels the change from previous to current. When previous is zero the absolute
// difference is shown instead of a percentage. positiveIsGood decides whether a rise is favorable.
func CompareTrend(current, previous decimal.Decimal, positiveIsGood bool) Trend {
	diff := current.Sub(previous)
	if diff.IsZero() {
		return Trend{Label: "No change", Icon: "→", Style: Neutral}
	}

	t := Trend{Icon: "↑"}
	if diff.IsNegative() {
		t.Icon = "↓"
	}

	if previous.IsZero() {
		sign := "+"
		if diff.IsNegative() {
			sign = "-"
		}
		t.Label = sign + diff.Abs().StringFixed(2) + " vs prev"
	} else {
		pct := diff.Div(previous).Mul(hundred)
		sign := ""
		if pct.IsPositive() {
			sign = "+"
		}
		t.Label = sign + pct.StringFixed(1) + "% vs prev"
	}

	if diff.IsPositive() == positiveIsGood {
		t.Style = Favorable
	} else {
		t.Style = Unfavorable
	}
	return t
}
