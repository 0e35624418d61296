// Package money holds the decimal helpers used by every calculation in the ledger.
//
// Amounts are decimal.Decimal inside the core. Floats only appear when values are
// read from or written to the store.
package money

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	Hundred = decimal.NewFromInt(100)
	One     = decimal.NewFromInt(1)
)

// ParseOrDefault parses a user-supplied number. Blank or unparseable input yields def.
func ParseOrDefault(raw string, def decimal.Decimal) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return def
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return def
	}
	return d
}

// FromFloat converts a stored float to a decimal using the shortest exact representation.
func FromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// Float converts for storage.
func Float(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// Format renders an amount with two decimals.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Min returns the smaller of a and b.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Input is a raw numeric field from a request body. It accepts JSON strings and numbers so that
// a form value like "" or "abc" reaches ParseOrDefault instead of failing the whole request.
type Input string

func (in *Input) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*in = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*in = Input(s)
		return nil
	}
	*in = Input(b)
	return nil
}

// Or parses the input with a default.
func (in Input) Or(def decimal.Decimal) decimal.Decimal {
	return ParseOrDefault(string(in), def)
}
