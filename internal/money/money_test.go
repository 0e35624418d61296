package money

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrDefault(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		def  decimal.Decimal
		want string
	}{
		{"blank uses default", "", One, "1"},
		{"spaces use default", "   ", decimal.Zero, "0"},
		{"garbage uses default", "12abc", One, "1"},
		{"plain number", "12.50", decimal.Zero, "12.5"},
		{"negative", "-3", decimal.Zero, "-3"},
		{"trimmed", " 7 ", decimal.Zero, "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseOrDefault(tt.raw, tt.def)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestInputAcceptsStringsAndNumbers(t *testing.T) {
	var body struct {
		A Input `json:"a"`
		B Input `json:"b"`
		C Input `json:"c"`
		D Input `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"2.5","b":3,"c":null,"d":"x"}`), &body))

	assert.Equal(t, "2.5", body.A.Or(decimal.Zero).String())
	assert.Equal(t, "3", body.B.Or(decimal.Zero).String())
	assert.Equal(t, "1", body.C.Or(One).String())
	assert.Equal(t, "0", body.D.Or(decimal.Zero).String())
}

func TestFloatRoundTrip(t *testing.T) {
	d := decimal.RequireFromString("1234.57")
	assert.True(t, FromFloat(Float(d)).Equal(d))
}

func ExampleFormat() {
	fmt.Println(Format(decimal.RequireFromString("10")))
	fmt.Println(Format(decimal.RequireFromString("0.125")))
	// Output:
	// 10.00
	// 0.13
}

func TestMin(t *testing.T) {
	a, b := decimal.RequireFromString("1.5"), decimal.RequireFromString("2")
	assert.True(t, Min(a, b).Equal(a))
	assert.True(t, Min(b, a).Equal(a))
	assert.True(t, Min(b, b).Equal(b))
}
