package documents

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"invoicing/internal/money"
	"invoicing/pkg/models"
)

// DefaultUnit is stored when a line is submitted without a unit.
const DefaultUnit = "1"

// LineInput is one submitted line before parsing. Numeric fields and the item id are raw user input.
type LineInput struct {
	ItemID     money.Input `json:"item_id,omitempty"`
	Name       string      `json:"name"`
	Quantity   money.Input `json:"quantity"`
	Unit       string      `json:"unit"`
	Price      money.Input `json:"price"`
	VATPercent money.Input `json:"vat_percent"`
}

// Totals is the derived money of a document.
type Totals struct {
	Subtotal decimal.Decimal
	VAT      decimal.Decimal
	Total    decimal.Decimal
}

// ParseLines turns submitted lines into line items. Lines with a blank name are dropped;
// a bad number on one line falls back to its default instead of failing the document.
func ParseLines(inputs []LineInput) []models.LineItem {
	lines := make([]models.LineItem, 0, len(inputs))
	for _, in := range inputs {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			continue
		}
		unit := strings.TrimSpace(in.Unit)
		if unit == "" {
			unit = DefaultUnit
		}
		line := models.LineItem{
			ItemID:     parseItemID(in.ItemID),
			Name:       name,
			Quantity:   in.Quantity.Or(money.One),
			Unit:       unit,
			Price:      in.Price.Or(decimal.Zero),
			VATPercent: in.VATPercent.Or(decimal.Zero),
		}
		_, _, line.LineTotal = LineAmounts(line)
		lines = append(lines, line)
	}
	return lines
}

// parseItemID keeps a positive integer id. Anything else leaves the line without an item.
func parseItemID(raw money.Input) *int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

// LineAmounts computes net, VAT and total of one line.
func LineAmounts(line models.LineItem) (net, vat, total decimal.Decimal) {
	net = line.Quantity.Mul(line.Price)
	vat = net.Mul(line.VATPercent).Shift(-2)
	return net, vat, net.Add(vat)
}

// ComputeTotals derives subtotal, VAT and total from lines. total == subtotal + vat exactly.
func ComputeTotals(lines []models.LineItem) Totals {
	var t Totals
	for _, line := range lines {
		net, vat, _ := LineAmounts(line)
		t.Subtotal = t.Subtotal.Add(net)
		t.VAT = t.VAT.Add(vat)
	}
	t.Total = t.Subtotal.Add(t.VAT)
	return t
}
