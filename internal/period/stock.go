package period

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"invoicing/pkg/models"
)

const (
	// LowStockThreshold flags items whose available quantity is at or below it.
	LowStockThreshold = 5
	// MaxStockAlerts caps the dashboard alert list.
	MaxStockAlerts = 5
)

// ItemKey matches purchase and sale lines of the same item: by id when present, else by name.
func ItemKey(itemID *int64, name string) string {
	if itemID != nil {
		return fmt.Sprintf("id:%d", *itemID)
	}
	return "name:" + strings.ToLower(strings.TrimSpace(name))
}

type StockAlert struct {
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	Available decimal.Decimal `json:"available"`
}

// StockAlerts returns the items with the lowest available quantity, at most MaxStockAlerts.
func StockAlerts(purchased, sold []models.ItemMovement) []StockAlert {
	type stock struct {
		name, unit string
		qty        decimal.Decimal
	}
	items := make(map[string]*stock)
	order := []string{}
	apply := func(moves []models.ItemMovement, sign int64) {
		for _, m := range moves {
			key := ItemKey(m.ItemID, m.Name)
			s, ok := items[key]
			if !ok {
				s = &stock{name: "-", unit: "pcs", qty: decimal.Zero}
				items[key] = s
				order = append(order, key)
			}
			if name := strings.TrimSpace(m.Name); name != "" {
				s.name = name
			}
			if unit := strings.TrimSpace(m.Unit); unit != "" {
				s.unit = unit
			}
			s.qty = s.qty.Add(m.Quantity.Mul(decimal.NewFromInt(sign)))
		}
	}
	apply(purchased, 1)
	apply(sold, -1)

	threshold := decimal.NewFromInt(LowStockThreshold)
	alerts := []StockAlert{}
	for _, key := range order {
		s := items[key]
		if s.qty.LessThanOrEqual(threshold) {
			alerts = append(alerts, StockAlert{Name: s.name, Unit: s.unit, Available: s.qty})
		}
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Available.LessThan(alerts[j].Available)
	})
	if len(alerts) > MaxStockAlerts {
		alerts = alerts[:MaxStockAlerts]
	}
	return alerts
}

// Asset is the stock position of one item.
type Asset struct {
	Name             string          `json:"name"`
	Unit             string          `json:"unit"`
	PurchasedQty     decimal.Decimal `json:"purchased_qty"`
	SoldQty          decimal.Decimal `json:"sold_qty"`
	AvailableQty     decimal.Decimal `json:"available_qty"`
	AverageCost      decimal.Decimal `json:"average_cost"`
	StockValue       decimal.Decimal `json:"stock_value"`
	LastPurchaseDate string          `json:"last_purchase_date,omitempty"`
	LastSaleDate     string          `json:"last_sale_date,omitempty"`

	purchaseValue decimal.Decimal
}

type Assets struct {
	Items             []Asset         `json:"items"`
	TotalStockValue   decimal.Decimal `json:"total_stock_value"`
	TotalAvailableQty decimal.Decimal `json:"total_available_qty"`
}

// BuildAssets rolls purchase and sale lines up per item. Movements are expected oldest first so
// that the last dates win. search filters on the item name, case-insensitively.
func BuildAssets(purchased, sold []models.ItemMovement, search string) Assets {
	items := make(map[string]*Asset)
	get := func(m models.ItemMovement) *Asset {
		key := ItemKey(m.ItemID, m.Name)
		a, ok := items[key]
		if !ok {
			a = &Asset{
				Name:          "Unnamed Item",
				Unit:          "1",
				PurchasedQty:  decimal.Zero,
				SoldQty:       decimal.Zero,
				purchaseValue: decimal.Zero,
			}
			items[key] = a
		}
		if m.Name != "" {
			a.Name = m.Name
		}
		if m.Unit != "" {
			a.Unit = m.Unit
		}
		return a
	}
	for _, m := range purchased {
		a := get(m)
		a.PurchasedQty = a.PurchasedQty.Add(m.Quantity)
		a.purchaseValue = a.purchaseValue.Add(m.Quantity.Mul(m.Price))
		a.LastPurchaseDate = m.Date
	}
	for _, m := range sold {
		a := get(m)
		a.SoldQty = a.SoldQty.Add(m.Quantity)
		a.LastSaleDate = m.Date
	}

	search = strings.ToLower(strings.TrimSpace(search))
	out := Assets{Items: []Asset{}, TotalStockValue: decimal.Zero, TotalAvailableQty: decimal.Zero}
	for _, a := range items {
		if search != "" && !strings.Contains(strings.ToLower(a.Name), search) {
			continue
		}
		a.AvailableQty = a.PurchasedQty.Sub(a.SoldQty)
		a.AverageCost = decimal.Zero
		if a.PurchasedQty.IsPositive() {
			a.AverageCost = a.purchaseValue.Div(a.PurchasedQty)
		}
		a.StockValue = a.AvailableQty.Mul(a.AverageCost)
		out.Items = append(out.Items, *a)
		out.TotalStockValue = out.TotalStockValue.Add(a.StockValue)
		out.TotalAvailableQty = out.TotalAvailableQty.Add(a.AvailableQty)
	}
	sort.SliceStable(out.Items, func(i, j int) bool {
		return strings.ToLower(out.Items[i].Name) < strings.ToLower(out.Items[j].Name)
	})
	return out
}
