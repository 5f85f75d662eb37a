package cart

import "github.com/shopspring/decimal"

// EffectiveUnitPrice applies the price precedence: the variant price when a
// variant is selected, otherwise the bundle price when the line is a bundle,
// otherwise the item's standalone price. Prices are whatever was captured on
// the line; nothing is re-fetched.
func (l Line) EffectiveUnitPrice() decimal.Decimal {
	if l.VariantID != nil && l.VariantUnitPrice != nil {
		return *l.VariantUnitPrice
	}
	if l.BundleID != nil && l.BundleUnitPrice != nil {
		return *l.BundleUnitPrice
	}
	return l.BaseUnitPrice
}

// Subtotal is quantity times the effective unit price.
func (l Line) Subtotal() decimal.Decimal {
	return l.EffectiveUnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is a published snapshot of the line list with its derived aggregates.
// Aggregates are recomputed on every publish, never cached across mutations.
type Cart struct {
	Lines          []Line          `json:"lines"`
	TotalItemCount int             `json:"total_item_count"`
	TotalPrice     decimal.Decimal `json:"total_price"`
}

func buildCart(lines []Line) Cart {
	total := decimal.Zero
	count := 0
	for _, line := range lines {
		count += line.Quantity
		total = total.Add(line.Subtotal())
	}
	return Cart{
		Lines:          cloneLines(lines),
		TotalItemCount: count,
		TotalPrice:     total,
	}
}
