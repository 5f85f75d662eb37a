package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func decPtr(value string) *decimal.Decimal {
	d := decimal.RequireFromString(value)
	return &d
}

func TestEffectiveUnitPricePrecedence(t *testing.T) {
	variantID := uuid.New()
	bundleID := uuid.New()

	variantLine := Line{
		ItemID:           uuid.New(),
		VariantID:        &variantID,
		VariantUnitPrice: decPtr("150.00"),
		BaseUnitPrice:    decimal.RequireFromString("100.00"),
	}
	if got := variantLine.EffectiveUnitPrice(); !got.Equal(decimal.RequireFromString("150.00")) {
		t.Fatalf("variant price should win, got %s", got)
	}

	bundleLine := Line{
		ItemID:          uuid.New(),
		BundleID:        &bundleID,
		BundleUnitPrice: decPtr("80.00"),
		BaseUnitPrice:   decimal.RequireFromString("100.00"),
	}
	if got := bundleLine.EffectiveUnitPrice(); !got.Equal(decimal.RequireFromString("80.00")) {
		t.Fatalf("bundle price should win over base, got %s", got)
	}

	baseLine := Line{
		ItemID:        uuid.New(),
		BaseUnitPrice: decimal.RequireFromString("42.50"),
	}
	if got := baseLine.EffectiveUnitPrice(); !got.Equal(decimal.RequireFromString("42.50")) {
		t.Fatalf("base price expected, got %s", got)
	}
}

func TestSubtotal(t *testing.T) {
	line := Line{
		ItemID:        uuid.New(),
		Quantity:      3,
		BaseUnitPrice: decimal.RequireFromString("19.99"),
	}
	if got := line.Subtotal(); !got.Equal(decimal.RequireFromString("59.97")) {
		t.Fatalf("unexpected subtotal %s", got)
	}
}

func TestBuildCartAggregates(t *testing.T) {
	variantID := uuid.New()
	lines := []Line{
		{ItemID: uuid.New(), Quantity: 2, BaseUnitPrice: decimal.RequireFromString("100.00")},
		{ItemID: uuid.New(), VariantID: &variantID, Quantity: 1, VariantUnitPrice: decPtr("150.00"), BaseUnitPrice: decimal.RequireFromString("90.00")},
	}

	cart := buildCart(lines)
	if cart.TotalItemCount != 3 {
		t.Fatalf("expected item count 3, got %d", cart.TotalItemCount)
	}
	if !cart.TotalPrice.Equal(decimal.RequireFromString("350.00")) {
		t.Fatalf("expected total 350.00, got %s", cart.TotalPrice)
	}

	// The snapshot is a copy; mutating it must not leak back.
	cart.Lines[0].Quantity = 99
	if lines[0].Quantity != 2 {
		t.Fatal("cart snapshot aliases the source slice")
	}
}

func TestBuildCartEmpty(t *testing.T) {
	cart := buildCart(nil)
	if cart.TotalItemCount != 0 {
		t.Fatalf("expected zero count, got %d", cart.TotalItemCount)
	}
	if !cart.TotalPrice.Equal(decimal.Zero) {
		t.Fatalf("expected zero total, got %s", cart.TotalPrice)
	}
}
