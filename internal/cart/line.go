package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/verdantmarket/cartsync/pkg/errors"
)

// Line is one row of the cart: a quantity of a specific item/variant/bundle
// configuration plus the display fields and prices captured when the line was
// created, so a cart renders without another catalog fetch.
type Line struct {
	ItemID           uuid.UUID        `json:"item_id"`
	VariantID        *uuid.UUID       `json:"variant_id,omitempty"`
	BundleID         *uuid.UUID       `json:"bundle_id,omitempty"`
	Quantity         int              `json:"quantity"`
	Name             string           `json:"name"`
	ImageURL         *string          `json:"image_url,omitempty"`
	BrandName        *string          `json:"brand_name,omitempty"`
	VariantLabel     *string          `json:"variant_label,omitempty"`
	VariantUnitPrice *decimal.Decimal `json:"variant_unit_price,omitempty"`
	BundleLabel      *string          `json:"bundle_label,omitempty"`
	BundleUnitPrice  *decimal.Decimal `json:"bundle_unit_price,omitempty"`
	BaseUnitPrice    decimal.Decimal  `json:"base_unit_price"`
}

// LineKey is the composite identity of a cart line. An absent variant or
// bundle slot is held as uuid.Nil, which never collides with a real id and
// keeps the two "none" slots distinct from each other.
type LineKey struct {
	ItemID    uuid.UUID
	VariantID uuid.UUID
	BundleID  uuid.UUID
}

// ResolveKey computes the stable identity for a line configuration. It is the
// sole arbiter of line uniqueness: two calls with the same triple always yield
// equal keys, and a configuration naming both a variant and a bundle is
// rejected before any state change.
func ResolveKey(itemID uuid.UUID, variantID, bundleID *uuid.UUID) (LineKey, error) {
	if itemID == uuid.Nil {
		return LineKey{}, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if variantID != nil && bundleID != nil {
		return LineKey{}, pkgerrors.New(pkgerrors.CodeValidation, "line cannot reference both a variant and a bundle")
	}
	key := LineKey{ItemID: itemID}
	if variantID != nil {
		key.VariantID = *variantID
	}
	if bundleID != nil {
		key.BundleID = *bundleID
	}
	return key, nil
}

// Key returns the identity of an already validated line.
func (l Line) Key() LineKey {
	key := LineKey{ItemID: l.ItemID}
	if l.VariantID != nil {
		key.VariantID = *l.VariantID
	}
	if l.BundleID != nil {
		key.BundleID = *l.BundleID
	}
	return key
}

// LineData carries the catalog snapshot attached to a new line.
type LineData struct {
	Name             string
	ImageURL         *string
	BrandName        *string
	VariantLabel     *string
	VariantUnitPrice *decimal.Decimal
	BundleLabel      *string
	BundleUnitPrice  *decimal.Decimal
	BaseUnitPrice    decimal.Decimal
}

// AddLineInput is the payload for adding one line configuration.
type AddLineInput struct {
	ItemID    uuid.UUID
	VariantID *uuid.UUID
	BundleID  *uuid.UUID
	Quantity  int
	Data      LineData
}

// newLine validates the input and builds a fresh line with quantity applied.
func newLine(input AddLineInput, quantity int) (Line, error) {
	if _, err := ResolveKey(input.ItemID, input.VariantID, input.BundleID); err != nil {
		return Line{}, err
	}
	if input.Data.Name == "" {
		return Line{}, pkgerrors.New(pkgerrors.CodeValidation, "line name is required")
	}
	if input.VariantID != nil && input.Data.VariantUnitPrice == nil {
		return Line{}, pkgerrors.New(pkgerrors.CodeValidation, "variant price is required for a variant line")
	}
	if input.BundleID != nil && input.Data.BundleUnitPrice == nil {
		return Line{}, pkgerrors.New(pkgerrors.CodeValidation, "bundle price is required for a bundle line")
	}
	return Line{
		ItemID:           input.ItemID,
		VariantID:        input.VariantID,
		BundleID:         input.BundleID,
		Quantity:         quantity,
		Name:             input.Data.Name,
		ImageURL:         input.Data.ImageURL,
		BrandName:        input.Data.BrandName,
		VariantLabel:     input.Data.VariantLabel,
		VariantUnitPrice: input.Data.VariantUnitPrice,
		BundleLabel:      input.Data.BundleLabel,
		BundleUnitPrice:  input.Data.BundleUnitPrice,
		BaseUnitPrice:    input.Data.BaseUnitPrice,
	}, nil
}

func cloneLines(lines []Line) []Line {
	if lines == nil {
		return nil
	}
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}
