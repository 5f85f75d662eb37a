package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLineView is the rendered form of one cart line.
type CartLineView struct {
	ItemID             uuid.UUID        `json:"item_id"`
	VariantID          *uuid.UUID       `json:"variant_id,omitempty"`
	BundleID           *uuid.UUID       `json:"bundle_id,omitempty"`
	Quantity           int              `json:"quantity"`
	Name               string           `json:"name"`
	ImageURL           *string          `json:"image_url,omitempty"`
	BrandName          *string          `json:"brand_name,omitempty"`
	VariantLabel       *string          `json:"variant_label,omitempty"`
	VariantUnitPrice   *decimal.Decimal `json:"variant_unit_price,omitempty"`
	BundleLabel        *string          `json:"bundle_label,omitempty"`
	BundleUnitPrice    *decimal.Decimal `json:"bundle_unit_price,omitempty"`
	BaseUnitPrice      decimal.Decimal  `json:"base_unit_price"`
	EffectiveUnitPrice decimal.Decimal  `json:"effective_unit_price"`
	Subtotal           decimal.Decimal  `json:"subtotal"`
}

// CartView is the published cart with its derived aggregates.
type CartView struct {
	Mode           string          `json:"mode"`
	Lines          []CartLineView  `json:"lines"`
	TotalItemCount int             `json:"total_item_count"`
	TotalPrice     decimal.Decimal `json:"total_price"`
}
