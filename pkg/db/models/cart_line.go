package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine persists one authenticated cart line, scoped by user. The display
// fields and prices are snapshots captured when the line was created so the
// cart renders without a second catalog fetch.
type CartLine struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID        `gorm:"column:user_id;type:uuid;not null;index:idx_cart_lines_user_id"`
	ItemID           uuid.UUID        `gorm:"column:item_id;type:uuid;not null"`
	VariantID        *uuid.UUID       `gorm:"column:variant_id;type:uuid"`
	BundleID         *uuid.UUID       `gorm:"column:bundle_id;type:uuid"`
	Quantity         int              `gorm:"column:quantity;not null"`
	Position         int              `gorm:"column:position;not null;default:0"`
	Name             string           `gorm:"column:name;not null"`
	ImageURL         *string          `gorm:"column:image_url"`
	BrandName        *string          `gorm:"column:brand_name"`
	VariantLabel     *string          `gorm:"column:variant_label"`
	VariantUnitPrice *decimal.Decimal `gorm:"column:variant_unit_price;type:numeric(12,2)"`
	BundleLabel      *string          `gorm:"column:bundle_label"`
	BundleUnitPrice  *decimal.Decimal `gorm:"column:bundle_unit_price;type:numeric(12,2)"`
	BaseUnitPrice    decimal.Decimal  `gorm:"column:base_unit_price;type:numeric(12,2);not null"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
