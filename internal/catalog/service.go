package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdantmarket/cartsync/internal/cart"
	"github.com/verdantmarket/cartsync/pkg/db/models"
	pkgerrors "github.com/verdantmarket/cartsync/pkg/errors"
)

// Service resolves a line configuration into the display fields and prices
// captured on a new cart line. The cart engine trusts this snapshot and never
// queries the catalog again for an existing line.
type Service interface {
	ResolveLine(ctx context.Context, itemID uuid.UUID, variantID, bundleID *uuid.UUID) (cart.LineData, error)
}

type service struct {
	db *gorm.DB
}

// NewService builds a catalog resolver over the shared DB handle.
func NewService(db *gorm.DB) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle required")
	}
	return &service{db: db}, nil
}

func (s *service) ResolveLine(ctx context.Context, itemID uuid.UUID, variantID, bundleID *uuid.UUID) (cart.LineData, error) {
	if variantID != nil && bundleID != nil {
		return cart.LineData{}, pkgerrors.New(pkgerrors.CodeValidation, "line cannot reference both a variant and a bundle")
	}

	var product models.Product
	err := s.db.WithContext(ctx).First(&product, "id = ?", itemID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return cart.LineData{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return cart.LineData{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return cart.LineData{}, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}

	data := cart.LineData{
		Name:          product.Name,
		ImageURL:      product.ImageURL,
		BrandName:     product.BrandName,
		BaseUnitPrice: product.PriceAmount,
	}

	if variantID != nil {
		var variant models.ProductVariant
		err := s.db.WithContext(ctx).First(&variant, "id = ? AND product_id = ?", *variantID, itemID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return cart.LineData{}, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found for product")
			}
			return cart.LineData{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
		}
		label := variant.Label
		price := variant.PriceAmount
		data.VariantLabel = &label
		data.VariantUnitPrice = &price
	}

	if bundleID != nil {
		var bundle models.ProductBundle
		err := s.db.WithContext(ctx).First(&bundle, "id = ?", *bundleID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return cart.LineData{}, pkgerrors.New(pkgerrors.CodeNotFound, "bundle not found")
			}
			return cart.LineData{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bundle")
		}
		label := bundle.Label
		price := bundle.PriceAmount
		data.BundleLabel = &label
		data.BundleUnitPrice = &price
	}

	return data, nil
}
