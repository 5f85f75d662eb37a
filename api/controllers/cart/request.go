package cart

import (
	"context"

	"github.com/verdantmarket/cartsync/api/controllers/cart/dto"
	cartsvc "github.com/verdantmarket/cartsync/internal/cart"
	"github.com/verdantmarket/cartsync/internal/catalog"
)

// toAddLineInput resolves the catalog snapshot for the requested
// configuration and pairs it with the payload.
func toAddLineInput(ctx context.Context, catalogSvc catalog.Service, payload dto.AddLineRequest) (cartsvc.AddLineInput, error) {
	data, err := catalogSvc.ResolveLine(ctx, payload.ItemID, payload.VariantID, payload.BundleID)
	if err != nil {
		return cartsvc.AddLineInput{}, err
	}
	return cartsvc.AddLineInput{
		ItemID:    payload.ItemID,
		VariantID: payload.VariantID,
		BundleID:  payload.BundleID,
		Quantity:  payload.Quantity,
		Data:      data,
	}, nil
}
