package cart

import (
	"github.com/verdantmarket/cartsync/api/controllers/cart/dto"
	cartsvc "github.com/verdantmarket/cartsync/internal/cart"
)

func newCartView(mode cartsvc.Mode, cart cartsvc.Cart) dto.CartView {
	lines := make([]dto.CartLineView, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		lines = append(lines, dto.CartLineView{
			ItemID:             line.ItemID,
			VariantID:          line.VariantID,
			BundleID:           line.BundleID,
			Quantity:           line.Quantity,
			Name:               line.Name,
			ImageURL:           line.ImageURL,
			BrandName:          line.BrandName,
			VariantLabel:       line.VariantLabel,
			VariantUnitPrice:   line.VariantUnitPrice,
			BundleLabel:        line.BundleLabel,
			BundleUnitPrice:    line.BundleUnitPrice,
			BaseUnitPrice:      line.BaseUnitPrice,
			EffectiveUnitPrice: line.EffectiveUnitPrice(),
			Subtotal:           line.Subtotal(),
		})
	}
	return dto.CartView{
		Mode:           string(mode),
		Lines:          lines,
		TotalItemCount: cart.TotalItemCount,
		TotalPrice:     cart.TotalPrice,
	}
}
