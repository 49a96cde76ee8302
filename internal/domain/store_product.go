package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StoreProduct binds a product, or one of its variants, to a store. At most one
// row exists per (store, product, variant-or-null).
type StoreProduct struct {
	ID        string           `json:"id"`
	StoreID   string           `json:"storeId"`
	ProductID string           `json:"productId"`
	VariantID *string          `json:"variantId,omitempty"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Stock     *int             `json:"stock,omitempty"`
	Active    bool             `json:"active"`
	CreatedAt time.Time        `json:"createdAt"`
}

// SameVariant reports whether the override targets the given variant id, where
// nil stands for the base product.
func (sp StoreProduct) SameVariant(variantID *string) bool {
	if sp.VariantID == nil || variantID == nil {
		return sp.VariantID == nil && variantID == nil
	}
	return *sp.VariantID == *variantID
}
