package domain

import "github.com/shopspring/decimal"

// ListingRow is one joined candidate read from the record source: the store
// override together with the product and variant it refers to.
type ListingRow struct {
	Store        Store
	StoreProduct StoreProduct
	Product      Product
	Variant      VariantRef
}

// EffectiveListing is the merged, caller-facing view of what a store offers.
type EffectiveListing struct {
	StoreProductID string           `json:"storeProductId"`
	StoreID        string           `json:"storeId"`
	ProductID      string           `json:"productId"`
	VariantID      *string          `json:"variantId"`
	Slug           string           `json:"slug"`
	Name           string           `json:"name"`
	Brand          string           `json:"brand,omitempty"`
	Category       string           `json:"category,omitempty"`
	Strain         string           `json:"strain,omitempty"`
	VariantName    string           `json:"variantName,omitempty"`
	SKU            string           `json:"sku,omitempty"`
	Price          *decimal.Decimal `json:"price"`
	Stock          int              `json:"stock"`
	THCPercent     *float64         `json:"thcPercent"`
	CBDPercent     *float64         `json:"cbdPercent"`
}

// ListingPage is one page of effective listings plus pagination metadata.
type ListingPage struct {
	Items      []EffectiveListing `json:"items"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	Total      int                `json:"total"`
	TotalPages int                `json:"totalPages"`
}

// ProductDetail lists every sellable configuration of a product for one store.
type ProductDetail struct {
	ProductID string          `json:"productId"`
	StoreID   string          `json:"storeId"`
	Slug      string          `json:"slug"`
	Name      string          `json:"name"`
	Brand     string          `json:"brand,omitempty"`
	Category  string          `json:"category,omitempty"`
	Strain    string          `json:"strain,omitempty"`
	Variants  []DetailVariant `json:"variants"`
}

// DetailVariant is the resolved view of one variant, or the implicit base
// variant, at a store. Available is false when the store has no active
// override for it.
type DetailVariant struct {
	VariantID      *string          `json:"variantId"`
	StoreProductID *string          `json:"storeProductId,omitempty"`
	Name           string           `json:"name,omitempty"`
	SKU            string           `json:"sku,omitempty"`
	Price          *decimal.Decimal `json:"price"`
	Stock          int              `json:"stock"`
	THCPercent     *float64         `json:"thcPercent"`
	CBDPercent     *float64         `json:"cbdPercent"`
	Available      bool             `json:"available"`
}

// ResolvePrice picks the most specific price: store override, then variant,
// then the product default. Nil when no layer sets one.
func ResolvePrice(sp *StoreProduct, v VariantRef, p Product) *decimal.Decimal {
	if sp != nil && sp.Price != nil {
		return sp.Price
	}
	if variant, ok := v.Get(); ok && variant.Price != nil {
		return variant.Price
	}
	return p.DefaultPrice
}

// ResolveStock is the store override stock, or zero.
func ResolveStock(sp *StoreProduct) int {
	if sp == nil || sp.Stock == nil {
		return 0
	}
	return *sp.Stock
}

// ResolvePotency prefers the variant value over the product value.
func ResolvePotency(variant, product *float64) *float64 {
	if variant != nil {
		return variant
	}
	return product
}

// NewEffectiveListing merges a joined row into its display form.
func NewEffectiveListing(row ListingRow) EffectiveListing {
	p := row.Product
	sp := row.StoreProduct
	out := EffectiveListing{
		StoreProductID: sp.ID,
		StoreID:        sp.StoreID,
		ProductID:      p.ID,
		VariantID:      row.Variant.ID(),
		Slug:           p.Slug,
		Name:           p.Name,
		Brand:          p.Brand,
		Category:       p.Category,
		Strain:         p.Strain,
		Price:          ResolvePrice(&sp, row.Variant, p),
		Stock:          ResolveStock(&sp),
		THCPercent:     ResolvePotency(row.Variant.THC(), p.THCPercent),
		CBDPercent:     ResolvePotency(row.Variant.CBD(), p.CBDPercent),
	}
	if v, ok := row.Variant.Get(); ok {
		out.VariantName = v.Name
		out.SKU = v.SKU
	}
	return out
}

// NewDetailVariant resolves one variant of a product against the store
// override, which may be nil.
func NewDetailVariant(p Product, v VariantRef, sp *StoreProduct) DetailVariant {
	out := DetailVariant{
		VariantID:  v.ID(),
		Price:      ResolvePrice(sp, v, p),
		Stock:      ResolveStock(sp),
		THCPercent: ResolvePotency(v.THC(), p.THCPercent),
		CBDPercent: ResolvePotency(v.CBD(), p.CBDPercent),
		Available:  sp != nil && sp.Active,
	}
	if sp != nil {
		id := sp.ID
		out.StoreProductID = &id
	}
	if variant, ok := v.Get(); ok {
		out.Name = variant.Name
		out.SKU = variant.SKU
	}
	return out
}

// TotalPages is ceil(total/limit); zero when limit is not positive.
func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
