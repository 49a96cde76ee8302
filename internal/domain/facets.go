package domain

import "github.com/shopspring/decimal"

// Facets describes the filter values available at a store.
type Facets struct {
	Brands     []string         `json:"brands"`
	Categories []string         `json:"categories"`
	Strains    []string         `json:"strains"`
	PriceMin   *decimal.Decimal `json:"priceMin"`
	PriceMax   *decimal.Decimal `json:"priceMax"`
}
