package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the tenant-wide catalog definition. Potency and price are optional
// defaults that variants and store overrides may shadow.
type Product struct {
	ID           string           `json:"id"`
	Slug         string           `json:"slug"`
	Name         string           `json:"name"`
	Brand        string           `json:"brand,omitempty"`
	Category     string           `json:"category,omitempty"`
	Strain       string           `json:"strain,omitempty"`
	DefaultPrice *decimal.Decimal `json:"defaultPrice,omitempty"`
	THCPercent   *float64         `json:"thcPercent,omitempty"`
	CBDPercent   *float64         `json:"cbdPercent,omitempty"`
	IsActive     bool             `json:"isActive"`
	Purchases30d int              `json:"-"`
	CreatedAt    time.Time        `json:"createdAt"`
	Variants     []Variant        `json:"variants,omitempty"`
}

// Variant is a purchasable configuration of a product (size, weight).
type Variant struct {
	ID         string           `json:"id"`
	ProductID  string           `json:"productId"`
	Name       string           `json:"name,omitempty"`
	SKU        string           `json:"sku,omitempty"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	THCPercent *float64         `json:"thcPercent,omitempty"`
	CBDPercent *float64         `json:"cbdPercent,omitempty"`
	Active     bool             `json:"active"`
	CreatedAt  time.Time        `json:"createdAt"`
}
