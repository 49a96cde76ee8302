package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Sort selects the listing order.
type Sort string

const (
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
	SortPopular   Sort = "popular"
	SortNameAsc   Sort = "name_asc"
	SortNameDesc  Sort = "name_desc"
)

// ParseSort maps a raw value to a Sort; absent or unknown values fall back to
// SortPopular.
func ParseSort(raw string) Sort {
	switch s := Sort(strings.ToLower(strings.TrimSpace(raw))); s {
	case SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc, SortPopular:
		return s
	default:
		return SortPopular
	}
}

// DecimalRange is an inclusive range with optional bounds.
type DecimalRange struct {
	Min *decimal.Decimal
	Max *decimal.Decimal
}

func (r DecimalRange) IsSet() bool {
	return r.Min != nil || r.Max != nil
}

// Contains reports whether v lies in the range. A nil value never matches a
// set range.
func (r DecimalRange) Contains(v *decimal.Decimal) bool {
	if !r.IsSet() {
		return true
	}
	if v == nil {
		return false
	}
	if r.Min != nil && v.LessThan(*r.Min) {
		return false
	}
	if r.Max != nil && v.GreaterThan(*r.Max) {
		return false
	}
	return true
}

// PercentRange is an inclusive potency range with optional bounds.
type PercentRange struct {
	Min *float64
	Max *float64
}

func (r PercentRange) IsSet() bool {
	return r.Min != nil || r.Max != nil
}

func (r PercentRange) Contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// MatchFallback applies the variant-first potency rule: a present variant
// value decides alone; only an absent variant value defers to the product,
// which matches when it is unset or in range.
func (r PercentRange) MatchFallback(variant, product *float64) bool {
	if !r.IsSet() {
		return true
	}
	if variant != nil {
		return r.Contains(*variant)
	}
	return product == nil || r.Contains(*product)
}

// ListingCriteria is the composed predicate a record source evaluates. Price
// and InStock apply to the raw store override row; THC and CBD use the
// variant-first fallback.
type ListingCriteria struct {
	StoreID    string
	InStock    bool
	Price      DecimalRange
	Search     string
	Brands     []string
	Categories []string
	Strains    []string
	THC        PercentRange
	CBD        PercentRange
}

// Matches evaluates the full predicate, base scoping included, against a row.
func (c ListingCriteria) Matches(row ListingRow) bool {
	sp := row.StoreProduct
	if c.StoreID == "" || sp.StoreID != c.StoreID || row.Store.ID != c.StoreID {
		return false
	}
	if !sp.Active || !row.Product.IsActive || !row.Store.IsActive {
		return false
	}
	if c.InStock && (sp.Stock == nil || *sp.Stock <= 0) {
		return false
	}
	if !c.Price.Contains(sp.Price) {
		return false
	}
	if !c.matchesProduct(row.Product) {
		return false
	}
	return c.THC.MatchFallback(row.Variant.THC(), row.Product.THCPercent) &&
		c.CBD.MatchFallback(row.Variant.CBD(), row.Product.CBDPercent)
}

func (c ListingCriteria) matchesProduct(p Product) bool {
	if q := strings.ToLower(c.Search); q != "" {
		if !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Brand), q) {
			return false
		}
	}
	return memberOf(c.Brands, p.Brand) && memberOf(c.Categories, p.Category) && memberOf(c.Strains, p.Strain)
}

func memberOf(set []string, v string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// CompareRows orders two candidates for the given sort. Price sorts use the raw
// store override price with unset prices last in both directions. Zero means
// the source's natural order decides.
func CompareRows(sort Sort, a, b ListingRow) int {
	switch sort {
	case SortPriceAsc, SortPriceDesc:
		pa, pb := a.StoreProduct.Price, b.StoreProduct.Price
		switch {
		case pa == nil && pb == nil:
			return 0
		case pa == nil:
			return 1
		case pb == nil:
			return -1
		}
		if sort == SortPriceDesc {
			return pb.Cmp(*pa)
		}
		return pa.Cmp(*pb)
	case SortNameAsc:
		return strings.Compare(a.Product.Name, b.Product.Name)
	case SortNameDesc:
		return strings.Compare(b.Product.Name, a.Product.Name)
	default:
		switch {
		case a.Product.Purchases30d > b.Product.Purchases30d:
			return -1
		case a.Product.Purchases30d < b.Product.Purchases30d:
			return 1
		}
		return 0
	}
}

// Window is the skip/take slice applied after sorting.
type Window struct {
	Offset int
	Limit  int
}
