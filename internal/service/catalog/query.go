package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	"storecatalog/internal/domain"
)

const (
	DefaultPage  = 1
	DefaultLimit = 24
	MaxLimit     = 50
)

// ListingQuery is the typed listing request. Zero Page and Limit take the
// defaults; nil bounds are open.
type ListingQuery struct {
	Page       int
	Limit      int
	Q          string
	Brands     []string
	Categories []string
	Strains    []string
	PriceMin   *decimal.Decimal
	PriceMax   *decimal.Decimal
	THCMin     *float64
	THCMax     *float64
	CBDMin     *float64
	CBDMax     *float64
	InStock    bool
	Sort       domain.Sort
}

// withDefaults fills zero page, limit and sort.
func (q ListingQuery) withDefaults() ListingQuery {
	if q.Page == 0 {
		q.Page = DefaultPage
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	q.Sort = domain.ParseSort(string(q.Sort))
	return q
}

// Validate checks a query that already has defaults applied.
func (q ListingQuery) Validate() error {
	if q.Page < 1 {
		return domain.NewValidationError("page", "must be at least 1")
	}
	if q.Limit < 1 || q.Limit > MaxLimit {
		return domain.NewValidationError("limit", "must be between 1 and 50")
	}
	if q.PriceMin != nil && q.PriceMin.IsNegative() {
		return domain.NewValidationError("priceMin", "must not be negative")
	}
	if q.PriceMin != nil && q.PriceMax != nil && q.PriceMin.GreaterThan(*q.PriceMax) {
		return domain.NewValidationError("priceMin", "must not exceed priceMax")
	}
	if q.THCMin != nil && q.THCMax != nil && *q.THCMin > *q.THCMax {
		return domain.NewValidationError("thcMin", "must not exceed thcMax")
	}
	if q.CBDMin != nil && q.CBDMax != nil && *q.CBDMin > *q.CBDMax {
		return domain.NewValidationError("cbdMin", "must not exceed cbdMax")
	}
	return nil
}

// Window converts page and limit into skip/take.
func (q ListingQuery) Window() domain.Window {
	return domain.Window{Offset: (q.Page - 1) * q.Limit, Limit: q.Limit}
}

// BuildCriteria composes the record source predicate for one store.
func BuildCriteria(storeID string, q ListingQuery) domain.ListingCriteria {
	return domain.ListingCriteria{
		StoreID:    storeID,
		InStock:    q.InStock,
		Price:      domain.DecimalRange{Min: q.PriceMin, Max: q.PriceMax},
		Search:     strings.TrimSpace(q.Q),
		Brands:     cleanSet(q.Brands),
		Categories: cleanSet(q.Categories),
		Strains:    cleanSet(q.Strains),
		THC:        domain.PercentRange{Min: q.THCMin, Max: q.THCMax},
		CBD:        domain.PercentRange{Min: q.CBDMin, Max: q.CBDMax},
	}
}

func cleanSet(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
