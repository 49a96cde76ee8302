package catalog

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"storecatalog/internal/domain"
)

// Memory is an in-process record source. Overrides keep insertion order, which
// is the natural order used to break sort ties.
type Memory struct {
	mu            sync.RWMutex
	stores        map[string]domain.Store
	products      map[string]domain.Product
	variants      map[string]domain.Variant
	storeProducts []domain.StoreProduct
}

func NewMemory() *Memory {
	return &Memory{
		stores:   map[string]domain.Store{},
		products: map[string]domain.Product{},
		variants: map[string]domain.Variant{},
	}
}

var _ Repository = (*Memory)(nil)

func (m *Memory) PutStore(s domain.Store) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores[s.ID] = s
}

func (m *Memory) PutProduct(p domain.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.Variants = nil
	m.products[p.ID] = p
}

func (m *Memory) PutVariant(v domain.Variant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[v.ProductID]; !ok {
		return fmt.Errorf("variant %s: product %s: %w", v.ID, v.ProductID, domain.ErrNotFound)
	}
	m.variants[v.ID] = v
	return nil
}

// PutStoreProduct inserts or replaces the override for its (store, product,
// variant-or-null) tuple.
func (m *Memory) PutStoreProduct(sp domain.StoreProduct) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stores[sp.StoreID]; !ok {
		return fmt.Errorf("store product %s: store %s: %w", sp.ID, sp.StoreID, domain.ErrNotFound)
	}
	if _, ok := m.products[sp.ProductID]; !ok {
		return fmt.Errorf("store product %s: product %s: %w", sp.ID, sp.ProductID, domain.ErrNotFound)
	}
	if sp.VariantID != nil {
		v, ok := m.variants[*sp.VariantID]
		if !ok || v.ProductID != sp.ProductID {
			return fmt.Errorf("store product %s: variant %s: %w", sp.ID, *sp.VariantID, domain.ErrNotFound)
		}
	}
	for i, existing := range m.storeProducts {
		if existing.StoreID == sp.StoreID && existing.ProductID == sp.ProductID && existing.SameVariant(sp.VariantID) {
			m.storeProducts[i] = sp
			return nil
		}
	}
	m.storeProducts = append(m.storeProducts, sp)
	return nil
}

// SetPurchases updates the trailing purchase counter of a product.
func (m *Memory) SetPurchases(productID string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[productID]; ok {
		p.Purchases30d = n
		m.products[productID] = p
	}
}

// ListIDs returns every product id in id order.
func (m *Memory) ListIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.products))
	for id := range m.products {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// SetPurchaseCounts overwrites the trailing counters of the given products.
func (m *Memory) SetPurchaseCounts(ctx context.Context, counts map[string]int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for id, n := range counts {
		m.SetPurchases(id, n)
	}
	return nil
}

func (m *Memory) FindListings(ctx context.Context, criteria domain.ListingCriteria, sort domain.Sort, window domain.Window) ([]domain.ListingRow, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	m.mu.RLock()
	candidates := make([]domain.ListingRow, 0, len(m.storeProducts))
	for _, sp := range m.storeProducts {
		row := m.joinLocked(sp)
		if criteria.Matches(row) {
			candidates = append(candidates, row)
		}
	}
	m.mu.RUnlock()

	slices.SortStableFunc(candidates, func(a, b domain.ListingRow) int {
		return domain.CompareRows(sort, a, b)
	})

	total := len(candidates)
	if window.Offset >= total {
		return nil, total, nil
	}
	end := total
	if window.Limit > 0 && window.Offset+window.Limit < total {
		end = window.Offset + window.Limit
	}
	return candidates[window.Offset:end], total, nil
}

func (m *Memory) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[productID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	for _, v := range m.variants {
		if v.ProductID == productID && v.Active {
			p.Variants = append(p.Variants, v)
		}
	}
	slices.SortFunc(p.Variants, func(a, b domain.Variant) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return &p, nil
}

func (m *Memory) ListStoreProducts(ctx context.Context, storeID, productID string) ([]domain.StoreProduct, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.StoreProduct
	for _, sp := range m.storeProducts {
		if sp.StoreID == storeID && sp.ProductID == productID {
			out = append(out, sp)
		}
	}
	return out, nil
}

func (m *Memory) Facets(ctx context.Context, storeID string) (*domain.Facets, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	criteria := domain.ListingCriteria{StoreID: storeID}
	brands, categories, strains := map[string]struct{}{}, map[string]struct{}{}, map[string]struct{}{}
	var minPrice, maxPrice *decimal.Decimal

	m.mu.RLock()
	for _, sp := range m.storeProducts {
		row := m.joinLocked(sp)
		if !criteria.Matches(row) {
			continue
		}
		addNonEmpty(brands, row.Product.Brand)
		addNonEmpty(categories, row.Product.Category)
		addNonEmpty(strains, row.Product.Strain)
		if price := sp.Price; price != nil {
			if minPrice == nil || price.LessThan(*minPrice) {
				minPrice = price
			}
			if maxPrice == nil || price.GreaterThan(*maxPrice) {
				maxPrice = price
			}
		}
	}
	m.mu.RUnlock()

	return &domain.Facets{
		Brands:     sortedKeys(brands),
		Categories: sortedKeys(categories),
		Strains:    sortedKeys(strains),
		PriceMin:   minPrice,
		PriceMax:   maxPrice,
	}, nil
}

func (m *Memory) joinLocked(sp domain.StoreProduct) domain.ListingRow {
	row := domain.ListingRow{
		Store:        m.stores[sp.StoreID],
		StoreProduct: sp,
		Product:      m.products[sp.ProductID],
		Variant:      domain.NoVariant(),
	}
	if sp.VariantID != nil {
		if v, ok := m.variants[*sp.VariantID]; ok {
			row.Variant = domain.SomeVariant(v)
		}
	}
	return row
}

func addNonEmpty(set map[string]struct{}, v string) {
	if v != "" {
		set[v] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
