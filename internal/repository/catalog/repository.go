package catalog

import (
	"context"

	"storecatalog/internal/domain"
)

// Repository is the record source the catalog resolver reads from.
type Repository interface {
	// FindListings returns the page of joined rows matching the criteria, in
	// sort order, plus the total number of matches before pagination.
	FindListings(ctx context.Context, criteria domain.ListingCriteria, sort domain.Sort, window domain.Window) ([]domain.ListingRow, int, error)
	// GetProduct returns the product with its active variants, or
	// domain.ErrNotFound.
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
	// ListStoreProducts returns every override of one product at one store.
	ListStoreProducts(ctx context.Context, storeID, productID string) ([]domain.StoreProduct, error)
	// Facets summarises the filter values of the store's active listings.
	Facets(ctx context.Context, storeID string) (*domain.Facets, error)
}
