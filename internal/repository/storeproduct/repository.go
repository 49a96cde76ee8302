package storeproduct

import (
	"context"

	"storecatalog/internal/domain"
)

// Repository writes store-scoped overrides. Reads go through the catalog
// repository.
type Repository interface {
	Upsert(ctx context.Context, sp domain.StoreProduct) (*domain.StoreProduct, error)
}
