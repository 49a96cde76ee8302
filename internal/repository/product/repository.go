package product

import (
	"context"

	"storecatalog/internal/domain"
)

// Repository is the write side of the tenant catalog used by the importer,
// seeder and popularity sync.
type Repository interface {
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
	UpsertVariant(ctx context.Context, v domain.Variant) (*domain.Variant, error)
	ListIDs(ctx context.Context) ([]string, error)
	SetPurchaseCounts(ctx context.Context, counts map[string]int) error
}
