package store

import (
	"context"

	"storecatalog/internal/domain"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Store, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Store, error)
	Upsert(ctx context.Context, s domain.Store) (*domain.Store, error)
}
