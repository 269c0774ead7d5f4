package repository

import (
	"context"

	"storefront-service/internal/domain"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	Update(ctx context.Context, review *domain.Review) error
	Delete(ctx context.Context, id uint64) error
	FindByID(ctx context.Context, id uint64) (*domain.Review, error)
	// LockByID is FindByID that, inside a transaction, also locks the row.
	LockByID(ctx context.Context, id uint64) (*domain.Review, error)
	// FindByProduct inside a transaction reads the latest committed rows.
	FindByProduct(ctx context.Context, productID uint64) ([]domain.Review, error)
	FindByAuthorAndProduct(ctx context.Context, authorID, productID uint64) (*domain.Review, error)
	IncrementHelpful(ctx context.Context, id uint64) error
}
