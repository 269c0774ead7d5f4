package repository

import (
	"context"

	"storefront-service/internal/domain"

	"github.com/shopspring/decimal"
)

type ProductRepository interface {
	// Create inserts a product. Rating and ReviewCount start at zero whatever
	// the passed value holds.
	Create(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, id uint64) (*domain.Product, error)
	// LockByID loads the product and, inside a transaction, holds its row
	// lock until the transaction ends.
	LockByID(ctx context.Context, id uint64) (*domain.Product, error)
	FindByIDs(ctx context.Context, ids []uint64) ([]domain.Product, error)
	FindByArtisan(ctx context.Context, artisanID uint64) ([]domain.Product, error)
	UpdatePrice(ctx context.Context, id uint64, price decimal.Decimal) error
	// DecrementStock subtracts qty only if stock >= qty and reports whether
	// the row was changed.
	DecrementStock(ctx context.Context, id uint64, qty int64) (bool, error)
	// SetRatingSummary is the only writer of Product.Rating/ReviewCount.
	SetRatingSummary(ctx context.Context, id uint64, summary domain.RatingSummary) error
}
