package repository

import (
	"context"
	"time"

	"storefront-service/internal/domain"
)

type OrderRepository interface {
	// Save inserts the order together with its line items and assigns IDs.
	Save(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uint64) (*domain.Order, error)
	LockByID(ctx context.Context, id uint64) (*domain.Order, error)
	FindByCustomer(ctx context.Context, customerID uint64, limit, offset int) ([]domain.Order, error)
	// FindByArtisan returns orders created at or after since that contain at
	// least one line item owned by artisanID. A zero since means all time.
	FindByArtisan(ctx context.Context, artisanID uint64, since time.Time) ([]domain.Order, error)
	// UpdateStatus persists status, payment status, tracking number and
	// UpdatedAt. TotalAmount and items are never rewritten.
	UpdateStatus(ctx context.Context, order *domain.Order) error
}
