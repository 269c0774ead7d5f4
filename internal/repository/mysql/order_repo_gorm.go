package mysql

import (
	"context"
	"errors"
	"time"

	"storefront-service/internal/domain"
	"storefront-service/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type orderRepo struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewOrderRepository(db *gorm.DB, logger *logrus.Logger) repository.OrderRepository {
	return &orderRepo{db: db, log: logger}
}

// Save inserts the order row and its items in one statement batch; GORM
// fills OrderID on the items from the parent.
func (r *orderRepo) Save(ctx context.Context, order *domain.Order) error {
	result := conn(ctx, r.db).Create(order)
	if result.Error != nil {
		r.log.Errorf("Database save error: %v", result.Error)
		return result.Error
	}

	if order.ID == 0 {
		r.log.Warnf("Order saved but ID is still 0. Rows affected: %d", result.RowsAffected)
		return errors.New("failed to assign order ID")
	}

	r.log.Debugf("Order saved with ID %d and %d items", order.ID, len(order.Items))
	return nil
}

func (r *orderRepo) FindByID(ctx context.Context, id uint64) (*domain.Order, error) {
	return r.first(conn(ctx, r.db), id)
}

func (r *orderRepo) LockByID(ctx context.Context, id uint64) (*domain.Order, error) {
	q := conn(ctx, r.db)
	if inTransaction(ctx) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.first(q, id)
}

func (r *orderRepo) first(q *gorm.DB, id uint64) (*domain.Order, error) {
	var o domain.Order
	if err := q.Preload("Items", itemOrder).First(&o, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Errorf("FindByID order %d error: %v", id, err)
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) FindByCustomer(ctx context.Context, customerID uint64, limit, offset int) ([]domain.Order, error) {
	var out []domain.Order
	err := conn(ctx, r.db).
		Preload("Items", itemOrder).
		Where("customer_id = ?", customerID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	if err != nil {
		r.log.Errorf("FindByCustomer %d error: %v", customerID, err)
		return nil, err
	}
	return out, nil
}

func (r *orderRepo) FindByArtisan(ctx context.Context, artisanID uint64, since time.Time) ([]domain.Order, error) {
	db := conn(ctx, r.db)
	owned := db.Session(&gorm.Session{NewDB: true}).
		Model(&domain.OrderItem{}).
		Select("order_id").
		Where("artisan_id = ?", artisanID)

	q := db.Preload("Items", itemOrder).Where("id IN (?)", owned)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}

	var out []domain.Order
	if err := q.Order("created_at ASC, id ASC").Find(&out).Error; err != nil {
		r.log.Errorf("FindByArtisan orders for %d error: %v", artisanID, err)
		return nil, err
	}
	return out, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, order *domain.Order) error {
	res := conn(ctx, r.db).Model(&domain.Order{}).Where("id = ?", order.ID).
		Updates(map[string]any{
			"status":          order.Status,
			"payment_status":  order.PaymentStatus,
			"tracking_number": order.TrackingNumber,
			"updated_at":      order.UpdatedAt,
		})
	if res.Error != nil {
		r.log.Errorf("UpdateStatus order %d error: %v", order.ID, res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func itemOrder(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}
