package mysql

import (
	"context"
	"errors"
	"time"

	"storefront-service/internal/domain"
	"storefront-service/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type productRepo struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewProductRepository(db *gorm.DB, logger *logrus.Logger) repository.ProductRepository {
	return &productRepo{db: db, log: logger}
}

func (r *productRepo) Create(ctx context.Context, product *domain.Product) error {
	if err := conn(ctx, r.db).Omit("Rating", "ReviewCount").Create(product).Error; err != nil {
		r.log.Errorf("Create product error: %v", err)
		return err
	}
	product.Rating = 0
	product.ReviewCount = 0
	if product.ID == 0 {
		return errors.New("failed to assign product ID")
	}
	return nil
}

func (r *productRepo) FindByID(ctx context.Context, id uint64) (*domain.Product, error) {
	return r.first(conn(ctx, r.db), id)
}

func (r *productRepo) LockByID(ctx context.Context, id uint64) (*domain.Product, error) {
	q := conn(ctx, r.db)
	if inTransaction(ctx) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.first(q, id)
}

func (r *productRepo) first(q *gorm.DB, id uint64) (*domain.Product, error) {
	var p domain.Product
	if err := q.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Errorf("FindByID product %d error: %v", id, err)
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) FindByIDs(ctx context.Context, ids []uint64) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}
	var out []domain.Product
	if err := conn(ctx, r.db).Where("id IN ?", ids).Order("id ASC").Find(&out).Error; err != nil {
		r.log.Errorf("FindByIDs error: %v", err)
		return nil, err
	}
	return out, nil
}

func (r *productRepo) FindByArtisan(ctx context.Context, artisanID uint64) ([]domain.Product, error) {
	var out []domain.Product
	if err := conn(ctx, r.db).Where("artisan_id = ?", artisanID).Order("id ASC").Find(&out).Error; err != nil {
		r.log.Errorf("FindByArtisan products for %d error: %v", artisanID, err)
		return nil, err
	}
	return out, nil
}

func (r *productRepo) UpdatePrice(ctx context.Context, id uint64, price decimal.Decimal) error {
	res := conn(ctx, r.db).Model(&domain.Product{}).Where("id = ?", id).
		Updates(map[string]any{"price": price, "updated_at": time.Now()})
	if res.Error != nil {
		r.log.Errorf("UpdatePrice product %d error: %v", id, res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &domain.ProductNotFoundError{ProductID: id}
	}
	return nil
}

func (r *productRepo) DecrementStock(ctx context.Context, id uint64, qty int64) (bool, error) {
	if qty < 1 {
		return false, domain.InvalidRequestf("decrement quantity must be positive, got %d", qty)
	}
	res := conn(ctx, r.db).Model(&domain.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock - ?", qty),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		r.log.Errorf("DecrementStock product %d by %d error: %v", id, qty, res.Error)
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *productRepo) SetRatingSummary(ctx context.Context, id uint64, summary domain.RatingSummary) error {
	res := conn(ctx, r.db).Model(&domain.Product{}).Where("id = ?", id).
		UpdateColumns(map[string]any{
			"rating":       summary.Rating,
			"review_count": summary.ReviewCount,
		})
	if res.Error != nil {
		r.log.Errorf("SetRatingSummary product %d error: %v", id, res.Error)
		return res.Error
	}
	return nil
}
