package mysql

import (
	"context"
	"errors"

	"storefront-service/internal/domain"
	"storefront-service/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type reviewRepo struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewReviewRepository(db *gorm.DB, logger *logrus.Logger) repository.ReviewRepository {
	return &reviewRepo{db: db, log: logger}
}

func (r *reviewRepo) Create(ctx context.Context, review *domain.Review) error {
	if err := conn(ctx, r.db).Create(review).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateReview
		}
		r.log.Errorf("Create review error: %v", err)
		return err
	}
	return nil
}

func (r *reviewRepo) Update(ctx context.Context, review *domain.Review) error {
	res := conn(ctx, r.db).Model(&domain.Review{}).Where("id = ?", review.ID).
		Updates(map[string]any{
			"rating":     review.Rating,
			"comment":    review.Comment,
			"updated_at": review.UpdatedAt,
		})
	if res.Error != nil {
		r.log.Errorf("Update review %d error: %v", review.ID, res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *reviewRepo) Delete(ctx context.Context, id uint64) error {
	res := conn(ctx, r.db).Delete(&domain.Review{}, id)
	if res.Error != nil {
		r.log.Errorf("Delete review %d error: %v", id, res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *reviewRepo) FindByID(ctx context.Context, id uint64) (*domain.Review, error) {
	return r.first(conn(ctx, r.db), id)
}

func (r *reviewRepo) LockByID(ctx context.Context, id uint64) (*domain.Review, error) {
	q := conn(ctx, r.db)
	if inTransaction(ctx) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.first(q, id)
}

func (r *reviewRepo) first(q *gorm.DB, id uint64) (*domain.Review, error) {
	var rv domain.Review
	if err := q.First(&rv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Errorf("FindByID review %d error: %v", id, err)
		return nil, err
	}
	return &rv, nil
}

func (r *reviewRepo) FindByProduct(ctx context.Context, productID uint64) ([]domain.Review, error) {
	q := conn(ctx, r.db)
	if inTransaction(ctx) {
		// A locking read sees rows committed after the transaction's
		// snapshot was taken; rating recomputes depend on that.
		q = q.Clauses(clause.Locking{Strength: "SHARE"})
	}
	var out []domain.Review
	err := q.Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").Find(&out).Error
	if err != nil {
		r.log.Errorf("FindByProduct reviews for %d error: %v", productID, err)
		return nil, err
	}
	return out, nil
}

func (r *reviewRepo) FindByAuthorAndProduct(ctx context.Context, authorID, productID uint64) (*domain.Review, error) {
	var rv domain.Review
	err := conn(ctx, r.db).Where("author_id = ? AND product_id = ?", authorID, productID).
		Take(&rv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rv, nil
}

func (r *reviewRepo) IncrementHelpful(ctx context.Context, id uint64) error {
	res := conn(ctx, r.db).Model(&domain.Review{}).Where("id = ?", id).
		UpdateColumn("helpful", gorm.Expr("helpful + 1"))
	if res.Error != nil {
		r.log.Errorf("IncrementHelpful review %d error: %v", id, res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
