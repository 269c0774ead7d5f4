package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"storefront-service/internal/domain"
	"storefront-service/internal/infra"
	"storefront-service/internal/infra/metrics"
	"storefront-service/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const maxCommentLength = 2000

type ReviewService struct {
	tx        repository.Transactor
	reviews   repository.ReviewRepository
	products  repository.ProductRepository
	publisher infra.EventPublisher
	log       *logrus.Logger
	now       func() time.Time

	inflight sync.WaitGroup
}

func NewReviewService(
	tx repository.Transactor,
	reviews repository.ReviewRepository,
	products repository.ProductRepository,
	pub infra.EventPublisher,
	logger *logrus.Logger,
) *ReviewService {
	return &ReviewService{
		tx:        tx,
		reviews:   reviews,
		products:  products,
		publisher: pub,
		log:       logger,
		now:       time.Now,
	}
}

func (s *ReviewService) Wait() {
	s.inflight.Wait()
}

// RecomputeRating rebuilds the product's rating and review count from its
// live reviews and stores both. It is the only path that changes them.
func (s *ReviewService) RecomputeRating(ctx context.Context, productID uint64) (domain.RatingSummary, error) {
	var summary domain.RatingSummary
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err := s.products.LockByID(ctx, productID)
		if err != nil {
			return fmt.Errorf("load product %d: %w", productID, err)
		}
		if p == nil {
			return &domain.ProductNotFoundError{ProductID: productID}
		}
		summary, err = s.recompute(ctx, productID)
		return err
	})
	return summary, err
}

// recompute expects the product row to be locked by the caller's transaction.
func (s *ReviewService) recompute(ctx context.Context, productID uint64) (domain.RatingSummary, error) {
	reviews, err := s.reviews.FindByProduct(ctx, productID)
	if err != nil {
		return domain.RatingSummary{}, fmt.Errorf("load reviews for product %d: %w", productID, err)
	}

	summary := domain.RatingSummary{ReviewCount: int64(len(reviews))}
	if summary.ReviewCount > 0 {
		var sum int64
		for _, r := range reviews {
			sum += int64(r.Rating)
		}
		summary.Rating = float64(sum) / float64(summary.ReviewCount)
	}

	if err := s.products.SetRatingSummary(ctx, productID, summary); err != nil {
		return domain.RatingSummary{}, fmt.Errorf("store rating for product %d: %w", productID, err)
	}
	return summary, nil
}

func validateReview(rating int, comment string) (string, error) {
	if !domain.IsValidRating(rating) {
		return "", domain.InvalidRequestf("rating must be between %d and %d", domain.MinReviewRating, domain.MaxReviewRating)
	}
	comment = strings.TrimSpace(comment)
	if len(comment) > maxCommentLength {
		return "", domain.InvalidRequestf("comment must be at most %d characters", maxCommentLength)
	}
	return comment, nil
}

func (s *ReviewService) CreateReview(ctx context.Context, actor domain.Actor, productID uint64, rating int, comment string) (*domain.Review, domain.RatingSummary, error) {
	comment, err := validateReview(rating, comment)
	if err != nil {
		return nil, domain.RatingSummary{}, err
	}
	if productID == 0 {
		return nil, domain.RatingSummary{}, domain.InvalidRequestf("product id is required")
	}

	var (
		review  *domain.Review
		summary domain.RatingSummary
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err := s.products.LockByID(ctx, productID)
		if err != nil {
			return fmt.Errorf("load product %d: %w", productID, err)
		}
		if p == nil {
			return &domain.ProductNotFoundError{ProductID: productID}
		}
		if p.ArtisanID == actor.ID && actor.IsArtisan() {
			return domain.ErrForbidden
		}

		existing, err := s.reviews.FindByAuthorAndProduct(ctx, actor.ID, productID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicateReview
		}

		now := s.now()
		rv := &domain.Review{
			ProductID: productID,
			AuthorID:  actor.ID,
			Rating:    rating,
			Comment:   comment,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.reviews.Create(ctx, rv); err != nil {
			return err
		}
		review = rv
		summary, err = s.recompute(ctx, productID)
		return err
	})
	metrics.RecordReviewOperation("create", err == nil)
	if err != nil {
		return nil, domain.RatingSummary{}, err
	}

	s.publish(domain.EventReviewCreated, review.ID, productID, summary)
	return review, summary, nil
}

func (s *ReviewService) UpdateReview(ctx context.Context, actor domain.Actor, reviewID uint64, rating int, comment string) (*domain.Review, domain.RatingSummary, error) {
	comment, err := validateReview(rating, comment)
	if err != nil {
		return nil, domain.RatingSummary{}, err
	}

	var (
		review  *domain.Review
		summary domain.RatingSummary
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		rv, err := s.ownedReview(ctx, actor, reviewID)
		if err != nil {
			return err
		}
		if _, err := s.products.LockByID(ctx, rv.ProductID); err != nil {
			return fmt.Errorf("lock product %d: %w", rv.ProductID, err)
		}

		rv.Rating = rating
		rv.Comment = comment
		rv.UpdatedAt = s.now()
		if err := s.reviews.Update(ctx, rv); err != nil {
			return err
		}
		review = rv
		summary, err = s.recompute(ctx, rv.ProductID)
		return err
	})
	metrics.RecordReviewOperation("update", err == nil)
	if err != nil {
		return nil, domain.RatingSummary{}, err
	}

	s.publish(domain.EventReviewUpdated, review.ID, review.ProductID, summary)
	return review, summary, nil
}

func (s *ReviewService) DeleteReview(ctx context.Context, actor domain.Actor, reviewID uint64) (domain.RatingSummary, error) {
	var (
		productID uint64
		summary   domain.RatingSummary
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		rv, err := s.ownedReview(ctx, actor, reviewID)
		if err != nil {
			return err
		}
		if _, err := s.products.LockByID(ctx, rv.ProductID); err != nil {
			return fmt.Errorf("lock product %d: %w", rv.ProductID, err)
		}
		if err := s.reviews.Delete(ctx, reviewID); err != nil {
			return err
		}
		productID = rv.ProductID
		summary, err = s.recompute(ctx, rv.ProductID)
		return err
	})
	metrics.RecordReviewOperation("delete", err == nil)
	if err != nil {
		return domain.RatingSummary{}, err
	}

	s.publish(domain.EventReviewDeleted, reviewID, productID, summary)
	return summary, nil
}

// ownedReview locks the review row before anything else is read so the
// transaction's first read is a locking one.
func (s *ReviewService) ownedReview(ctx context.Context, actor domain.Actor, reviewID uint64) (*domain.Review, error) {
	rv, err := s.reviews.LockByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if rv == nil {
		return nil, domain.ErrNotFound
	}
	if rv.AuthorID != actor.ID {
		return nil, domain.ErrForbidden
	}
	return rv, nil
}

// MarkHelpful counts a helpful vote. Authors cannot vote for their own review.
func (s *ReviewService) MarkHelpful(ctx context.Context, actor domain.Actor, reviewID uint64) (*domain.Review, error) {
	var out *domain.Review
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		rv, err := s.reviews.FindByID(ctx, reviewID)
		if err != nil {
			return err
		}
		if rv == nil {
			return domain.ErrNotFound
		}
		if rv.AuthorID == actor.ID {
			return domain.ErrForbidden
		}
		if err := s.reviews.IncrementHelpful(ctx, reviewID); err != nil {
			return err
		}
		rv.Helpful++
		out = rv
		return nil
	})
	metrics.RecordReviewOperation("helpful", err == nil)
	return out, err
}

func (s *ReviewService) ListProductReviews(ctx context.Context, productID uint64) ([]domain.Review, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &domain.ProductNotFoundError{ProductID: productID}
	}
	return s.reviews.FindByProduct(ctx, productID)
}

func (s *ReviewService) publish(eventType string, reviewID, productID uint64, summary domain.RatingSummary) {
	evt := domain.ReviewEvent{
		EventID:     uuid.NewString(),
		Type:        eventType,
		ReviewID:    reviewID,
		ProductID:   productID,
		Rating:      domain.RoundRating(summary.Rating),
		ReviewCount: summary.ReviewCount,
		OccurredAt:  s.now(),
	}
	publishAsync(&s.inflight, s.publisher, s.log, eventType, evt)
}
