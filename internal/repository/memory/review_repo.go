package memory

import (
	"context"
	"sort"

	"storefront-service/internal/domain"
)

type reviewRepo struct {
	s *Store
}

func (r *reviewRepo) Create(ctx context.Context, review *domain.Review) error {
	return r.s.write(ctx, func(record func(func())) error {
		s := r.s
		for _, existing := range s.reviews {
			if existing.AuthorID == review.AuthorID && existing.ProductID == review.ProductID {
				return domain.ErrDuplicateReview
			}
		}
		s.reviewSeq++
		now := s.now()
		review.ID = s.reviewSeq
		if review.CreatedAt.IsZero() {
			review.CreatedAt = now
		}
		if review.UpdatedAt.IsZero() {
			review.UpdatedAt = review.CreatedAt
		}
		stored := *review
		s.reviews[stored.ID] = &stored
		record(func() { delete(s.reviews, stored.ID) })
		return nil
	})
}

func (r *reviewRepo) Update(ctx context.Context, review *domain.Review) error {
	return r.s.write(ctx, func(record func(func())) error {
		rv, ok := r.s.reviews[review.ID]
		if !ok {
			return domain.ErrNotFound
		}
		prev := *rv
		rv.Rating = review.Rating
		rv.Comment = review.Comment
		rv.UpdatedAt = review.UpdatedAt
		record(func() { *rv = prev })
		return nil
	})
}

func (r *reviewRepo) Delete(ctx context.Context, id uint64) error {
	return r.s.write(ctx, func(record func(func())) error {
		rv, ok := r.s.reviews[id]
		if !ok {
			return domain.ErrNotFound
		}
		delete(r.s.reviews, id)
		record(func() { r.s.reviews[id] = rv })
		return nil
	})
}

func (r *reviewRepo) FindByID(ctx context.Context, id uint64) (*domain.Review, error) {
	var out *domain.Review
	r.s.read(ctx, func() {
		if rv, ok := r.s.reviews[id]; ok {
			c := *rv
			out = &c
		}
	})
	return out, nil
}

// LockByID is FindByID: a transaction already owns the whole store.
func (r *reviewRepo) LockByID(ctx context.Context, id uint64) (*domain.Review, error) {
	return r.FindByID(ctx, id)
}

func (r *reviewRepo) FindByProduct(ctx context.Context, productID uint64) ([]domain.Review, error) {
	out := []domain.Review{}
	r.s.read(ctx, func() {
		for _, rv := range r.s.reviews {
			if rv.ProductID == productID {
				out = append(out, *rv)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *reviewRepo) FindByAuthorAndProduct(ctx context.Context, authorID, productID uint64) (*domain.Review, error) {
	var out *domain.Review
	r.s.read(ctx, func() {
		for _, rv := range r.s.reviews {
			if rv.AuthorID == authorID && rv.ProductID == productID {
				c := *rv
				out = &c
				return
			}
		}
	})
	return out, nil
}

func (r *reviewRepo) IncrementHelpful(ctx context.Context, id uint64) error {
	return r.s.write(ctx, func(record func(func())) error {
		rv, ok := r.s.reviews[id]
		if !ok {
			return domain.ErrNotFound
		}
		rv.Helpful++
		record(func() { rv.Helpful-- })
		return nil
	})
}
