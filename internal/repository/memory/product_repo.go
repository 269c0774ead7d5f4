package memory

import (
	"context"
	"errors"
	"sort"

	"storefront-service/internal/domain"

	"github.com/shopspring/decimal"
)

type productRepo struct {
	s *Store
}

func (r *productRepo) Create(ctx context.Context, product *domain.Product) error {
	return r.s.write(ctx, func(record func(func())) error {
		s := r.s
		s.productSeq++
		now := s.now()
		p := *product
		p.ID = s.productSeq
		p.Rating = 0
		p.ReviewCount = 0
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		p.UpdatedAt = now
		s.products[p.ID] = &p
		record(func() { delete(s.products, p.ID) })
		*product = p
		return nil
	})
}

func (r *productRepo) FindByID(ctx context.Context, id uint64) (*domain.Product, error) {
	var out *domain.Product
	r.s.read(ctx, func() {
		if p, ok := r.s.products[id]; ok {
			c := *p
			out = &c
		}
	})
	return out, nil
}

// LockByID is FindByID: a transaction already owns the whole store.
func (r *productRepo) LockByID(ctx context.Context, id uint64) (*domain.Product, error) {
	return r.FindByID(ctx, id)
}

func (r *productRepo) FindByIDs(ctx context.Context, ids []uint64) ([]domain.Product, error) {
	out := []domain.Product{}
	r.s.read(ctx, func() {
		seen := make(map[uint64]struct{}, len(ids))
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if p, ok := r.s.products[id]; ok {
				out = append(out, *p)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *productRepo) FindByArtisan(ctx context.Context, artisanID uint64) ([]domain.Product, error) {
	out := []domain.Product{}
	r.s.read(ctx, func() {
		for _, p := range r.s.products {
			if p.ArtisanID == artisanID {
				out = append(out, *p)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *productRepo) UpdatePrice(ctx context.Context, id uint64, price decimal.Decimal) error {
	return r.s.write(ctx, func(record func(func())) error {
		p, ok := r.s.products[id]
		if !ok {
			return &domain.ProductNotFoundError{ProductID: id}
		}
		prev := *p
		p.Price = price
		p.UpdatedAt = r.s.now()
		record(func() { *p = prev })
		return nil
	})
}

func (r *productRepo) DecrementStock(ctx context.Context, id uint64, qty int64) (bool, error) {
	if qty < 1 {
		return false, domain.InvalidRequestf("decrement quantity must be positive, got %d", qty)
	}
	changed := false
	err := r.s.write(ctx, func(record func(func())) error {
		p, ok := r.s.products[id]
		if !ok || p.Stock < qty {
			return nil
		}
		prev := *p
		p.Stock -= qty
		p.UpdatedAt = r.s.now()
		record(func() { *p = prev })
		changed = true
		return nil
	})
	return changed, err
}

func (r *productRepo) SetRatingSummary(ctx context.Context, id uint64, summary domain.RatingSummary) error {
	return r.s.write(ctx, func(record func(func())) error {
		p, ok := r.s.products[id]
		if !ok {
			return nil
		}
		prevRating, prevCount := p.Rating, p.ReviewCount
		p.Rating = summary.Rating
		p.ReviewCount = summary.ReviewCount
		record(func() { p.Rating, p.ReviewCount = prevRating, prevCount })
		return nil
	})
}

// SetStock overwrites a product's stock level. Restocking has no service
// operation; it is used for seeding and tests.
func (s *Store) SetStock(id uint64, stock int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return errors.New("memory store: unknown product")
	}
	p.Stock = stock
	return nil
}
