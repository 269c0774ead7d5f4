package memory

import (
	"context"
	"sort"
	"time"

	"storefront-service/internal/domain"
)

type orderRepo struct {
	s *Store
}

func (r *orderRepo) Save(ctx context.Context, order *domain.Order) error {
	return r.s.write(ctx, func(record func(func())) error {
		s := r.s
		s.orderSeq++
		now := s.now()
		order.ID = s.orderSeq
		if order.CreatedAt.IsZero() {
			order.CreatedAt = now
		}
		if order.UpdatedAt.IsZero() {
			order.UpdatedAt = order.CreatedAt
		}
		for i := range order.Items {
			s.itemSeq++
			order.Items[i].ID = s.itemSeq
			order.Items[i].OrderID = order.ID
		}
		stored := copyOrder(order)
		s.orders[order.ID] = &stored
		id := order.ID
		record(func() { delete(s.orders, id) })
		return nil
	})
}

func (r *orderRepo) FindByID(ctx context.Context, id uint64) (*domain.Order, error) {
	var out *domain.Order
	r.s.read(ctx, func() {
		if o, ok := r.s.orders[id]; ok {
			c := copyOrder(o)
			out = &c
		}
	})
	return out, nil
}

func (r *orderRepo) LockByID(ctx context.Context, id uint64) (*domain.Order, error) {
	return r.FindByID(ctx, id)
}

func (r *orderRepo) FindByCustomer(ctx context.Context, customerID uint64, limit, offset int) ([]domain.Order, error) {
	var all []domain.Order
	r.s.read(ctx, func() {
		for _, o := range r.s.orders {
			if o.CustomerID == customerID {
				all = append(all, copyOrder(o))
			}
		}
	})
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	if offset >= len(all) {
		return []domain.Order{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *orderRepo) FindByArtisan(ctx context.Context, artisanID uint64, since time.Time) ([]domain.Order, error) {
	out := []domain.Order{}
	r.s.read(ctx, func() {
		for _, o := range r.s.orders {
			if !since.IsZero() && o.CreatedAt.Before(since) {
				continue
			}
			if o.HasArtisan(artisanID) {
				out = append(out, copyOrder(o))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, order *domain.Order) error {
	return r.s.write(ctx, func(record func(func())) error {
		o, ok := r.s.orders[order.ID]
		if !ok {
			return domain.ErrNotFound
		}
		prev := copyOrder(o)
		o.Status = order.Status
		o.PaymentStatus = order.PaymentStatus
		o.TrackingNumber = order.TrackingNumber
		o.UpdatedAt = order.UpdatedAt
		record(func() { *o = prev })
		return nil
	})
}
