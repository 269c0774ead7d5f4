// Package memory is an in-process implementation of the repository
// interfaces. A transaction holds the store's write lock for its whole
// duration and undoes its writes when fn fails, so it gives the same
// all-or-nothing behaviour as the MySQL store at a coarser granularity.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"storefront-service/internal/domain"
	"storefront-service/internal/repository"
)

var errReadOnly = errors.New("memory store: write inside a read snapshot")

type txState struct {
	store    *Store
	readOnly bool
	undo     []func()
}

type txKey struct{}

type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	products map[uint64]*domain.Product
	orders   map[uint64]*domain.Order
	reviews  map[uint64]*domain.Review

	productSeq uint64
	orderSeq   uint64
	itemSeq    uint64
	reviewSeq  uint64
}

func NewStore() *Store {
	return &Store{
		now:      time.Now,
		products: make(map[uint64]*domain.Product),
		orders:   make(map[uint64]*domain.Order),
		reviews:  make(map[uint64]*domain.Review),
	}
}

// SetClock replaces the clock used for timestamps the store fills in.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Products() repository.ProductRepository { return &productRepo{s: s} }

func (s *Store) Orders() repository.OrderRepository { return &orderRepo{s: s} }

func (s *Store) Reviews() repository.ReviewRepository { return &reviewRepo{s: s} }

var _ repository.Transactor = (*Store)(nil)

func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if st := s.txFrom(ctx); st != nil {
		if st.readOnly {
			return errReadOnly
		}
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := &txState{store: s}
	defer func() {
		if p := recover(); p != nil {
			st.rollback()
			panic(p)
		}
		if err != nil {
			st.rollback()
		}
	}()
	return fn(context.WithValue(ctx, txKey{}, st))
}

func (s *Store) WithinReadSnapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.txFrom(ctx) != nil {
		return fn(ctx)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(context.WithValue(ctx, txKey{}, &txState{store: s, readOnly: true}))
}

func (st *txState) rollback() {
	for i := len(st.undo) - 1; i >= 0; i-- {
		st.undo[i]()
	}
	st.undo = nil
}

func (s *Store) txFrom(ctx context.Context) *txState {
	st, ok := ctx.Value(txKey{}).(*txState)
	if !ok || st.store != s {
		return nil
	}
	return st
}

// read runs fn under the read lock unless ctx already holds a lock.
func (s *Store) read(ctx context.Context, fn func()) {
	if s.txFrom(ctx) != nil {
		fn()
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

// write runs fn under the write lock. Inside a transaction, undo actions
// passed to record are replayed if the transaction fails.
func (s *Store) write(ctx context.Context, fn func(record func(undo func())) error) error {
	if st := s.txFrom(ctx); st != nil {
		if st.readOnly {
			return errReadOnly
		}
		return fn(func(undo func()) { st.undo = append(st.undo, undo) })
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(func(func()) {})
}

func copyOrder(o *domain.Order) domain.Order {
	c := *o
	c.Items = append([]domain.OrderItem(nil), o.Items...)
	return c
}
