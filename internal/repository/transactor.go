package repository

import "context"

// Transactor runs fn with a context that carries a store transaction.
// Repository calls made with that context join the transaction. A non-nil
// error from fn rolls every write back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	// WithinReadSnapshot runs read-only work against a point-in-time view.
	WithinReadSnapshot(ctx context.Context, fn func(ctx context.Context) error) error
}
