// Package repokit provides common types and helpers for repository implementations
package repokit

import (
	"context"

	"unievents/internal/platform/store/docstore"
)

// Queryer is the read and write surface repos run against: the client itself or an open transaction
type Queryer interface {
	docstore.Reader
	docstore.Writer
}

// TxRunner is the client side that can open transactions
type TxRunner = docstore.Client

var (
	_ Queryer = docstore.Client(nil)
	_ Queryer = docstore.Tx(nil)
)

// WithTx runs fn inside a transaction, handing it a repo bound to the tx
func WithTx[T any](ctx context.Context, db TxRunner, b Binder[T], fn func(ctx context.Context, tx docstore.Tx, repo T) error) error {
	return db.RunTx(ctx, func(ctx context.Context, tx docstore.Tx) error {
		return fn(ctx, tx, MustBind(b, tx))
	})
}
