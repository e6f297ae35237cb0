package store

import "context"

// Run executes fn inside a transaction on tx, threading ctx into fn
func Run(ctx context.Context, tx TxRunner, fn func(ctx context.Context, q RowQuerier) error) error {
	return tx.Tx(ctx, func(q RowQuerier) error {
		return fn(ctx, q)
	})
}
