package client

import (
	"context"
	"fmt"
)

// BeginTransaction opens a transaction on the connection. Transactions do not
// nest; a second call fails with runtime.ErrTransactionActive.
//
// The transaction is bound to ctx: when ctx is canceled the driver rolls it back
// and a later Commit fails. Pass a context that outlives the whole unit of work,
// not a short per-request or per-statement one.
func (c *Client) BeginTransaction(ctx context.Context) error {
	return c.conn.Begin(ctx)
}

// Commit commits the open transaction.
func (c *Client) Commit(ctx context.Context) error {
	return c.conn.Commit(ctx)
}

// Rollback rolls back the open transaction.
func (c *Client) Rollback(ctx context.Context) error {
	return c.conn.Rollback(ctx)
}

// TransactionFunc is a function that runs within a transaction
type TransactionFunc func(ctx context.Context) error

// Transaction runs fn inside a transaction. It commits when fn returns nil and
// rolls back when fn returns an error or panics.
func (c *Client) Transaction(ctx context.Context, fn TransactionFunc) error {
	if err := c.BeginTransaction(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = c.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(ctx); err != nil {
		if rbErr := c.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := c.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
