// Package client provides the entry point tying the registry, the executor and
// a database connection together.
package client

import (
	"context"
	"fmt"
	"io"

	"github.com/satishbabariya/wporm/database"
	"github.com/satishbabariya/wporm/model"
	"github.com/satishbabariya/wporm/query/builder"
	"github.com/satishbabariya/wporm/query/executor"
	"github.com/satishbabariya/wporm/runtime"
)

// Client is the main database client
type Client struct {
	conn     database.Conn
	registry *model.Registry
	exec     *executor.Executor

	builderOpts []builder.Option
	middlewares []database.Middleware
}

// Option configures a Client.
type Option func(*Client)

// WithRetainedState makes builders keep clause state across terminal calls.
func WithRetainedState() Option {
	return func(c *Client) {
		c.builderOpts = append(c.builderOpts, builder.RetainState())
	}
}

// WithMiddleware adds statement middlewares to connections opened by Open.
func WithMiddleware(mw ...database.Middleware) Option {
	return func(c *Client) {
		c.middlewares = append(c.middlewares, mw...)
	}
}

// New creates a client over an existing connection.
func New(conn database.Conn, registry *model.Registry, opts ...Option) *Client {
	c := &Client{
		conn:     conn,
		registry: registry,
		exec:     executor.New(conn, registry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open connects to the database described by cfg. Every statement is logged at
// debug level.
func Open(ctx context.Context, cfg database.Config, registry *model.Registry, opts ...Option) (*Client, error) {
	if err := registry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model registry: %w", err)
	}

	probe := &Client{}
	for _, opt := range opts {
		opt(probe)
	}
	mws := append([]database.Middleware{database.LoggingMiddleware()}, probe.middlewares...)

	conn, err := database.Open(ctx, cfg, database.WithMiddleware(mws...))
	if err != nil {
		return nil, err
	}
	return New(conn, registry, opts...), nil
}

// Model returns a fresh builder for the entity registered under name.
func (c *Client) Model(name string) (*builder.QueryBuilder, error) {
	e, ok := c.registry.Entity(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", runtime.ErrUnknownEntity, name)
	}
	return c.Query(e), nil
}

// Query returns a fresh builder for e.
func (c *Client) Query(e *model.Entity) *builder.QueryBuilder {
	return builder.New(c.exec, e, c.builderOpts...)
}

// Load resolves relations on an already hydrated instance.
func (c *Client) Load(ctx context.Context, inst *model.Instance, relations ...string) error {
	return c.exec.Resolver().Load(ctx, inst, relations...)
}

// Exec runs a raw command on the connection.
func (c *Client) Exec(ctx context.Context, command string, args ...any) error {
	return c.exec.Exec(ctx, command, args...)
}

// Registry returns the entity registry.
func (c *Client) Registry() *model.Registry { return c.registry }

// Conn returns the database connection.
func (c *Client) Conn() database.Conn { return c.conn }

// Executor returns the statement executor.
func (c *Client) Executor() *executor.Executor { return c.exec }

// Close closes the connection when it owns resources.
func (c *Client) Close() error {
	if closer, ok := c.conn.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
