// Package databasetest provides an in-memory database.Conn that records every
// statement it receives.
package databasetest

import (
	"context"
	"sync"

	"github.com/satishbabariya/wporm/database"
	"github.com/satishbabariya/wporm/runtime"
)

// Call is one recorded collaborator invocation.
type Call struct {
	Method string
	SQL    string
	Args   []any
	Table  string
	Values map[string]any
	Where  map[string]any
}

// Conn is a scriptable database.Conn. Results come from the Rows and Scalar
// hooks; Err, when set, fails every statement.
type Conn struct {
	TablePrefix string
	Rows        func(query string, args []any) []database.Row
	Scalar      func(query string, args []any) any
	NextID      int64
	Affected    int64
	Err         error

	mu    sync.Mutex
	calls []Call
	tx    bool
}

// New returns a fake using prefix as table prefix.
func New(prefix string) *Conn {
	return &Conn{TablePrefix: prefix, NextID: 1, Affected: 1}
}

// Row builds a database.Row from alternating column/value pairs.
func Row(pairs ...any) database.Row {
	r := database.Row{Values: make(map[string]any, len(pairs)/2)}
	for i := 0; i+1 < len(pairs); i += 2 {
		col := pairs[i].(string)
		r.Columns = append(r.Columns, col)
		r.Values[col] = pairs[i+1]
	}
	return r
}

// Calls returns a copy of the recorded calls.
func (c *Conn) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// Queries returns the SQL text of every recorded call that carried one.
func (c *Conn) Queries() []string {
	var out []string
	for _, call := range c.Calls() {
		if call.SQL != "" {
			out = append(out, call.SQL)
		}
	}
	return out
}

// Reset forgets recorded calls.
func (c *Conn) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = nil
}

// InTransaction reports whether Begin was called without Commit or Rollback.
func (c *Conn) InTransaction() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tx
}

func (c *Conn) record(call Call) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
}

func (c *Conn) rows(query string, args []any) ([]database.Row, error) {
	c.record(Call{Method: "query", SQL: query, Args: args})
	if c.Err != nil {
		return nil, c.Err
	}
	if c.Rows == nil {
		return nil, nil
	}
	return c.Rows(query, args), nil
}

// Prefix implements database.Conn.
func (c *Conn) Prefix() string { return c.TablePrefix }

// QueryScalar implements database.Conn.
func (c *Conn) QueryScalar(ctx context.Context, query string, args ...any) (any, error) {
	c.record(Call{Method: "scalar", SQL: query, Args: args})
	if c.Err != nil {
		return nil, c.Err
	}
	if c.Scalar == nil {
		return nil, nil
	}
	return c.Scalar(query, args), nil
}

// QueryRow implements database.Conn.
func (c *Conn) QueryRow(ctx context.Context, query string, args ...any) (*database.Row, error) {
	rows, err := c.rows(query, args)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// QueryRows implements database.Conn.
func (c *Conn) QueryRows(ctx context.Context, query string, args ...any) ([]database.Row, error) {
	return c.rows(query, args)
}

// QueryColumn implements database.Conn.
func (c *Conn) QueryColumn(ctx context.Context, query string, args ...any) ([]any, error) {
	rows, err := c.rows(query, args)
	if err != nil {
		return nil, err
	}
	var out []any
	for _, r := range rows {
		if len(r.Columns) > 0 {
			out = append(out, r.Values[r.Columns[0]])
		}
	}
	return out, nil
}

// Insert implements database.Conn.
func (c *Conn) Insert(ctx context.Context, table, primaryKey string, values map[string]any) (int64, error) {
	c.record(Call{Method: "insert", Table: table, Values: values})
	if c.Err != nil {
		return 0, c.Err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.NextID
	c.NextID++
	return id, nil
}

// Update implements database.Conn.
func (c *Conn) Update(ctx context.Context, table string, values, where map[string]any) (int64, error) {
	c.record(Call{Method: "update", Table: table, Values: values, Where: where})
	if c.Err != nil {
		return 0, c.Err
	}
	return c.Affected, nil
}

// Delete implements database.Conn.
func (c *Conn) Delete(ctx context.Context, table string, where map[string]any) (int64, error) {
	c.record(Call{Method: "delete", Table: table, Where: where})
	if c.Err != nil {
		return 0, c.Err
	}
	return c.Affected, nil
}

// Exec implements database.Conn.
func (c *Conn) Exec(ctx context.Context, command string, args ...any) error {
	c.record(Call{Method: "exec", SQL: command, Args: args})
	return c.Err
}

// Begin implements database.Conn.
func (c *Conn) Begin(ctx context.Context) error {
	c.record(Call{Method: "begin"})
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tx {
		return runtime.ErrTransactionActive
	}
	c.tx = true
	return nil
}

// Commit implements database.Conn.
func (c *Conn) Commit(ctx context.Context) error {
	return c.finish("commit")
}

// Rollback implements database.Conn.
func (c *Conn) Rollback(ctx context.Context) error {
	return c.finish("rollback")
}

func (c *Conn) finish(method string) error {
	c.record(Call{Method: method})
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.tx {
		return runtime.ErrNoTransaction
	}
	c.tx = false
	return nil
}

var _ database.Conn = (*Conn)(nil)
