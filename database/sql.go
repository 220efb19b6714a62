package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	sq "github.com/Masterminds/squirrel"

	"github.com/satishbabariya/wporm/runtime"
)

// querier is implemented by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SQL implements Conn over a database/sql handle. While a transaction is open
// every statement runs on the pinned *sql.Tx.
type SQL struct {
	db          *sql.DB
	provider    Provider
	prefix      string
	stmt        sq.StatementBuilderType
	middlewares []Middleware

	mu sync.Mutex
	tx *sql.Tx

	featureMu sync.Mutex
	rightJoin *bool
}

// Option configures the SQL adapter.
type Option func(*SQL)

// WithPrefix sets the table prefix.
func WithPrefix(prefix string) Option {
	return func(s *SQL) {
		s.prefix = prefix
	}
}

// WithMiddleware appends statement middlewares.
func WithMiddleware(mw ...Middleware) Option {
	return func(s *SQL) {
		s.middlewares = append(s.middlewares, mw...)
	}
}

// New wraps an open *sql.DB.
func New(db *sql.DB, provider Provider, opts ...Option) *SQL {
	s := &SQL{
		db:       db,
		provider: provider,
		stmt:     sq.StatementBuilder.PlaceholderFormat(placeholderFormat(provider)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open opens and pings a connection described by cfg.
func Open(ctx context.Context, cfg Config, opts ...Option) (*SQL, error) {
	provider, err := ParseProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}
	dsn, err := cfg.DSN(provider)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(provider.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", runtime.ErrConnectionFailed, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", runtime.ErrConnectionFailed, err)
	}

	opts = append([]Option{WithPrefix(cfg.Prefix)}, opts...)
	return New(db, provider, opts...), nil
}

func placeholderFormat(p Provider) sq.PlaceholderFormat {
	if p == PostgreSQL {
		return sq.Dollar
	}
	return sq.Question
}

// DB returns the underlying handle.
func (s *SQL) DB() *sql.DB { return s.db }

// Provider returns the dialect.
func (s *SQL) Provider() Provider { return s.provider }

// Prefix implements Conn.
func (s *SQL) Prefix() string { return s.prefix }

// Close closes the underlying handle, rolling back an open transaction first.
func (s *SQL) Close() error {
	s.mu.Lock()
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}
	s.mu.Unlock()
	return s.db.Close()
}

func (s *SQL) current() querier {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *SQL) rebind(query string) (string, error) {
	if s.provider != PostgreSQL {
		return query, nil
	}
	return sq.Dollar.ReplacePlaceholders(query)
}

// QueryScalar implements Conn.
func (s *SQL) QueryScalar(ctx context.Context, query string, args ...any) (any, error) {
	row, err := s.QueryRow(ctx, query, args...)
	if err != nil || row == nil || len(row.Columns) == 0 {
		return nil, err
	}
	return row.Values[row.Columns[0]], nil
}

// QueryRow implements Conn.
func (s *SQL) QueryRow(ctx context.Context, query string, args ...any) (*Row, error) {
	rows, err := s.query(ctx, "query_row", query, args, 1)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// QueryRows implements Conn.
func (s *SQL) QueryRows(ctx context.Context, query string, args ...any) ([]Row, error) {
	return s.query(ctx, "query_rows", query, args, 0)
}

// QueryColumn implements Conn.
func (s *SQL) QueryColumn(ctx context.Context, query string, args ...any) ([]any, error) {
	rows, err := s.query(ctx, "query_column", query, args, 0)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(rows))
	for _, r := range rows {
		if len(r.Columns) > 0 {
			out = append(out, r.Values[r.Columns[0]])
		}
	}
	return out, nil
}

func (s *SQL) query(ctx context.Context, op, query string, args []any, max int) ([]Row, error) {
	bound, err := s.rebind(query)
	if err != nil {
		return nil, &StatementError{SQL: query, Args: args, Err: err}
	}

	var out []Row
	err = s.run(ctx, op, bound, args, func() error {
		rows, err := s.current().QueryContext(ctx, bound, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out, err = scanRows(rows, max)
		return err
	})
	if err != nil {
		return nil, &StatementError{SQL: bound, Args: args, Err: classify(err)}
	}
	return out, nil
}

func scanRows(rows *sql.Rows, max int) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}

		row := Row{Columns: columns, Values: make(map[string]any, len(columns))}
		for i, col := range columns {
			row.Values[col] = values[i]
		}
		out = append(out, row)

		if max > 0 && len(out) == max {
			break
		}
	}
	return out, rows.Err()
}

// Insert implements Conn.
func (s *SQL) Insert(ctx context.Context, table, primaryKey string, values map[string]any) (int64, error) {
	b := s.stmt.Insert(table).SetMap(values)
	if s.provider.Returning() {
		b = b.Suffix("RETURNING " + primaryKey)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return 0, &StatementError{SQL: "INSERT INTO " + table, Err: err}
	}

	var id int64
	err = s.run(ctx, "insert", query, args, func() error {
		if s.provider.Returning() {
			return s.current().QueryRowContext(ctx, query, args...).Scan(&id)
		}
		res, err := s.current().ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, &StatementError{SQL: query, Args: args, Err: classify(err)}
	}
	return id, nil
}

// Update implements Conn.
func (s *SQL) Update(ctx context.Context, table string, values, where map[string]any) (int64, error) {
	query, args, err := s.stmt.Update(table).SetMap(values).Where(sq.Eq(where)).ToSql()
	if err != nil {
		return 0, &StatementError{SQL: "UPDATE " + table, Err: err}
	}
	return s.affected(ctx, "update", query, args)
}

// Delete implements Conn.
func (s *SQL) Delete(ctx context.Context, table string, where map[string]any) (int64, error) {
	if len(where) == 0 {
		return 0, &StatementError{SQL: "DELETE FROM " + table, Err: fmt.Errorf("refusing to delete without a condition")}
	}
	query, args, err := s.stmt.Delete(table).Where(sq.Eq(where)).ToSql()
	if err != nil {
		return 0, &StatementError{SQL: "DELETE FROM " + table, Err: err}
	}
	return s.affected(ctx, "delete", query, args)
}

func (s *SQL) affected(ctx context.Context, op, query string, args []any) (int64, error) {
	var n int64
	err := s.run(ctx, op, query, args, func() error {
		res, err := s.current().ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, &StatementError{SQL: query, Args: args, Err: classify(err)}
	}
	return n, nil
}

// Exec implements Conn.
func (s *SQL) Exec(ctx context.Context, command string, args ...any) error {
	bound, err := s.rebind(command)
	if err != nil {
		return &StatementError{SQL: command, Args: args, Err: err}
	}
	err = s.run(ctx, "exec", bound, args, func() error {
		_, err := s.current().ExecContext(ctx, bound, args...)
		return err
	})
	if err != nil {
		return &StatementError{SQL: bound, Args: args, Err: classify(err)}
	}
	return nil
}

// Begin implements Conn. The transaction lives as long as ctx; canceling ctx
// rolls it back.
func (s *SQL) Begin(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx != nil {
		return runtime.ErrTransactionActive
	}
	return s.run(ctx, "begin", "BEGIN", nil, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return classify(err)
		}
		s.tx = tx
		return nil
	})
}

// Commit implements Conn.
func (s *SQL) Commit(ctx context.Context) error {
	return s.finish(ctx, "commit", (*sql.Tx).Commit)
}

// Rollback implements Conn.
func (s *SQL) Rollback(ctx context.Context) error {
	return s.finish(ctx, "rollback", (*sql.Tx).Rollback)
}

func (s *SQL) finish(ctx context.Context, op string, end func(*sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return runtime.ErrNoTransaction
	}
	tx := s.tx
	s.tx = nil
	return s.run(ctx, op, op, nil, func() error {
		return classify(end(tx))
	})
}

// InTransaction reports whether a transaction is open.
func (s *SQL) InTransaction() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx != nil
}

var _ Conn = (*SQL)(nil)
