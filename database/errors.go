package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/satishbabariya/wporm/runtime"
)

// StatementError carries the statement a driver call failed on.
type StatementError struct {
	SQL  string
	Args []any
	Err  error
}

// Error implements the error interface.
func (e *StatementError) Error() string {
	return fmt.Sprintf("%s: %v", e.SQL, e.Err)
}

// Unwrap returns the classified driver error.
func (e *StatementError) Unwrap() error {
	return e.Err
}

// classify tags driver errors with the runtime sentinel they correspond to,
// keeping the original error in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if sentinel := sentinelFor(err); sentinel != nil && !errors.Is(err, sentinel) {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return err
}

func sentinelFor(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return runtime.ErrTimeout
	case errors.Is(err, context.Canceled):
		return runtime.ErrCanceled
	case errors.Is(err, driver.ErrBadConn):
		return runtime.ErrConnectionFailed
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1062:
			return runtime.ErrUniqueConstraint
		case 1216, 1217, 1451, 1452:
			return runtime.ErrForeignKeyConstraint
		case 1048, 1364:
			return runtime.ErrNullConstraint
		}
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return runtime.ErrUniqueConstraint
		case "23503":
			return runtime.ErrForeignKeyConstraint
		case "23502":
			return runtime.ErrNullConstraint
		}
		if pqErr.Code.Class() == "08" {
			return runtime.ErrConnectionFailed
		}
		return nil
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return runtime.ErrUniqueConstraint
		case sqlite3.ErrConstraintForeignKey:
			return runtime.ErrForeignKeyConstraint
		case sqlite3.ErrConstraintNotNull:
			return runtime.ErrNullConstraint
		}
		return nil
	}

	// Drivers without typed errors (duckdb) only expose the message.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint"):
		return runtime.ErrUniqueConstraint
	case strings.Contains(msg, "foreign key constraint"):
		return runtime.ErrForeignKeyConstraint
	case strings.Contains(msg, "not null constraint"):
		return runtime.ErrNullConstraint
	case strings.Contains(msg, "connection refused"):
		return runtime.ErrConnectionFailed
	}
	return nil
}
