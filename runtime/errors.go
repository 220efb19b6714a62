// Package runtime provides the error taxonomy shared by the builder, the executor
// and the database adapter.
package runtime

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for runtime operations.
var (
	// ErrInvalidQuery is returned when builder input is structurally invalid.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrQueryExecutionFailed is matched by every QueryError.
	ErrQueryExecutionFailed = errors.New("query execution failed")

	// ErrUniqueConstraint is returned when a unique constraint is violated.
	ErrUniqueConstraint = errors.New("unique constraint violation")

	// ErrForeignKeyConstraint is returned when a foreign key constraint is violated.
	ErrForeignKeyConstraint = errors.New("foreign key constraint violation")

	// ErrNullConstraint is returned when a null constraint is violated.
	ErrNullConstraint = errors.New("null constraint violation")

	// ErrConnectionFailed is returned when database connection fails.
	ErrConnectionFailed = errors.New("database connection failed")

	// ErrTransactionActive is returned when Begin is called inside an open transaction.
	ErrTransactionActive = errors.New("transaction already active")

	// ErrNoTransaction is returned by Commit and Rollback without an open transaction.
	ErrNoTransaction = errors.New("no active transaction")

	// ErrUnknownEntity is returned when a builder is requested for an undefined entity.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrUnknownRelation is returned by explicit relation loads of an undefined name.
	ErrUnknownRelation = errors.New("unknown relation")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("operation timeout")

	// ErrCanceled is returned when an operation is canceled.
	ErrCanceled = errors.New("operation canceled")
)

// ValidationError reports malformed builder input. It is raised before any
// statement reaches the database.
type ValidationError struct {
	Op     string
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// Is reports ErrInvalidQuery.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidQuery
}

// NewValidationError creates a new ValidationError.
func NewValidationError(op, field, reason string) *ValidationError {
	return &ValidationError{Op: op, Field: field, Reason: reason}
}

// QueryError represents a failed statement with the SQL that produced it.
type QueryError struct {
	Operation string
	Model     string
	Query     string
	Args      []any
	Cause     error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	var b strings.Builder
	b.WriteString(e.Operation)
	if e.Model != "" {
		b.WriteString(" on ")
		b.WriteString(e.Model)
	}
	if e.Query != "" {
		b.WriteString(" [")
		b.WriteString(e.Query)
		b.WriteString("]")
	}
	fmt.Fprintf(&b, ": %v", e.Cause)
	return b.String()
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Cause
}

// Is matches ErrQueryExecutionFailed and anything the cause matches.
func (e *QueryError) Is(target error) bool {
	if target == ErrQueryExecutionFailed {
		return true
	}
	return errors.Is(e.Cause, target)
}

// NewQueryError creates a new QueryError.
func NewQueryError(op, model, query string, args []any, cause error) *QueryError {
	return &QueryError{
		Operation: op,
		Model:     model,
		Query:     query,
		Args:      args,
		Cause:     cause,
	}
}

// IsValidation checks if an error is a builder validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidQuery)
}

// IsExecution checks if an error came from the database collaborator.
func IsExecution(err error) bool {
	return errors.Is(err, ErrQueryExecutionFailed)
}

// IsUniqueConstraint checks if an error is a unique constraint violation.
func IsUniqueConstraint(err error) bool {
	return errors.Is(err, ErrUniqueConstraint)
}

// IsForeignKeyConstraint checks if an error is a foreign key constraint violation.
func IsForeignKeyConstraint(err error) bool {
	return errors.Is(err, ErrForeignKeyConstraint)
}
