// Package builder provides a fluent query builder API bound to one entity.
package builder

import (
	"github.com/satishbabariya/wporm/model"
	"github.com/satishbabariya/wporm/query/executor"
	"github.com/satishbabariya/wporm/query/sqlgen"
	"github.com/satishbabariya/wporm/runtime"
)

// QueryBuilder accumulates clauses for one entity and runs terminal operations.
// It is not safe for concurrent use.
//
// By default clause state is cleared after every terminal call. With
// RetainState the state survives terminals and keeps accumulating.
type QueryBuilder struct {
	entity *model.Entity
	exec   *executor.Executor
	state  *sqlgen.State
	retain bool
	err    error
}

// Option configures a QueryBuilder.
type Option func(*QueryBuilder)

// RetainState keeps clause state across terminal calls.
func RetainState() Option {
	return func(b *QueryBuilder) {
		b.retain = true
	}
}

// New creates a builder for entity.
func New(exec *executor.Executor, entity *model.Entity, opts ...Option) *QueryBuilder {
	b := &QueryBuilder{
		entity: entity,
		exec:   exec,
		state:  sqlgen.NewState(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Entity returns the entity the builder is bound to.
func (b *QueryBuilder) Entity() *model.Entity { return b.entity }

// Table returns the prefixed table name.
func (b *QueryBuilder) Table() string { return b.exec.Table(b.entity) }

// State returns a copy of the accumulated clause state.
func (b *QueryBuilder) State() *sqlgen.State { return b.state.Clone() }

// Err returns the first validation error recorded by a chain method.
func (b *QueryBuilder) Err() error { return b.err }

// Select sets the projection. No columns selects *.
func (b *QueryBuilder) Select(columns ...string) *QueryBuilder {
	b.state.Columns = append([]string(nil), columns...)
	return b
}

// Distinct marks the projection DISTINCT.
func (b *QueryBuilder) Distinct() *QueryBuilder {
	b.state.Distinct = true
	return b
}

// Limit sets LIMIT. Negative values clamp to 0.
func (b *QueryBuilder) Limit(n int) *QueryBuilder {
	n = max(n, 0)
	b.state.Limit = &n
	return b
}

// Offset sets OFFSET. Negative values clamp to 0.
func (b *QueryBuilder) Offset(n int) *QueryBuilder {
	n = max(n, 0)
	b.state.Offset = &n
	return b
}

// With replaces the set of relations loaded eagerly by Get, GetAll and First.
func (b *QueryBuilder) With(relations ...string) *QueryBuilder {
	b.state.With = append([]string(nil), relations...)
	return b
}

// Reset clears all clause state and any recorded error.
func (b *QueryBuilder) Reset() *QueryBuilder {
	b.state = sqlgen.NewState()
	b.err = nil
	return b
}

// Clone returns an independent builder with a copy of the current state.
func (b *QueryBuilder) Clone() *QueryBuilder {
	return &QueryBuilder{
		entity: b.entity,
		exec:   b.exec,
		state:  b.state.Clone(),
		retain: b.retain,
		err:    b.err,
	}
}

// ToSQL compiles what GetAll would run without executing it.
func (b *QueryBuilder) ToSQL() (sqlgen.Statement, error) {
	if b.err != nil {
		return sqlgen.Statement{}, b.err
	}
	return sqlgen.Select(b.Table(), b.state), nil
}

func (b *QueryBuilder) fail(op, field, reason string) *QueryBuilder {
	if b.err == nil {
		b.err = runtime.NewValidationError(op, field, reason)
	}
	return b
}

// finish ends a terminal call.
func (b *QueryBuilder) finish() {
	if !b.retain {
		b.Reset()
	}
}
