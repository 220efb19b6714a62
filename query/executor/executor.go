// Package executor runs compiled statements against a database.Conn and maps
// result rows to model instances.
package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/satishbabariya/wporm/database"
	"github.com/satishbabariya/wporm/internal/debug"
	"github.com/satishbabariya/wporm/model"
	"github.com/satishbabariya/wporm/query/sqlgen"
	"github.com/satishbabariya/wporm/runtime"
)

// Executor executes statements and hydrates results
type Executor struct {
	conn     database.Conn
	registry *model.Registry
	resolver *Resolver
}

// New creates an executor over conn. Relations are resolved against registry.
func New(conn database.Conn, registry *model.Registry) *Executor {
	return &Executor{
		conn:     conn,
		registry: registry,
		resolver: NewResolver(conn, registry),
	}
}

// Conn returns the database collaborator.
func (e *Executor) Conn() database.Conn { return e.conn }

// Registry returns the entity registry.
func (e *Executor) Registry() *model.Registry { return e.registry }

// Resolver returns the relation resolver.
func (e *Executor) Resolver() *Resolver { return e.resolver }

// Table returns the prefixed table name of ent.
func (e *Executor) Table(ent *model.Entity) string {
	return e.conn.Prefix() + ent.Table()
}

// FindOne runs stmt and hydrates the first row. A missing row yields nil, nil.
func (e *Executor) FindOne(ctx context.Context, op string, ent *model.Entity, stmt sqlgen.Statement, with []string) (*model.Instance, error) {
	row, err := e.conn.QueryRow(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, wrap(op, ent, stmt, err)
	}
	if row == nil {
		return nil, nil
	}

	inst, err := model.Hydrate(ent, row.Columns, row.Values)
	if err != nil {
		return nil, err
	}
	if err := e.EagerLoad(ctx, []*model.Instance{inst}, with); err != nil {
		return nil, err
	}
	return inst, nil
}

// FindMany runs stmt and hydrates every row in result order.
func (e *Executor) FindMany(ctx context.Context, op string, ent *model.Entity, stmt sqlgen.Statement, with []string) ([]*model.Instance, error) {
	rows, err := e.conn.QueryRows(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, wrap(op, ent, stmt, err)
	}

	out, err := hydrateRows(ent, rows)
	if err != nil {
		return nil, err
	}
	if err := e.EagerLoad(ctx, out, with); err != nil {
		return nil, err
	}
	return out, nil
}

// Scalar runs stmt and returns the first column of the first row.
func (e *Executor) Scalar(ctx context.Context, op string, ent *model.Entity, stmt sqlgen.Statement) (any, error) {
	v, err := e.conn.QueryScalar(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, wrap(op, ent, stmt, err)
	}
	return v, nil
}

// Column runs stmt and returns the first column of every row.
func (e *Executor) Column(ctx context.Context, op string, ent *model.Entity, stmt sqlgen.Statement) ([]any, error) {
	values, err := e.conn.QueryColumn(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, wrap(op, ent, stmt, err)
	}
	if values == nil {
		values = []any{}
	}
	return values, nil
}

// Insert inserts values and returns the generated primary key.
func (e *Executor) Insert(ctx context.Context, ent *model.Entity, values map[string]any) (int64, error) {
	id, err := e.conn.Insert(ctx, e.Table(ent), ent.PrimaryKey(), values)
	if err != nil {
		return 0, wrap("create", ent, sqlgen.Statement{}, err)
	}
	return id, nil
}

// Update sets values on the row whose primary key equals id.
func (e *Executor) Update(ctx context.Context, ent *model.Entity, id any, values map[string]any) (int64, error) {
	n, err := e.conn.Update(ctx, e.Table(ent), values, map[string]any{ent.PrimaryKey(): id})
	if err != nil {
		return 0, wrap("update", ent, sqlgen.Statement{}, err)
	}
	return n, nil
}

// Delete removes the row whose primary key equals id.
func (e *Executor) Delete(ctx context.Context, ent *model.Entity, id any) (int64, error) {
	n, err := e.conn.Delete(ctx, e.Table(ent), map[string]any{ent.PrimaryKey(): id})
	if err != nil {
		return 0, wrap("delete", ent, sqlgen.Statement{}, err)
	}
	return n, nil
}

// Exec runs a raw command.
func (e *Executor) Exec(ctx context.Context, command string, args ...any) error {
	if err := e.conn.Exec(ctx, command, args...); err != nil {
		return wrap("exec", nil, sqlgen.Statement{SQL: command, Args: args}, err)
	}
	return nil
}

// EagerLoad resolves every named relation on every instance. Names the entity
// does not define are logged and skipped.
func (e *Executor) EagerLoad(ctx context.Context, instances []*model.Instance, names []string) error {
	if len(instances) == 0 || len(names) == 0 {
		return nil
	}

	ent := instances[0].Entity()
	for _, name := range names {
		rel, ok := ent.Relation(name)
		if !ok {
			debug.Warn("unknown relation", "entity", ent.Name(), "relation", name)
			continue
		}
		for _, inst := range instances {
			related, err := e.resolver.Resolve(ctx, inst, rel)
			if err != nil {
				return err
			}
			inst.Attach(name, related)
		}
	}
	return nil
}

func hydrateRows(ent *model.Entity, rows []database.Row) ([]*model.Instance, error) {
	out := make([]*model.Instance, 0, len(rows))
	for _, row := range rows {
		inst, err := model.Hydrate(ent, row.Columns, row.Values)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, nil
}

// wrap turns a collaborator failure into a QueryError. A StatementError is
// unpacked so the rebound SQL the connection actually sent is reported once.
func wrap(op string, ent *model.Entity, stmt sqlgen.Statement, err error) error {
	if err == nil {
		return nil
	}

	query, args := stmt.SQL, stmt.Args
	var se *database.StatementError
	if errors.As(err, &se) {
		query, args, err = se.SQL, se.Args, se.Err
	}

	name := ""
	if ent != nil {
		name = ent.Name()
	}
	return runtime.NewQueryError(op, name, query, args, err)
}

func unknownEntity(name string) error {
	return fmt.Errorf("%w: %s", runtime.ErrUnknownEntity, name)
}
