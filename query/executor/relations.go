package executor

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/satishbabariya/wporm/database"
	"github.com/satishbabariya/wporm/model"
	"github.com/satishbabariya/wporm/query/sqlgen"
	"github.com/satishbabariya/wporm/runtime"
)

// Resolver loads related instances for relation descriptors.
type Resolver struct {
	conn     database.Conn
	registry *model.Registry
	stmt     sq.StatementBuilderType
}

// NewResolver creates a resolver. Statements are generated with ? placeholders
// and rebound by the connection.
func NewResolver(conn database.Conn, registry *model.Registry) *Resolver {
	return &Resolver{
		conn:     conn,
		registry: registry,
		stmt:     sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

// Load resolves the named relations on inst. Unlike eager loading, an unknown
// name is an error.
func (r *Resolver) Load(ctx context.Context, inst *model.Instance, names ...string) error {
	ent := inst.Entity()
	for _, name := range names {
		rel, ok := ent.Relation(name)
		if !ok {
			return fmt.Errorf("%w: %s.%s", runtime.ErrUnknownRelation, ent.Name(), name)
		}
		related, err := r.Resolve(ctx, inst, rel)
		if err != nil {
			return err
		}
		inst.Attach(name, related)
	}
	return nil
}

// Resolve runs the statement for one relation of one instance. A missing or NULL
// local key resolves to the empty result without querying.
func (r *Resolver) Resolve(ctx context.Context, inst *model.Instance, rel model.Relation) (model.Related, error) {
	out := model.Related{Kind: rel.Kind}
	if rel.Many() {
		out.Many = []*model.Instance{}
	}

	related, ok := r.registry.Entity(rel.Related)
	if !ok {
		return out, unknownEntity(rel.Related)
	}

	key, ok := inst.Get(rel.LocalKey)
	if !ok || key == nil {
		return out, nil
	}

	stmt, err := r.Statement(related, rel, key)
	if err != nil {
		return out, err
	}

	op := "load " + rel.Name
	if !rel.Many() {
		row, err := r.conn.QueryRow(ctx, stmt.SQL, stmt.Args...)
		if err != nil {
			return out, wrap(op, related, stmt, err)
		}
		if row == nil {
			return out, nil
		}
		out.One, err = model.Hydrate(related, row.Columns, row.Values)
		return out, err
	}

	rows, err := r.conn.QueryRows(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return out, wrap(op, related, stmt, err)
	}
	many, err := hydrateRows(related, rows)
	if err != nil {
		return out, err
	}
	out.Many = many
	return out, nil
}

// Statement builds the query resolving rel for the local key value key.
func (r *Resolver) Statement(related *model.Entity, rel model.Relation, key any) (sqlgen.Statement, error) {
	table := r.conn.Prefix() + related.Table()

	var b sq.SelectBuilder
	switch rel.Kind {
	case model.HasOne:
		b = r.stmt.Select("*").From(table).Where(sq.Eq{rel.ForeignKey: key}).Limit(1)
	case model.HasMany:
		b = r.stmt.Select("*").From(table).Where(sq.Eq{rel.ForeignKey: key})
	case model.BelongsToMany:
		pivot := r.conn.Prefix() + rel.Pivot
		b = r.stmt.Select(table+".*").
			From(table).
			InnerJoin(fmt.Sprintf("%s ON %s.%s = %s.%s", pivot, table, rel.RelatedKey, pivot, rel.RelatedPivotKey)).
			Where(sq.Eq{pivot + "." + rel.ForeignPivotKey: key})
	default:
		return sqlgen.Statement{}, fmt.Errorf("unsupported relation kind %q", rel.Kind)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return sqlgen.Statement{}, fmt.Errorf("build %s relation %s: %w", rel.Kind, rel.Name, err)
	}
	return sqlgen.Statement{SQL: query, Args: args}, nil
}
