package builder

import (
	"context"
	"fmt"

	"github.com/spf13/cast"

	"github.com/satishbabariya/wporm/database"
	"github.com/satishbabariya/wporm/model"
	"github.com/satishbabariya/wporm/query/sqlgen"
	"github.com/satishbabariya/wporm/runtime"
)

// check returns the recorded validation error, or a dialect error when the
// state uses a join the server cannot run.
func (b *QueryBuilder) check(ctx context.Context) error {
	if b.err != nil {
		return b.err
	}
	if !b.state.HasJoin(sqlgen.RightJoin) {
		return nil
	}

	prober, ok := b.exec.Conn().(database.FeatureProber)
	if !ok {
		return nil
	}
	supported, err := prober.SupportsRightJoin(ctx)
	if err != nil {
		return runtime.NewQueryError("rightJoin", b.entity.Name(), "", nil, err)
	}
	if !supported {
		return runtime.NewValidationError("rightJoin", "", "RIGHT JOIN is not supported by this server version")
	}
	return nil
}

// Get fetches the row whose primary key equals id. Where and join clauses are
// ignored; the projection and eager-load set apply. A missing row yields nil, nil.
func (b *QueryBuilder) Get(ctx context.Context, id any) (*model.Instance, error) {
	defer b.finish()
	if b.err != nil {
		return nil, b.err
	}

	stmt := sqlgen.Find(b.Table(), b.entity.PrimaryKey(), id, b.state)
	return b.exec.FindOne(ctx, "get", b.entity, stmt, b.state.With)
}

// GetAll fetches every row matching the accumulated clauses.
func (b *QueryBuilder) GetAll(ctx context.Context) ([]*model.Instance, error) {
	defer b.finish()
	if err := b.check(ctx); err != nil {
		return nil, err
	}

	stmt := sqlgen.Select(b.Table(), b.state)
	return b.exec.FindMany(ctx, "getAll", b.entity, stmt, b.state.With)
}

// First fetches the first matching row, replacing any limit with 1.
func (b *QueryBuilder) First(ctx context.Context) (*model.Instance, error) {
	defer b.finish()
	if err := b.check(ctx); err != nil {
		return nil, err
	}

	stmt := sqlgen.First(b.Table(), b.state)
	return b.exec.FindOne(ctx, "first", b.entity, stmt, b.state.With)
}

func (b *QueryBuilder) aggregate(ctx context.Context, op, fn, column string) (any, error) {
	if err := b.check(ctx); err != nil {
		return nil, err
	}
	if column == "" {
		return nil, runtime.NewValidationError(op, "", "column is required")
	}

	stmt := sqlgen.Aggregate(b.Table(), fn, column, b.state)
	return b.exec.Scalar(ctx, op, b.entity, stmt)
}

func (b *QueryBuilder) count(ctx context.Context, op string) (int64, error) {
	v, err := b.aggregate(ctx, op, "COUNT", "*")
	if err != nil {
		return 0, err
	}
	n, err := cast.ToInt64E(scalar(v))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// Count returns the number of rows matching the join and where clauses.
func (b *QueryBuilder) Count(ctx context.Context) (int64, error) {
	defer b.finish()
	return b.count(ctx, "count")
}

// Exists reports whether Count is positive.
func (b *QueryBuilder) Exists(ctx context.Context) (bool, error) {
	defer b.finish()
	n, err := b.count(ctx, "exists")
	return n > 0, err
}

func (b *QueryBuilder) number(ctx context.Context, op, fn, column string) (float64, error) {
	v, err := b.aggregate(ctx, op, fn, column)
	if err != nil {
		return 0, err
	}
	f, err := cast.ToFloat64E(scalar(v))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return f, nil
}

// Avg returns AVG(column); 0 when no rows match.
func (b *QueryBuilder) Avg(ctx context.Context, column string) (float64, error) {
	defer b.finish()
	return b.number(ctx, "avg", "AVG", column)
}

// Sum returns SUM(column); 0 when no rows match.
func (b *QueryBuilder) Sum(ctx context.Context, column string) (float64, error) {
	defer b.finish()
	return b.number(ctx, "sum", "SUM", column)
}

// Max returns MAX(column) as the driver reports it; nil when no rows match.
func (b *QueryBuilder) Max(ctx context.Context, column string) (any, error) {
	defer b.finish()
	v, err := b.aggregate(ctx, "max", "MAX", column)
	return scalar(v), err
}

// Min returns MIN(column) as the driver reports it; nil when no rows match.
func (b *QueryBuilder) Min(ctx context.Context, column string) (any, error) {
	defer b.finish()
	v, err := b.aggregate(ctx, "min", "MIN", column)
	return scalar(v), err
}

// Pluck returns the values of one column over the full clause set. Select and
// Distinct are ignored.
func (b *QueryBuilder) Pluck(ctx context.Context, column string) ([]any, error) {
	defer b.finish()
	if err := b.check(ctx); err != nil {
		return nil, err
	}
	if column == "" {
		return nil, runtime.NewValidationError("pluck", "", "column is required")
	}

	stmt := sqlgen.Pluck(b.Table(), column, b.state)
	values, err := b.exec.Column(ctx, "pluck", b.entity, stmt)
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		values[i] = scalar(v)
	}
	return values, nil
}

// scalar turns driver byte slices (MySQL DECIMAL, text columns) into strings.
func scalar(v any) any {
	if bs, ok := v.([]byte); ok {
		return string(bs)
	}
	return v
}
