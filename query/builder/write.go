package builder

import (
	"context"
	"maps"
	"slices"

	"github.com/spf13/cast"

	"github.com/satishbabariya/wporm/runtime"
)

// UpsertResult reports which path UpdateOrInsert took.
type UpsertResult struct {
	Inserted bool
	// ID is the generated key on insert and the matched key on update when it is
	// numeric.
	ID       int64
	Affected int64
}

// Create inserts data and returns the generated primary key.
func (b *QueryBuilder) Create(ctx context.Context, data map[string]any) (int64, error) {
	defer b.finish()
	if b.err != nil {
		return 0, b.err
	}
	if len(data) == 0 {
		return 0, runtime.NewValidationError("create", "", "no values given")
	}
	return b.exec.Insert(ctx, b.entity, data)
}

// Update sets data on the row whose primary key equals id and returns the
// number of affected rows.
func (b *QueryBuilder) Update(ctx context.Context, id any, data map[string]any) (int64, error) {
	defer b.finish()
	if b.err != nil {
		return 0, b.err
	}
	if id == nil {
		return 0, runtime.NewValidationError("update", b.entity.PrimaryKey(), "primary key value is required")
	}
	if len(data) == 0 {
		return 0, runtime.NewValidationError("update", "", "no values given")
	}
	return b.exec.Update(ctx, b.entity, id, data)
}

// Delete removes the row whose primary key equals id and returns the number of
// affected rows.
func (b *QueryBuilder) Delete(ctx context.Context, id any) (int64, error) {
	defer b.finish()
	if b.err != nil {
		return 0, b.err
	}
	if id == nil {
		return 0, runtime.NewValidationError("delete", b.entity.PrimaryKey(), "primary key value is required")
	}
	return b.exec.Delete(ctx, b.entity, id)
}

// UpdateOrInsert adds an = predicate per match attribute to the current clauses
// and checks for a matching row. On a hit it updates the row identified by the
// primary key in match with values, which requires the key to be in match;
// otherwise it inserts match merged with values, values winning on conflicting
// keys.
func (b *QueryBuilder) UpdateOrInsert(ctx context.Context, match, values map[string]any) (UpsertResult, error) {
	defer b.finish()

	const op = "updateOrInsert"
	if len(match) == 0 {
		return UpsertResult{}, runtime.NewValidationError(op, "", "match attributes are required")
	}
	for _, col := range slices.Sorted(maps.Keys(match)) {
		b.Where(col, match[col])
	}
	n, err := b.count(ctx, op)
	if err != nil {
		return UpsertResult{}, err
	}

	pk := b.entity.PrimaryKey()
	id := match[pk]
	if n > 0 {
		if id == nil {
			return UpsertResult{}, runtime.NewValidationError(op, pk, "match attributes must include the primary key to update")
		}
		res := UpsertResult{ID: cast.ToInt64(id)}
		if len(values) == 0 {
			return res, nil
		}
		res.Affected, err = b.exec.Update(ctx, b.entity, id, values)
		return res, err
	}

	row := make(map[string]any, len(match)+len(values))
	maps.Copy(row, match)
	maps.Copy(row, values)

	newID, err := b.exec.Insert(ctx, b.entity, row)
	if err != nil {
		return UpsertResult{}, err
	}
	if newID == 0 && id != nil {
		newID = cast.ToInt64(id)
	}
	return UpsertResult{Inserted: true, ID: newID, Affected: 1}, nil
}
