package builder

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/wporm/query/sqlgen"
)

// Join adds an INNER JOIN. The table is prefixed; first, operator and second
// are written as given and must not carry user input.
func (b *QueryBuilder) Join(table, first, operator, second string) *QueryBuilder {
	return b.join("join", sqlgen.InnerJoin, table, first, operator, second)
}

// LeftJoin adds a LEFT JOIN.
func (b *QueryBuilder) LeftJoin(table, first, operator, second string) *QueryBuilder {
	return b.join("leftJoin", sqlgen.LeftJoin, table, first, operator, second)
}

// RightJoin adds a RIGHT JOIN.
func (b *QueryBuilder) RightJoin(table, first, operator, second string) *QueryBuilder {
	return b.join("rightJoin", sqlgen.RightJoin, table, first, operator, second)
}

func (b *QueryBuilder) join(op string, t sqlgen.JoinType, table, first, operator, second string) *QueryBuilder {
	if table == "" || first == "" || second == "" {
		b.fail(op, table, "table and both columns are required")
		return b
	}
	normalized, ok := normalizeOperator(operator)
	if !ok {
		b.fail(op, table, fmt.Sprintf("unsupported operator %q", operator))
		return b
	}

	b.state.Joins = append(b.state.Joins, sqlgen.Join{
		Type:     t,
		Table:    b.exec.Conn().Prefix() + table,
		First:    first,
		Operator: normalized,
		Second:   second,
	})
	return b
}

// OrderBy sets ORDER BY, replacing any previous ordering. Direction is ASC or
// DESC in any case; empty means ASC.
func (b *QueryBuilder) OrderBy(column, direction string) *QueryBuilder {
	if column == "" {
		return b.fail("orderBy", "", "column is required")
	}

	dir := strings.ToUpper(strings.TrimSpace(direction))
	if dir == "" {
		dir = "ASC"
	}
	if dir != "ASC" && dir != "DESC" {
		return b.fail("orderBy", column, fmt.Sprintf("invalid direction %q", direction))
	}

	b.state.Order = &sqlgen.Order{Column: column, Direction: dir}
	return b
}

// GroupBy sets GROUP BY, replacing any previous grouping.
func (b *QueryBuilder) GroupBy(column string) *QueryBuilder {
	if column == "" {
		return b.fail("groupBy", "", "column is required")
	}
	b.state.GroupBy = column
	return b
}
