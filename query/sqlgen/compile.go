package sqlgen

import (
	"fmt"
	"strings"
)

// Statement is compiled SQL with ? placeholders and their ordered arguments.
type Statement struct {
	SQL  string
	Args []any
}

// String returns the SQL text.
func (s Statement) String() string {
	return s.SQL
}

// Projection renders the select list.
func Projection(s *State) string {
	cols := "*"
	if len(s.Columns) > 0 {
		cols = strings.Join(s.Columns, ", ")
	}
	if s.Distinct {
		return "DISTINCT " + cols
	}
	return cols
}

// WhereSQL renders the WHERE predicate without the keyword. Fragments keep call
// order; or-fragments are joined with OR, everything else with AND. No grouping
// is added, so precedence is the engine's.
func WhereSQL(s *State) (string, []any) {
	if len(s.Wheres) == 0 {
		return "", nil
	}

	var b strings.Builder
	var args []any
	for i, w := range s.Wheres {
		if i > 0 {
			if w.Or {
				b.WriteString(" OR ")
			} else {
				b.WriteString(" AND ")
			}
		}
		b.WriteString(w.SQL)
		args = append(args, w.Args...)
	}
	return b.String(), args
}

type clauses struct {
	parts []string
	args  []any
}

func (c *clauses) add(part string, args ...any) {
	c.parts = append(c.parts, part)
	c.args = append(c.args, args...)
}

func (c *clauses) statement() Statement {
	return Statement{SQL: strings.Join(c.parts, " "), Args: c.args}
}

// filtered writes the JOIN and WHERE clauses.
func (c *clauses) filtered(s *State) {
	for _, j := range s.Joins {
		c.add(j.SQL())
	}
	if where, args := WhereSQL(s); where != "" {
		c.add("WHERE "+where, args...)
	}
}

// grouped writes GROUP BY, HAVING and ORDER BY.
func (c *clauses) grouped(s *State) {
	if s.GroupBy != "" {
		c.add("GROUP BY " + s.GroupBy)
	}
	if s.Having != nil {
		c.add("HAVING "+s.Having.SQL, s.Having.Args...)
	}
	if s.Order != nil {
		c.add(fmt.Sprintf("ORDER BY %s %s", s.Order.Column, s.Order.Direction))
	}
}

func (c *clauses) paged(limit, offset *int) {
	if limit != nil {
		c.add(fmt.Sprintf("LIMIT %d", *limit))
	}
	if offset != nil {
		c.add(fmt.Sprintf("OFFSET %d", *offset))
	}
}

// Select compiles the full clause set:
// SELECT … FROM … JOIN … WHERE … GROUP BY … HAVING … ORDER BY … LIMIT … OFFSET ….
func Select(table string, s *State) Statement {
	c := &clauses{}
	c.add(fmt.Sprintf("SELECT %s FROM %s", Projection(s), table))
	c.filtered(s)
	c.grouped(s)
	c.paged(s.Limit, s.Offset)
	return c.statement()
}

// First compiles the full clause set with LIMIT 1 in place of any user limit.
func First(table string, s *State) Statement {
	one := 1
	c := &clauses{}
	c.add(fmt.Sprintf("SELECT %s FROM %s", Projection(s), table))
	c.filtered(s)
	c.grouped(s)
	c.paged(&one, s.Offset)
	return c.statement()
}

// Find compiles a primary-key lookup. Only the projection of s is used.
func Find(table, primaryKey string, id any, s *State) Statement {
	return Statement{
		SQL:  fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", Projection(s), table, primaryKey),
		Args: []any{id},
	}
}

// Aggregate compiles fn(column) over the JOIN and WHERE clauses only.
func Aggregate(table, fn, column string, s *State) Statement {
	c := &clauses{}
	c.add(fmt.Sprintf("SELECT %s(%s) FROM %s", fn, column, table))
	c.filtered(s)
	return c.statement()
}

// Pluck compiles a single-column select over the full clause set.
func Pluck(table, column string, s *State) Statement {
	c := &clauses{}
	c.add(fmt.Sprintf("SELECT %s FROM %s", column, table))
	c.filtered(s)
	c.grouped(s)
	c.paged(s.Limit, s.Offset)
	return c.statement()
}
