package builder

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/wporm/query/sqlgen"
)

var operators = map[string]bool{
	"=":          true,
	"!=":         true,
	"<>":         true,
	"<":          true,
	"<=":         true,
	">":          true,
	">=":         true,
	"LIKE":       true,
	"NOT LIKE":   true,
	"REGEXP":     true,
	"NOT REGEXP": true,
}

// normalizeOperator upper-cases and collapses whitespace. ok is false for
// operators outside the whitelist.
func normalizeOperator(op string) (string, bool) {
	op = strings.ToUpper(strings.Join(strings.Fields(op), " "))
	return op, operators[op]
}

// predicate splits the variadic tail of Where, OrWhere and Having: a single
// argument is the value compared with =, two are operator and value.
func (b *QueryBuilder) predicate(op, column string, args []any) (sqlgen.Fragment, bool) {
	if column == "" {
		b.fail(op, "", "column is required")
		return sqlgen.Fragment{}, false
	}

	var operator string
	var value any
	switch len(args) {
	case 1:
		operator, value = "=", args[0]
	case 2:
		s, ok := args[0].(string)
		if !ok {
			b.fail(op, column, fmt.Sprintf("operator must be a string, got %T", args[0]))
			return sqlgen.Fragment{}, false
		}
		operator, value = s, args[1]
	default:
		b.fail(op, column, fmt.Sprintf("expected value or operator and value, got %d arguments", len(args)))
		return sqlgen.Fragment{}, false
	}

	normalized, ok := normalizeOperator(operator)
	if !ok {
		b.fail(op, column, fmt.Sprintf("unsupported operator %q", operator))
		return sqlgen.Fragment{}, false
	}

	return sqlgen.Fragment{
		SQL:  fmt.Sprintf("%s %s ?", column, normalized),
		Args: []any{value},
	}, true
}

// Where adds a predicate joined with AND.
//
//	b.Where("post_status", "publish")
//	b.Where("comment_count", ">=", 10)
func (b *QueryBuilder) Where(column string, args ...any) *QueryBuilder {
	if f, ok := b.predicate("where", column, args); ok {
		b.state.Wheres = append(b.state.Wheres, f)
	}
	return b
}

// OrWhere adds a predicate joined with OR. As the first predicate it behaves
// like Where. The chain stays flat, so AND binds tighter.
func (b *QueryBuilder) OrWhere(column string, args ...any) *QueryBuilder {
	if f, ok := b.predicate("orWhere", column, args); ok {
		f.Or = len(b.state.Wheres) > 0
		b.state.Wheres = append(b.state.Wheres, f)
	}
	return b
}

// WhereAny adds one parenthesized predicate matching when any column compares
// true against value. An empty operator means =.
func (b *QueryBuilder) WhereAny(columns []string, operator string, value any) *QueryBuilder {
	parts, ok := b.multi("whereAny", columns, operator)
	if !ok {
		return b
	}

	args := make([]any, len(parts))
	for i := range args {
		args[i] = value
	}
	b.state.Wheres = append(b.state.Wheres, sqlgen.Fragment{
		SQL:  "(" + strings.Join(parts, " OR ") + ")",
		Args: args,
	})
	return b
}

// WhereAll adds one AND-joined predicate per column, each compared against value.
func (b *QueryBuilder) WhereAll(columns []string, operator string, value any) *QueryBuilder {
	parts, ok := b.multi("whereAll", columns, operator)
	if !ok {
		return b
	}

	for _, p := range parts {
		b.state.Wheres = append(b.state.Wheres, sqlgen.Fragment{SQL: p, Args: []any{value}})
	}
	return b
}

func (b *QueryBuilder) multi(op string, columns []string, operator string) ([]string, bool) {
	if len(columns) == 0 {
		b.fail(op, "", "at least one column is required")
		return nil, false
	}
	if operator == "" {
		operator = "="
	}
	normalized, ok := normalizeOperator(operator)
	if !ok {
		b.fail(op, "", fmt.Sprintf("unsupported operator %q", operator))
		return nil, false
	}

	parts := make([]string, len(columns))
	for i, c := range columns {
		if c == "" {
			b.fail(op, "", "column is required")
			return nil, false
		}
		parts[i] = fmt.Sprintf("%s %s ?", c, normalized)
	}
	return parts, true
}

// Having sets the HAVING predicate, replacing any previous one.
func (b *QueryBuilder) Having(column string, args ...any) *QueryBuilder {
	if f, ok := b.predicate("having", column, args); ok {
		b.state.Having = &f
	}
	return b
}
