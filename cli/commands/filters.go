package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/wporm/cli/internal/wherelang"
	"github.com/satishbabariya/wporm/query/builder"
)

type clauseKind int

const (
	whereClause clauseKind = iota
	orWhereClause
	anyClause
	allClause
	joinClause
)

var clauseFlags = map[clauseKind]string{
	whereClause:   "where",
	orWhereClause: "or-where",
	anyClause:     "any",
	allClause:     "all",
	joinClause:    "join",
}

type clause struct {
	kind clauseKind
	expr string
}

// clauseFlag is a repeatable flag appending to a list shared with its sibling
// flags, so --where and --or-where keep their command-line order.
type clauseFlag struct {
	kind    clauseKind
	clauses *[]clause
}

func (f *clauseFlag) String() string { return "" }
func (f *clauseFlag) Type() string   { return "expr" }

func (f *clauseFlag) Set(v string) error {
	*f.clauses = append(*f.clauses, clause{kind: f.kind, expr: v})
	return nil
}

// filters are the predicate and join flags shared by every read command.
type filters struct {
	clauses []clause
}

func (f *filters) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Var(&clauseFlag{whereClause, &f.clauses}, "where", "predicate `column op value`, AND-joined (repeatable)")
	flags.Var(&clauseFlag{orWhereClause, &f.clauses}, "or-where", "predicate joined with OR (repeatable)")
	flags.Var(&clauseFlag{anyClause, &f.clauses}, "any", "`a, b op value`: true when any column matches (repeatable)")
	flags.Var(&clauseFlag{allClause, &f.clauses}, "all", "`a, b op value`: true when every column matches (repeatable)")
	flags.Var(&clauseFlag{joinClause, &f.clauses}, "join", "`[left|right] table on a = b` (repeatable)")
}

func (f *filters) apply(b *builder.QueryBuilder) error {
	for _, c := range f.clauses {
		if err := applyClause(b, c); err != nil {
			return fmt.Errorf("--%s %q: %w", clauseFlags[c.kind], c.expr, err)
		}
	}
	return nil
}

func applyClause(b *builder.QueryBuilder, c clause) error {
	if c.kind == joinClause {
		j, err := wherelang.ParseJoin(c.expr)
		if err != nil {
			return err
		}
		first, second := j.First.String(), j.Second.String()
		switch j.Type() {
		case "LEFT":
			b.LeftJoin(j.Table, first, j.Op, second)
		case "RIGHT":
			b.RightJoin(j.Table, first, j.Op, second)
		default:
			b.Join(j.Table, first, j.Op, second)
		}
		return nil
	}

	p, err := wherelang.Parse(c.expr)
	if err != nil {
		return err
	}
	cols := p.ColumnNames()
	switch c.kind {
	case anyClause:
		b.WhereAny(cols, p.Operator(), p.Value.Arg())
		return nil
	case allClause:
		b.WhereAll(cols, p.Operator(), p.Value.Arg())
		return nil
	}

	if len(cols) != 1 {
		return fmt.Errorf("expected one column, got %d", len(cols))
	}
	if c.kind == orWhereClause {
		b.OrWhere(cols[0], p.Operator(), p.Value.Arg())
	} else {
		b.Where(cols[0], p.Operator(), p.Value.Arg())
	}
	return nil
}

// applyHaving parses a single-column predicate into a HAVING clause.
func applyHaving(b *builder.QueryBuilder, expr string) error {
	p, err := wherelang.Parse(expr)
	if err != nil {
		return fmt.Errorf("--having %q: %w", expr, err)
	}
	cols := p.ColumnNames()
	if len(cols) != 1 {
		return fmt.Errorf("--having %q: expected one column", expr)
	}
	b.Having(cols[0], p.Operator(), p.Value.Arg())
	return nil
}

// applyOrder parses "column [asc|desc]".
func applyOrder(b *builder.QueryBuilder, expr string) error {
	fields := strings.Fields(expr)
	switch len(fields) {
	case 1:
		b.OrderBy(fields[0], "")
	case 2:
		b.OrderBy(fields[0], fields[1])
	default:
		return fmt.Errorf("--order %q: expected `column [asc|desc]`", expr)
	}
	return nil
}

// parseID keeps numeric ids numeric so drivers compare them as integers.
func parseID(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return s
}
