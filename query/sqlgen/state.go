// Package sqlgen holds the clause state accumulated by the query builder and
// compiles it into SQL statements.
package sqlgen

import "fmt"

// Fragment is a parameterized boolean predicate. Values are never interpolated
// into SQL; every ? has a matching entry in Args.
type Fragment struct {
	SQL  string
	Args []any
	// Or joins the fragment to its predecessor with OR instead of AND.
	Or bool
}

// JoinType is the kind of a JOIN clause.
type JoinType string

const (
	// InnerJoin is INNER JOIN.
	InnerJoin JoinType = "INNER"
	// LeftJoin is LEFT JOIN.
	LeftJoin JoinType = "LEFT"
	// RightJoin is RIGHT JOIN.
	RightJoin JoinType = "RIGHT"
)

// Join is a structural JOIN clause. First, Operator and Second are written
// verbatim and must come from trusted code.
type Join struct {
	Type     JoinType
	Table    string
	First    string
	Operator string
	Second   string
}

// SQL renders the clause.
func (j Join) SQL() string {
	return fmt.Sprintf("%s JOIN %s ON %s %s %s", j.Type, j.Table, j.First, j.Operator, j.Second)
}

// Order is the single active ORDER BY clause.
type Order struct {
	Column    string
	Direction string
}

// State is the clause state of one query chain.
type State struct {
	Columns  []string
	Distinct bool
	Wheres   []Fragment
	Joins    []Join
	Order    *Order
	GroupBy  string
	Having   *Fragment
	Limit    *int
	Offset   *int
	With     []string
}

// NewState returns an empty state selecting every column.
func NewState() *State {
	return &State{}
}

// HasJoin reports whether a join of type t is present.
func (s *State) HasJoin(t JoinType) bool {
	for _, j := range s.Joins {
		if j.Type == t {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	c := *s
	c.Columns = append([]string(nil), s.Columns...)
	c.Joins = append([]Join(nil), s.Joins...)
	c.With = append([]string(nil), s.With...)
	c.Wheres = make([]Fragment, len(s.Wheres))
	for i, w := range s.Wheres {
		w.Args = append([]any(nil), w.Args...)
		c.Wheres[i] = w
	}
	if s.Order != nil {
		o := *s.Order
		c.Order = &o
	}
	if s.Having != nil {
		h := *s.Having
		h.Args = append([]any(nil), s.Having.Args...)
		c.Having = &h
	}
	if s.Limit != nil {
		n := *s.Limit
		c.Limit = &n
	}
	if s.Offset != nil {
		n := *s.Offset
		c.Offset = &n
	}
	if len(s.Wheres) == 0 {
		c.Wheres = nil
	}
	if len(s.Columns) == 0 {
		c.Columns = nil
	}
	if len(s.Joins) == 0 {
		c.Joins = nil
	}
	if len(s.With) == 0 {
		c.With = nil
	}
	return &c
}
