// Package wherelang parses the predicate and join expressions accepted by CLI
// flags, e.g. `post_status = 'publish'`, `post_title, post_content like '%go%'`
// and `left users on post_author = users.ID`.
package wherelang

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var exprLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `'(\\'|[^'])*'|"(\\"|[^"])*"`},
	{Name: "Float", Pattern: `[-+]?\d+\.\d+`},
	{Name: "Int", Pattern: `[-+]?\d+`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Operator", Pattern: `<>|!=|<=|>=|=|<|>`},
	{Name: "Punct", Pattern: `[.,]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// Predicate is `column[, column...] operator value`.
type Predicate struct {
	Columns []*Column `@@ ( "," @@ )*`
	Op      *Operator `@@`
	Value   *Value    `@@`
}

// Column is a possibly qualified column name.
type Column struct {
	Parts []string `@Ident ( "." @Ident )*`
}

func (c *Column) String() string { return strings.Join(c.Parts, ".") }

// Operator is a comparison symbol or a [NOT] LIKE/REGEXP keyword.
type Operator struct {
	Symbol string `  @Operator`
	Not    bool   `| @"NOT"?`
	Word   string `  @( "LIKE" | "REGEXP" )`
}

func (o *Operator) String() string {
	if o.Symbol != "" {
		return o.Symbol
	}
	if o.Not {
		return "NOT " + strings.ToUpper(o.Word)
	}
	return strings.ToUpper(o.Word)
}

// Boolean captures TRUE/FALSE in any case.
type Boolean bool

func (b *Boolean) Capture(values []string) error {
	*b = Boolean(strings.EqualFold(values[0], "true"))
	return nil
}

// Value is a literal. Bare identifiers are taken as strings.
type Value struct {
	String *string  `  @String`
	Float  *float64 `| @Float`
	Int    *int64   `| @Int`
	Bool   *Boolean `| @( "TRUE" | "FALSE" )`
	Ident  *string  `| @Ident`
}

// Arg returns the Go value bound for the placeholder.
func (v *Value) Arg() any {
	switch {
	case v.String != nil:
		return *v.String
	case v.Float != nil:
		return *v.Float
	case v.Int != nil:
		return *v.Int
	case v.Bool != nil:
		return bool(*v.Bool)
	case v.Ident != nil:
		return *v.Ident
	}
	return nil
}

// Join is `[inner|left|right] table on column operator column`.
type Join struct {
	Kind   string  `@( "INNER" | "LEFT" | "RIGHT" )?`
	Table  string  `@Ident "ON"`
	First  *Column `@@`
	Op     string  `@Operator`
	Second *Column `@@`
}

// Type returns the upper-cased join kind, INNER when omitted.
func (j *Join) Type() string {
	if j.Kind == "" {
		return "INNER"
	}
	return strings.ToUpper(j.Kind)
}

var options = []participle.Option{
	participle.Lexer(exprLexer),
	participle.CaseInsensitive("Ident"),
	participle.Map(unquote, "String"),
	participle.Elide("Whitespace"),
}

var (
	predicateParser = participle.MustBuild[Predicate](options...)
	joinParser      = participle.MustBuild[Join](options...)
)

func unquote(tok lexer.Token) (lexer.Token, error) {
	q := tok.Value[:1]
	tok.Value = strings.ReplaceAll(tok.Value[1:len(tok.Value)-1], `\`+q, q)
	return tok, nil
}

// Parse parses a predicate expression.
func Parse(src string) (*Predicate, error) {
	return predicateParser.ParseString("", src)
}

// ParseJoin parses a join expression.
func ParseJoin(src string) (*Join, error) {
	return joinParser.ParseString("", src)
}

// ColumnNames returns the column names in order.
func (p *Predicate) ColumnNames() []string {
	out := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		out[i] = c.String()
	}
	return out
}

// Operator returns the normalized operator.
func (p *Predicate) Operator() string { return p.Op.String() }
