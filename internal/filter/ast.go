// Package filter implements the query language used to select notes:
//
//	Name,Phone WHERE Employer:Name = 'My Company' AND Age >= 30
//
// AND and OR share one precedence level and apply strictly left to right,
// so "A OR B AND C" means "(A OR B) AND C".
package filter

import "regexp"

// Operator is a comparison operator.
type Operator string

const (
	OpEq  Operator = "="
	OpNot Operator = "NOT"
	OpLt  Operator = "<"
	OpLe  Operator = "<="
	OpGt  Operator = ">"
	OpGe  Operator = ">="
)

// Function names.
const (
	FuncRef   = "REF"
	FuncSplit = "SPLIT"
	FuncRegex = "REGEX"
)

// Filter is a compiled query. It is immutable and safe for concurrent use.
type Filter struct {
	Source    string
	Selection Selection
	Where     Expr // nil when the filter has no WHERE clause
}

// Selection lists the fields projected into each output row.
type Selection struct {
	All    bool
	Fields []string
}

// Expr is a node of the WHERE expression tree: *Comparison, *FunctionCall, *And or *Or.
type Expr interface {
	expr()
}

// Comparison tests the values of Field against a literal.
type Comparison struct {
	Field string
	Op    Operator
	Value string
	Empty bool // literal was the EMPTY keyword
}

// FunctionCall is a REF, SPLIT or REGEX call. REF and SPLIT may bind Var.
type FunctionCall struct {
	Name  string
	Var   string
	Field string
	Arg   string        // SPLIT separator or REGEX pattern
	Inner *FunctionCall // SPLIT nested in REF

	re *regexp.Regexp
}

// And applies Right to the rows produced by Left.
type And struct {
	Left, Right Expr
}

// Or keeps the rows produced by Left, falling back to Right per row.
type Or struct {
	Left, Right Expr
}

func (*Comparison) expr()   {}
func (*FunctionCall) expr() {}
func (*And) expr()          {}
func (*Or) expr()           {}

// And returns a filter with f's selection whose condition is f's AND o's.
func (f *Filter) And(o *Filter) *Filter {
	out := *f
	switch {
	case f.Where == nil:
		out.Where = o.Where
	case o.Where != nil:
		out.Where = &And{Left: f.Where, Right: o.Where}
	}
	out.Source = f.Source + " AND " + o.Source
	return &out
}
