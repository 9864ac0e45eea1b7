package filter

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/starford/ansuz/internal/contact"
	"github.com/starford/ansuz/internal/models"
)

// Row is one projected output row: a real record or a virtual row derived
// from it by SPLIT or REF.
type Row struct {
	Fields []string
	Cells  [][]string
	env    env
}

// Lookup resolves field against the row, honouring variables bound while
// the row was evaluated. Fields need not be part of the selection.
func (r Row) Lookup(field string) []string {
	return r.env.lookup(field)
}

// Record returns the record the row was derived from.
func (r Row) Record() *models.Record {
	return r.env.rec
}

// Evaluator applies filters to records of one collection. The collection
// is the target space of REF joins.
type Evaluator struct {
	byName map[string][]*models.Record
}

// NewEvaluator indexes records by contact name for REF lookups.
func NewEvaluator(records []*models.Record) *Evaluator {
	ev := &Evaluator{byName: make(map[string][]*models.Record)}
	for _, r := range records {
		if name, ok := contact.Name(r); ok {
			ev.byName[name] = append(ev.byName[name], r)
		}
	}
	return ev
}

// Evaluate returns the rows rec contributes to the result of f. A record
// that does not match yields no rows.
func (ev *Evaluator) Evaluate(f *Filter, rec *models.Record) ([]Row, error) {
	rows := []env{{rec: rec}}
	if f.Where != nil {
		var err error
		if rows, err = ev.eval(f.Where, rows); err != nil {
			return nil, err
		}
	}
	out := make([]Row, 0, len(rows))
	for _, e := range rows {
		out = append(out, project(f.Selection, e))
	}
	return out, nil
}

// EvaluateAll evaluates every record in order and concatenates the rows.
func (ev *Evaluator) EvaluateAll(ctx context.Context, f *Filter, records []*models.Record) ([]Row, error) {
	var out []Row
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := ev.Evaluate(f, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

func project(sel Selection, e env) Row {
	fields := sel.Fields
	if sel.All {
		fields = e.rec.Fields()
	}
	cells := make([][]string, len(fields))
	for i, f := range fields {
		cells[i] = e.lookup(f)
	}
	return Row{Fields: fields, Cells: cells, env: e}
}

func (ev *Evaluator) eval(x Expr, rows []env) ([]env, error) {
	switch n := x.(type) {
	case *Comparison:
		return keep(rows, func(e env) (bool, error) { return n.holds(e.lookup(n.Field)) })
	case *FunctionCall:
		switch n.Name {
		case FuncRegex:
			return keep(rows, func(e env) (bool, error) { return n.matches(e.lookup(n.Field)), nil })
		case FuncSplit:
			return fanOut(rows, n.split), nil
		case FuncRef:
			return fanOut(rows, ev.ref(n)), nil
		}
		return nil, fmt.Errorf("filter: unknown function %q", n.Name)
	case *And:
		left, err := ev.eval(n.Left, rows)
		if err != nil {
			return nil, err
		}
		return ev.eval(n.Right, left)
	case *Or:
		var out []env
		for _, e := range rows {
			left, err := ev.eval(n.Left, []env{e})
			if err != nil {
				return nil, err
			}
			if len(left) > 0 {
				out = append(out, left...)
				continue
			}
			right, err := ev.eval(n.Right, []env{e})
			if err != nil {
				return nil, err
			}
			out = append(out, right...)
		}
		return out, nil
	default:
		panic(fmt.Sprintf("filter: unhandled expression %T", x))
	}
}

func keep(rows []env, pred func(env) (bool, error)) ([]env, error) {
	var out []env
	for _, e := range rows {
		ok, err := pred(e)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func fanOut(rows []env, expand func(env) []env) []env {
	var out []env
	for _, e := range rows {
		out = append(out, expand(e)...)
	}
	return out
}

func (c *Comparison) holds(values []string) (bool, error) {
	switch c.Op {
	case OpEq:
		return c.equals(values), nil
	case OpNot:
		return !c.equals(values), nil
	}

	lit, ok := ToNumber(c.Value)
	if !ok {
		return false, &NumericError{Field: c.Field, Value: c.Value}
	}
	nums := make([]float64, len(values))
	for i, v := range values {
		n, ok := ToNumber(v)
		if !ok {
			return false, &NumericError{Field: c.Field, Value: v}
		}
		nums[i] = n
	}
	for _, n := range nums {
		if compareNumbers(n, c.Op, lit) {
			return true, nil
		}
	}
	return false, nil
}

func (c *Comparison) equals(values []string) bool {
	if c.Empty {
		for _, v := range values {
			if v != "" {
				return false
			}
		}
		return true
	}
	for _, v := range values {
		if v == c.Value {
			return true
		}
	}
	return false
}

func compareNumbers(a float64, op Operator, b float64) bool {
	switch op {
	case OpLt:
		return a < b
	case OpLe:
		return a <= b
	case OpGt:
		return a > b
	case OpGe:
		return a >= b
	}
	return false
}

// ToNumber parses s as a float64, rejecting NaN. Relational operators and
// numeric sorting share it.
func ToNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func (fc *FunctionCall) matches(values []string) bool {
	for _, v := range values {
		if fc.re.MatchString(v) {
			return true
		}
	}
	return false
}

// parts splits every value of the call's field on its separator.
func (fc *FunctionCall) parts(e env) []string {
	var out []string
	for _, v := range e.lookup(fc.Field) {
		for _, p := range strings.Split(v, fc.Arg) {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// split yields one row per part. A bare SPLIT rebinds its own field.
func (fc *FunctionCall) split(e env) []env {
	name := fc.Var
	if name == "" {
		name = fc.Field
	}
	var out []env
	for _, p := range fc.parts(e) {
		out = append(out, e.bindValue(name, p))
	}
	return out
}

// ref binds fc.Var to a sub-record scope, or to the records named by the
// field's values. Without a target the row is kept with the variable unbound.
func (ev *Evaluator) ref(fc *FunctionCall) func(env) []env {
	return func(e env) []env {
		var targets []*models.Record
		switch {
		case fc.Inner != nil:
			targets = ev.named(fc.Inner.parts(e))
		case e.scope(fc.Field) != nil:
			targets = []*models.Record{e.scope(fc.Field)}
		default:
			targets = ev.named(e.lookup(fc.Field))
		}
		if len(targets) == 0 {
			return []env{e.bindScope(fc.Var, nil)}
		}
		out := make([]env, 0, len(targets))
		for _, t := range targets {
			out = append(out, e.bindScope(fc.Var, t))
		}
		return out
	}
}

func (ev *Evaluator) named(names []string) []*models.Record {
	var out []*models.Record
	for _, n := range names {
		out = append(out, ev.byName[n]...)
	}
	return out
}
