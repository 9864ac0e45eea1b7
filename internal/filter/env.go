package filter

import (
	"maps"
	"strings"

	"github.com/starford/ansuz/internal/models"
)

// binding is a variable bound by SPLIT (a value) or REF (a record scope,
// nil when nothing was referenced).
type binding struct {
	value   string
	scope   *models.Record
	isScope bool
}

// env is the evaluation state of one virtual row. Bindings are copied on
// write so rows fanned out from the same parent never share them.
type env struct {
	rec  *models.Record
	vars map[string]binding
}

func (e env) bind(name string, b binding) env {
	vars := make(map[string]binding, len(e.vars)+1)
	maps.Copy(vars, e.vars)
	vars[name] = b
	return env{rec: e.rec, vars: vars}
}

func (e env) bindValue(name, value string) env {
	return e.bind(name, binding{value: value})
}

func (e env) bindScope(name string, scope *models.Record) env {
	return e.bind(name, binding{scope: scope, isScope: true})
}

// lookup resolves a field: a value variable by name, "v.Path" through a
// scope variable, otherwise a path on the row's record.
func (e env) lookup(field string) []string {
	if b, ok := e.vars[field]; ok && !b.isScope {
		return []string{b.value}
	}
	if scope, rest, ok := e.viaVariable(field); ok {
		return scope.Resolve(models.SplitPath(rest))
	}
	return e.rec.Resolve(models.SplitPath(field))
}

// scope resolves a field naming a sub-record, or returns nil.
func (e env) scope(field string) *models.Record {
	if scope, rest, ok := e.viaVariable(field); ok {
		if scope == nil {
			return nil
		}
		return scope.Scope(models.SplitPath(rest))
	}
	return e.rec.Scope(models.SplitPath(field))
}

func (e env) viaVariable(field string) (*models.Record, string, bool) {
	name, rest, ok := strings.Cut(field, ".")
	if !ok {
		return nil, "", false
	}
	b, bound := e.vars[name]
	if !bound || !b.isScope {
		return nil, "", false
	}
	return b.scope, rest, true
}
