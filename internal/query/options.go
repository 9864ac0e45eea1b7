// Package query runs filters over a collection: it expands aliases,
// compiles filters, evaluates them, then sorts and limits the rows.
package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/starford/ansuz/internal/alias"
	"github.com/starford/ansuz/internal/filter"
)

// ErrInvalidOption is returned for unknown or incomplete query options.
var ErrInvalidOption = errors.New("invalid query option")

// Sort orders rows by the values of Field.
type Sort struct {
	Field      string
	Descending bool
}

// Options describe one query. A zero Limit means no limit.
type Options struct {
	Filters []string
	Sort    *Sort
	Limit   int
}

// ParseLimit converts a limit argument; values below 1 or unparsable
// text mean no limit and yield 0.
func ParseLimit(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0
	}
	return n
}

// ParseArgs reads query options from an argument list such as an
// expanded alias. Options take their value from the next argument or
// from "--opt=value".
func ParseArgs(args []string) (Options, error) {
	var opts Options
	for i := 0; i < len(args); i++ {
		name, value, inline := strings.Cut(args[i], "=")
		if !strings.HasPrefix(name, "--") {
			return Options{}, fmt.Errorf("%w: unexpected argument %q", ErrInvalidOption, args[i])
		}
		if !inline {
			if i+1 >= len(args) {
				return Options{}, fmt.Errorf("%w: %s needs a value", ErrInvalidOption, name)
			}
			i++
			value = args[i]
		}

		switch {
		case name == "--filter":
			opts.Filters = append(opts.Filters, value)
		case name == "--limit":
			opts.Limit = ParseLimit(value)
		case strings.HasPrefix(name, "--sort-"):
			s, err := parseSort(name, value)
			if err != nil {
				return Options{}, err
			}
			opts.Sort = s
		default:
			return Options{}, fmt.Errorf("%w: unknown option %q", ErrInvalidOption, name)
		}
	}
	return opts, nil
}

func parseSort(name, field string) (*Sort, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil, fmt.Errorf("%w: %s needs a field", ErrInvalidOption, name)
	}
	switch strings.TrimPrefix(name, "--sort-") {
	case "a", "asc", "ascending":
		return &Sort{Field: field}, nil
	case "d", "desc", "descending":
		return &Sort{Field: field, Descending: true}, nil
	}
	return nil, fmt.Errorf("%w: unknown sort order %q", ErrInvalidOption, name)
}

// Merge layers over on top of o: filters are appended, and a sort or
// limit set in over replaces the one in o.
func (o Options) Merge(over Options) Options {
	out := Options{
		Filters: append(append([]string(nil), o.Filters...), over.Filters...),
		Sort:    o.Sort,
		Limit:   o.Limit,
	}
	if over.Sort != nil {
		out.Sort = over.Sort
	}
	if over.Limit > 0 {
		out.Limit = over.Limit
	}
	return out
}

// WithAlias expands the alias name with params and merges opts over the
// options it produces.
func WithAlias(name string, params []string, table alias.Table, opts Options) (Options, error) {
	args, err := alias.Expand(name, params, table)
	if err != nil {
		return Options{}, err
	}
	base, err := ParseArgs(args)
	if err != nil {
		return Options{}, fmt.Errorf("alias %q: %w", name, err)
	}
	return base.Merge(opts), nil
}

// Compile parses every filter and ANDs them onto the first, whose
// selection is kept. Without filters every field of every record is selected.
func Compile(filters []string) (*filter.Filter, error) {
	if len(filters) == 0 {
		return filter.Parse("*")
	}
	var out *filter.Filter
	for _, src := range filters {
		f, err := filter.Parse(src)
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = f
			continue
		}
		out = out.And(f)
	}
	return out, nil
}
