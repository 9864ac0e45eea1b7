package query

import (
	"cmp"
	"context"
	"slices"

	"github.com/starford/ansuz/internal/filter"
	"github.com/starford/ansuz/internal/models"
)

// Run evaluates the query against records and returns the sorted,
// limited rows.
func Run(ctx context.Context, records []*models.Record, opts Options) ([]filter.Row, error) {
	f, err := Compile(opts.Filters)
	if err != nil {
		return nil, err
	}
	rows, err := filter.NewEvaluator(records).EvaluateAll(ctx, f, records)
	if err != nil {
		return nil, err
	}
	if opts.Sort != nil {
		SortRows(rows, *opts.Sort)
	}
	if opts.Limit > 0 && len(rows) > opts.Limit {
		rows = rows[:opts.Limit]
	}
	return rows, nil
}

type sortKey struct {
	text    string
	num     float64
	present bool
}

// SortRows stable-sorts rows by the first value of s.Field. Values
// compare numerically when every present value is a number, otherwise
// as strings. Rows without the field come first in ascending order.
func SortRows(rows []filter.Row, s Sort) {
	keys := make(map[int]sortKey, len(rows))
	numeric := true
	for i, r := range rows {
		vals := r.Lookup(s.Field)
		if len(vals) == 0 {
			continue
		}
		k := sortKey{text: vals[0], present: true}
		if n, ok := filter.ToNumber(vals[0]); ok {
			k.num = n
		} else {
			numeric = false
		}
		keys[i] = k
	}

	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		c := compareKeys(keys[a], keys[b], numeric)
		if s.Descending {
			return -c
		}
		return c
	})

	sorted := make([]filter.Row, len(rows))
	for i, j := range idx {
		sorted[i] = rows[j]
	}
	copy(rows, sorted)
}

func compareKeys(a, b sortKey, numeric bool) int {
	switch {
	case !a.present || !b.present:
		return boolCompare(a.present, b.present)
	case numeric:
		return cmp.Compare(a.num, b.num)
	default:
		return cmp.Compare(a.text, b.text)
	}
}

func boolCompare(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
