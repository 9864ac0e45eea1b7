package models

import "strings"

// PathSeparator separates child scopes from the attribute key in a field path.
const PathSeparator = ":"

// SplitPath splits a field path such as "Employer:Name" into its segments.
func SplitPath(field string) []string {
	parts := strings.Split(field, PathSeparator)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// Child returns the first sub-record tagged tag, or nil.
func (r *Record) Child(tag string) *Record {
	for _, c := range r.Children {
		if c.Tag == tag {
			return c.Record
		}
	}
	return nil
}

// Scope follows tags through nested sub-records and returns the scope
// reached, or nil if any step is missing. An empty path returns r.
func (r *Record) Scope(tags []string) *Record {
	cur := r
	for _, t := range tags {
		if cur == nil {
			return nil
		}
		cur = cur.Child(t)
	}
	return cur
}

// Resolve returns every value of the attribute named by the last segment
// of path, looked up in the scope named by the leading segments.
// A missing scope or key yields no values.
func (r *Record) Resolve(path []string) []string {
	if r == nil || len(path) == 0 {
		return nil
	}
	scope := r.Scope(path[:len(path)-1])
	if scope == nil {
		return nil
	}
	key := path[len(path)-1]
	var out []string
	for _, a := range scope.Attributes {
		if a.Key == key {
			out = append(out, a.Value)
		}
	}
	return out
}

// Fields lists every attribute path of r: root keys first, then
// "Tag:Key" for each sub-record, depth first.
func (r *Record) Fields() []string {
	fields := r.Keys()
	for _, c := range r.Children {
		for _, f := range c.Record.Fields() {
			fields = appendUnique(fields, c.Tag+PathSeparator+f)
		}
	}
	return fields
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
