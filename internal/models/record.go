// Package models defines the domain types for ansuz notes.
package models

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/starford/ansuz/internal/apperr"
)

// Attribute is a single key/value pair of a note header.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Child is a nested sub-record introduced by a tag line.
type Child struct {
	Tag    string  `json:"tag"`
	Record *Record `json:"record"`
}

// Record is a parsed note: header tags, attributes and sub-records plus the content body.
// A Record owns its children; nothing points back to a parent.
type Record struct {
	Tags       []string    `json:"tags,omitempty"`
	Attributes []Attribute `json:"attributes,omitempty"`
	Children   []Child     `json:"children,omitempty"`
	Content    string      `json:"content,omitempty"`
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := &Record{
		Tags:       slices.Clone(r.Tags),
		Attributes: slices.Clone(r.Attributes),
		Content:    r.Content,
	}
	if len(r.Children) > 0 {
		out.Children = make([]Child, len(r.Children))
		for i, c := range r.Children {
			out.Children[i] = Child{Tag: c.Tag, Record: c.Record.Clone()}
		}
	}
	return out
}

// Equal reports whether r and o hold the same structure. Nil and empty
// slices compare equal.
func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.Content != o.Content || !slices.Equal(r.Tags, o.Tags) || !slices.Equal(r.Attributes, o.Attributes) {
		return false
	}
	return slices.EqualFunc(r.Children, o.Children, func(a, b Child) bool {
		return a.Tag == b.Tag && a.Record.Equal(b.Record)
	})
}

// HasTag reports whether tag is present on the record itself.
func (r *Record) HasTag(tag string) bool {
	return slices.Contains(r.Tags, tag)
}

// AddTags appends tags that are not yet present.
func (r *Record) AddTags(tags ...string) error {
	for _, t := range tags {
		if err := ValidateTag(t); err != nil {
			return err
		}
	}
	for _, t := range tags {
		if !r.HasTag(t) {
			r.Tags = append(r.Tags, t)
		}
	}
	return nil
}

// RemoveTags drops every occurrence of the given tags.
func (r *Record) RemoveTags(tags ...string) {
	r.Tags = slices.DeleteFunc(r.Tags, func(t string) bool {
		return slices.Contains(tags, t)
	})
}

// AddAttribute appends a key/value pair, keeping existing pairs with the same key.
func (r *Record) AddAttribute(key, value string) error {
	if err := ValidateAttribute(key, value); err != nil {
		return err
	}
	r.Attributes = append(r.Attributes, Attribute{Key: key, Value: value})
	return nil
}

// SetAttribute replaces the first pair with key and drops the rest,
// appending a new pair when the key is absent.
func (r *Record) SetAttribute(key, value string) error {
	if err := ValidateAttribute(key, value); err != nil {
		return err
	}
	idx := slices.IndexFunc(r.Attributes, func(a Attribute) bool { return a.Key == key })
	if idx < 0 {
		r.Attributes = append(r.Attributes, Attribute{Key: key, Value: value})
		return nil
	}
	r.Attributes[idx].Value = value
	rest := slices.DeleteFunc(r.Attributes[idx+1:], func(a Attribute) bool { return a.Key == key })
	r.Attributes = r.Attributes[:idx+1+len(rest)]
	return nil
}

// RemoveAttribute drops every pair with key and reports how many were removed.
func (r *Record) RemoveAttribute(key string) int {
	before := len(r.Attributes)
	r.Attributes = slices.DeleteFunc(r.Attributes, func(a Attribute) bool { return a.Key == key })
	return before - len(r.Attributes)
}

// Keys returns the distinct attribute keys of r in first-appearance order.
func (r *Record) Keys() []string {
	var keys []string
	for _, a := range r.Attributes {
		if !slices.Contains(keys, a.Key) {
			keys = append(keys, a.Key)
		}
	}
	return keys
}

// ValidateTag checks that tag can be written on a tag line.
func ValidateTag(tag string) error {
	if tag == "" {
		return fmt.Errorf("%w: empty tag", apperr.ErrInvalidInput)
	}
	if strings.ContainsFunc(tag, func(r rune) bool { return r == '@' || unicode.IsSpace(r) }) {
		return fmt.Errorf("%w: tag %q contains '@' or whitespace", apperr.ErrInvalidInput, tag)
	}
	return nil
}

// ValidateAttribute checks that key and value can be written on an attribute line.
func ValidateAttribute(key, value string) error {
	if key == "" || strings.TrimSpace(key) != key {
		return fmt.Errorf("%w: attribute key %q is empty or padded", apperr.ErrInvalidInput, key)
	}
	if strings.ContainsAny(key, ":[]\r\n") {
		return fmt.Errorf("%w: attribute key %q contains ':', '[', ']' or a newline", apperr.ErrInvalidInput, key)
	}
	if strings.TrimSpace(value) != value {
		return fmt.Errorf("%w: attribute value %q has surrounding whitespace", apperr.ErrInvalidInput, value)
	}
	if strings.ContainsAny(value, "[]\r\n") {
		return fmt.Errorf("%w: attribute value %q contains '[', ']' or a newline", apperr.ErrInvalidInput, value)
	}
	return nil
}
