package parser

import (
	"strings"

	"github.com/starford/ansuz/internal/models"
)

const indentUnit = "  "

// Format serializes r to the note text format. Parse(Format(r)) yields a
// Record equal to r when every sub-record has at least one tag, attribute
// or child of its own.
func Format(r *models.Record) []byte {
	var b strings.Builder
	writeTagLine(&b, "", r.Tags)
	writeScope(&b, r, "")
	if r.Content != "" {
		b.WriteByte('\n')
		b.WriteString(r.Content)
	}
	return []byte(b.String())
}

// writeScope writes attributes and sub-records; the scope's own tags are
// written by the caller.
func writeScope(b *strings.Builder, r *models.Record, indent string) {
	for _, a := range r.Attributes {
		b.WriteString(indent)
		b.WriteByte('[')
		b.WriteString(a.Key)
		b.WriteString(": ")
		b.WriteString(a.Value)
		b.WriteString("]\n")
	}
	for _, c := range r.Children {
		inner := indent + indentUnit
		if len(c.Record.Attributes) == 0 && len(c.Record.Children) == 0 {
			// Tags alone go on their own line below the opener; on the
			// opener line they would read back as tags of the parent.
			writeTagLine(b, indent, []string{c.Tag})
			writeTagLine(b, inner, c.Record.Tags)
			continue
		}
		writeTagLine(b, indent, append([]string{c.Tag}, c.Record.Tags...))
		writeScope(b, c.Record, inner)
	}
}

func writeTagLine(b *strings.Builder, indent string, tags []string) {
	if len(tags) == 0 {
		return
	}
	b.WriteString(indent)
	for i, t := range tags {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte('@')
		b.WriteString(t)
	}
	b.WriteByte('\n')
}
