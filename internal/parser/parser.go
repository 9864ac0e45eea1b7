// Package parser reads and writes the note text format: a header of tag
// lines ("@a @b") and attribute lines ("[key: value]") ended by a blank
// line, followed by free-form content.
//
// Sub-records nest by indentation. A tag line followed by a more deeply
// indented line opens a sub-record named by its first tag; the sub-record
// closes at the next line indented no deeper than that tag line, or at the
// blank line ending the header.
package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/starford/ansuz/internal/models"
)

type headerLine struct {
	no     int
	indent int
	text   string
}

type frame struct {
	indent int
	rec    *models.Record
}

// Parse builds a Record from raw note bytes.
func Parse(data []byte) (*models.Record, error) {
	if !utf8.Valid(data) {
		return nil, ErrInvalidEncoding
	}
	lines, content := splitHeader(string(data))

	root := &models.Record{Content: content}
	stack := []frame{{indent: -1, rec: root}}

	for i, ln := range lines {
		for len(stack) > 1 && stack[len(stack)-1].indent >= ln.indent {
			stack = stack[:len(stack)-1]
		}
		cur := stack[len(stack)-1].rec

		switch ln.text[0] {
		case '@':
			tags, err := parseTags(ln)
			if err != nil {
				return nil, err
			}
			if i+1 < len(lines) && lines[i+1].indent > ln.indent {
				child := &models.Record{}
				if len(tags) > 1 {
					child.Tags = tags[1:]
				}
				cur.Children = append(cur.Children, models.Child{Tag: tags[0], Record: child})
				stack = append(stack, frame{indent: ln.indent, rec: child})
				continue
			}
			cur.Tags = append(cur.Tags, tags...)
		case '[':
			attr, err := parseAttribute(ln)
			if err != nil {
				return nil, err
			}
			cur.Attributes = append(cur.Attributes, attr)
		default:
			return nil, malformed(ln, "line is neither a tag nor an attribute")
		}
	}
	return root, nil
}

// splitHeader returns the non-blank header lines and the content that
// follows the first blank line.
func splitHeader(text string) ([]headerLine, string) {
	var lines []headerLine
	pos, no := 0, 0
	for pos < len(text) {
		no++
		raw, next := text[pos:], len(text)
		if end := strings.IndexByte(raw, '\n'); end >= 0 {
			raw, next = raw[:end], pos+end+1
		}
		body := strings.TrimRight(raw, " \t\r")
		if body == "" {
			return lines, text[next:]
		}
		trimmed := strings.TrimLeft(body, " \t")
		lines = append(lines, headerLine{
			no:     no,
			indent: len(body) - len(trimmed),
			text:   trimmed,
		})
		pos = next
	}
	return lines, ""
}

func parseTags(ln headerLine) ([]string, error) {
	var tags []string
	for _, tok := range strings.Fields(ln.text) {
		if tok[0] == '[' {
			return nil, malformed(ln, "tag and attribute on the same line")
		}
		if tok[0] != '@' {
			return nil, malformed(ln, "tag is missing its '@' marker")
		}
		for _, t := range strings.Split(tok[1:], "@") {
			if t == "" {
				return nil, malformed(ln, "empty tag")
			}
			tags = append(tags, t)
		}
	}
	return tags, nil
}

func parseAttribute(ln headerLine) (models.Attribute, error) {
	if !strings.HasSuffix(ln.text, "]") {
		return models.Attribute{}, malformed(ln, "unbalanced brackets or text after attribute")
	}
	inner := ln.text[1 : len(ln.text)-1]
	if strings.ContainsAny(inner, "[]") {
		return models.Attribute{}, malformed(ln, "more than one attribute or unbalanced brackets")
	}
	key, value, ok := strings.Cut(inner, ":")
	if !ok {
		return models.Attribute{}, malformed(ln, "attribute has no ':' separator")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return models.Attribute{}, malformed(ln, "attribute key is empty")
	}
	return models.Attribute{Key: key, Value: strings.TrimSpace(value)}, nil
}

func malformed(ln headerLine, reason string) error {
	return &HeaderError{Line: ln.no, Text: ln.text, Reason: reason}
}
