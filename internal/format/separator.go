// Package format renders query rows as separator-joined text lines.
package format

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// DefaultSeparator joins the cells of a row when none is configured.
const DefaultSeparator = " | "

// ErrInvalidSeparator is returned for separators that cannot be decoded.
var ErrInvalidSeparator = errors.New("invalid field separator")

// ParseSeparator decodes a configured separator. Values longer than one
// character must be quoted with ' or ". {SPACE}, {TAB} and \uXXXX escapes
// are expanded. An empty value selects DefaultSeparator.
func ParseSeparator(raw string) (string, error) {
	if raw == "" {
		return DefaultSeparator, nil
	}
	quoted := false
	if n := len(raw); n >= 2 && (raw[0] == '\'' || raw[0] == '"') && raw[n-1] == raw[0] {
		raw, quoted = raw[1:n-1], true
	}
	sep, err := expand(raw)
	if err != nil {
		return "", err
	}
	if !quoted && utf8.RuneCountInString(sep) > 1 {
		return "", fmt.Errorf("%w: %q is longer than one character and must be quoted", ErrInvalidSeparator, raw)
	}
	return sep, nil
}

func expand(s string) (string, error) {
	s = strings.NewReplacer("{SPACE}", " ", "{TAB}", "\t").Replace(s)

	var b strings.Builder
	for {
		i := strings.Index(s, `\u`)
		if i < 0 {
			b.WriteString(s)
			return b.String(), nil
		}
		b.WriteString(s[:i])
		if len(s) < i+6 {
			return "", fmt.Errorf("%w: %q needs four hex digits", ErrInvalidSeparator, s[i:])
		}
		code, err := strconv.ParseUint(s[i+2:i+6], 16, 32)
		if err != nil {
			return "", fmt.Errorf("%w: %q needs four hex digits", ErrInvalidSeparator, s[i:i+6])
		}
		r := rune(code)
		if !utf8.ValidRune(r) {
			return "", fmt.Errorf("%w: %q is not a valid code point", ErrInvalidSeparator, s[i:i+6])
		}
		b.WriteRune(r)
		s = s[i+6:]
	}
}
