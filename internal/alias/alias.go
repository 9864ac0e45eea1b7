// Package alias expands named argument-list macros.
//
// An alias template is an argument list such as
//
//	--filter 'Name,Phone' WHERE Name = '$0' --limit 1
//
// where $N is replaced by the N-th call argument and \$N stays a literal
// "$N". Words before the first option invoke another alias, which is
// expanded in turn. Expansion does not detect cycles: an alias that
// reaches itself recurses until the stack is exhausted, so alias tables
// must be kept acyclic by whoever writes them.
package alias

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrAliasNotFound   = errors.New("alias not found")
	ErrMissingArgument = errors.New("missing alias argument")
)

// Table maps alias names to templates.
type Table map[string]string

// Expand returns the argument list alias name stands for when called with args.
func Expand(name string, args []string, table Table) ([]string, error) {
	tmpl, ok := table[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrAliasNotFound, name)
	}
	text, err := Substitute(tmpl, args)
	if err != nil {
		return nil, fmt.Errorf("alias %q: %w", name, err)
	}
	lead, opts := Split(text)
	if len(lead) == 0 {
		return opts, nil
	}
	nested, err := Expand(lead[0], lead[1:], table)
	if err != nil {
		return nil, err
	}
	return append(nested, opts...), nil
}

// Substitute replaces $N placeholders in tmpl with args[N]. Extra
// arguments are ignored.
func Substitute(tmpl string, args []string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		switch {
		case c == '\\' && i+1 < len(tmpl) && tmpl[i+1] == '$' && digitsAt(tmpl, i+2) > 0:
			n := digitsAt(tmpl, i+2)
			b.WriteString(tmpl[i+1 : i+2+n])
			i += 1 + n
		case c == '$' && digitsAt(tmpl, i+1) > 0:
			n := digitsAt(tmpl, i+1)
			idx, err := strconv.Atoi(tmpl[i+1 : i+1+n])
			if err != nil || idx >= len(args) {
				return "", fmt.Errorf("%w: $%s (got %d)", ErrMissingArgument, tmpl[i+1:i+1+n], len(args))
			}
			b.WriteString(args[idx])
			i += n
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

func digitsAt(s string, i int) int {
	n := 0
	for i+n < len(s) && s[i+n] >= '0' && s[i+n] <= '9' {
		n++
	}
	return n
}

// Split divides an expanded template into the leading words (an alias
// invocation, unquoted) and the option arguments. Each "--option" word
// found outside quotes becomes one argument and the raw text up to the
// next option becomes its value.
func Split(text string) (lead, opts []string) {
	ws := words(text)
	first := len(ws)
	for i, w := range ws {
		if isOption(text[w.start:w.end]) {
			first = i
			break
		}
	}
	for _, w := range ws[:first] {
		lead = append(lead, unquote(text[w.start:w.end]))
	}

	for i := first; i < len(ws); {
		opt := ws[i]
		j := i + 1
		for j < len(ws) && !isOption(text[ws[j].start:ws[j].end]) {
			j++
		}
		opts = append(opts, text[opt.start:opt.end])
		end := len(text)
		if j < len(ws) {
			end = ws[j].start
		}
		if value := strings.TrimSpace(text[opt.end:end]); value != "" {
			opts = append(opts, value)
		}
		i = j
	}
	return lead, opts
}

func isOption(w string) bool {
	return strings.HasPrefix(w, "--") && len(w) > 2
}

type word struct{ start, end int }

// words splits s on whitespace, keeping quoted runs inside one word.
func words(s string) []word {
	var out []word
	i := 0
	for i < len(s) {
		if isSpace(s[i]) {
			i++
			continue
		}
		start := i
		for i < len(s) && !isSpace(s[i]) {
			if q := s[i]; q == '\'' || q == '"' {
				end := strings.IndexByte(s[i+1:], q)
				if end < 0 {
					i = len(s)
					break
				}
				i += end + 2
				continue
			}
			i++
		}
		out = append(out, word{start: start, end: i})
	}
	return out
}

func unquote(w string) string {
	var b strings.Builder
	var quote byte
	for i := 0; i < len(w); i++ {
		c := w[i]
		switch {
		case quote == 0 && (c == '\'' || c == '"'):
			quote = c
		case quote != 0 && c == quote:
			quote = 0
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
