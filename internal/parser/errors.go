package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedHeader is matched by every *HeaderError.
	ErrMalformedHeader = errors.New("malformed header")
	// ErrInvalidEncoding is returned for input that is not valid UTF-8.
	ErrInvalidEncoding = errors.New("note is not valid UTF-8")
)

// HeaderError describes a header line that is neither a valid tag line
// nor a valid attribute line.
type HeaderError struct {
	Path   string // file the note came from, if known
	Line   int    // 1-based
	Text   string
	Reason string
}

func (e *HeaderError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s:%d: %s: %q", ErrMalformedHeader, e.Path, e.Line, e.Reason, e.Text)
	}
	return fmt.Sprintf("%s: line %d: %s: %q", ErrMalformedHeader, e.Line, e.Reason, e.Text)
}

func (e *HeaderError) Unwrap() error { return ErrMalformedHeader }

// WithPath returns err annotated with path when it is a *HeaderError.
func WithPath(err error, path string) error {
	var he *HeaderError
	if errors.As(err, &he) {
		cp := *he
		cp.Path = path
		return &cp
	}
	return err
}
