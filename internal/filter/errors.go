package filter

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax is matched by every *SyntaxError.
	ErrSyntax = errors.New("filter syntax error")
	// ErrNonNumericComparison is matched by every *NumericError.
	ErrNonNumericComparison = errors.New("non-numeric comparison")
)

// SyntaxError reports the token at which parsing of a filter string failed.
type SyntaxError struct {
	Pos   int // byte offset into the filter string
	Token string
	Msg   string
}

func (e *SyntaxError) Error() string {
	tok := fmt.Sprintf("%q", e.Token)
	if e.Token == "" {
		tok = "end of input"
	}
	return fmt.Sprintf("%s: %s at position %d: %s", ErrSyntax, e.Msg, e.Pos, tok)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// NumericError reports a relational comparison against a value that is not a number.
type NumericError struct {
	Field string
	Value string
}

func (e *NumericError) Error() string {
	return fmt.Sprintf("%s: field %q has value %q", ErrNonNumericComparison, e.Field, e.Value)
}

func (e *NumericError) Unwrap() error { return ErrNonNumericComparison }
