package formula

import (
	"errors"
	"fmt"
)

// Sentinel errors for each failure kind. A *ParseError unwraps to exactly one of them.
var (
	// ErrEmptyFormula means there was nothing to parse: the input is empty
	// or contains no atoms once parsed (for example "." or "H0").
	ErrEmptyFormula = errors.New("empty formula")

	// ErrUnrecognizedToken means a character could not start an element symbol
	// or a structural token at its position.
	ErrUnrecognizedToken = errors.New("unrecognized token")

	// ErrUnknownElement means a well-formed symbol is missing from the mass table.
	ErrUnknownElement = errors.New("unknown element")

	// ErrMalformedNesting means a ')' had no matching '(' or a '(' was never closed.
	ErrMalformedNesting = errors.New("malformed nesting")
)

// ParseError describes why a formula was rejected.
type ParseError struct {
	Kind    error  // one of the Err* sentinels
	Formula string // the formula as given by the caller
	Offset  int    // byte offset into Formula, -1 when not tied to a position
	Text    string // offending symbol or character
	Message string // optional detail
}

func (e *ParseError) Error() string {
	msg := e.Kind.Error()
	if e.Text != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Text)
	}
	if e.Offset >= 0 {
		msg = fmt.Sprintf("%s at offset %d", msg, e.Offset)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return fmt.Sprintf("formula %q: %s", e.Formula, msg)
}

// Unwrap returns the failure kind so callers can use errors.Is.
func (e *ParseError) Unwrap() error {
	return e.Kind
}
