package command

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedPair indicates a query token that is not of the form key=value.
	ErrMalformedPair = errors.New("malformed key=value pair")

	// ErrInvalidValue indicates a channel value that is not a base-10 integer.
	ErrInvalidValue = errors.New("value is not a base-10 integer")

	// ErrOutOfRange indicates a channel value outside [0, 255].
	ErrOutOfRange = errors.New("value out of range [0, 255]")
)

// ParseError reports which key and token caused a parse failure.
type ParseError struct {
	// Key is the channel key, empty for a malformed pair.
	Key string
	// Token is the offending query token or value.
	Token string
	// Err is one of ErrMalformedPair, ErrInvalidValue or ErrOutOfRange.
	Err error
}

// Error implements error.
func (e *ParseError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("command: token %q: %v", e.Token, e.Err)
	}
	return fmt.Sprintf("command: key %q value %q: %v", e.Key, e.Token, e.Err)
}

// Unwrap returns the underlying sentinel error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
