package dredge

import (
	"errors"
	"fmt"

	"github.com/usestring/dredger/pkg/document"
)

// Error codes.
const (
	// CodeInputShape marks a document whose top level is not a map.
	CodeInputShape = "INPUT_SHAPE"
	// CodeInvariant marks a broken internal invariant during aggregation.
	// Aggregation must stop: continuing would corrupt occurrence counts.
	CodeInvariant = "INVARIANT"
)

// Error is an error with an associated code.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsInputShape reports whether err is an input shape error.
func IsInputShape(err error) bool {
	return hasCode(err, CodeInputShape)
}

// IsInvariant reports whether err is an invariant violation.
func IsInvariant(err error) bool {
	return hasCode(err, CodeInvariant)
}

func hasCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

func errInputShape(n document.Node) error {
	got := "nil"
	if n != nil {
		got = n.Kind().String()
	}
	return &Error{
		Code:    CodeInputShape,
		Message: fmt.Sprintf("document top level must be a map, got %s", got),
	}
}

func errInvariant(format string, args ...any) error {
	return &Error{
		Code:    CodeInvariant,
		Message: fmt.Sprintf(format, args...),
	}
}
