package tools

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/usestring/dredger/internal/corpus"
)

// Error codes for MCP tool responses.
const (
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeInternal     = "INTERNAL"
)

// CodedError is an error with an associated error code.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// WrapRunError converts a failed corpus run to a coded error.
func WrapRunError(target string, err error) error {
	if err == nil {
		return nil
	}

	var coded *CodedError
	switch {
	case errors.Is(err, fs.ErrNotExist):
		coded = &CodedError{
			Code:    ErrCodeNotFound,
			Message: fmt.Sprintf("target not found: %s", target),
			Cause:   err,
		}
	case corpus.IsAborted(err):
		coded = &CodedError{
			Code:    ErrCodeInternal,
			Message: "run aborted",
			Cause:   err,
		}
	default:
		coded = &CodedError{
			Code:    ErrCodeInvalidInput,
			Message: err.Error(),
			Cause:   err,
		}
	}

	slog.Warn("inference run failed",
		slog.String("target", target),
		slog.String("code", coded.Code),
		slog.String("error", err.Error()),
	)

	return coded
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) error {
	return &CodedError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// ErrInvalidInput creates an invalid input error.
func ErrInvalidInput(message string) error {
	return &CodedError{
		Code:    ErrCodeInvalidInput,
		Message: message,
	}
}
