package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error codes for the candidate pipeline taxonomy.
//
// Acquisition codes end the file terminally (the input itself is unreadable)
// except OCR_UNAVAILABLE, which degrades to whatever text was recovered.
// Model codes never fail a file; they degrade it to deterministic-only output.
// Sink codes drive the dispatch retry machine: UNREACHABLE retries, REJECTED
// is immediately terminal.
const (
	CodeUnsupportedFormat  = "UNSUPPORTED_FORMAT"
	CodeCorruptFile        = "CORRUPT_FILE"
	CodeOCRUnavailable     = "OCR_UNAVAILABLE"
	CodeModelUnavailable   = "MODEL_UNAVAILABLE"
	CodeModelTimeout       = "MODEL_TIMEOUT"
	CodeUnparsableResponse = "UNPARSABLE_RESPONSE"
	CodeSinkUnreachable    = "SINK_UNREACHABLE"
	CodeSinkRejected       = "SINK_REJECTED"
	CodeLedgerUnreadable   = "LEDGER_UNREADABLE"
	CodeConfigError        = "CONFIG_ERROR"
)

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// CodeOf returns the taxonomy code carried by err, or "" if none.
func CodeOf(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// IsCode reports whether err carries the given taxonomy code.
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}
