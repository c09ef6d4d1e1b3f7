// Package apierr defines the fixed error taxonomy surfaced by every layer
// of the pipeline, wrapped at the point of origin with eris so a stack
// trace survives to the log line without changing the surfaced code.
package apierr

import (
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
)

// Code is one of the fixed error codes in the external error taxonomy.
type Code string

const (
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeEvidenceViolation Code = "EVIDENCE_VIOLATION" // reserved, never emitted
	CodeRateLimitExceeded Code = "RATE_LIMIT_EXCEEDED"
	CodeLowConfidence     Code = "LOW_CONFIDENCE"
	CodeInsufficientData  Code = "INSUFFICIENT_DATA"
	CodeUpstreamMissing   Code = "UPSTREAM_ARTIFACT_MISSING"
	CodeOpenAIError       Code = "OPENAI_ERROR"
	CodeOpenAITimeout     Code = "OPENAI_TIMEOUT"
	CodeRequestTimeout    Code = "REQUEST_TIMEOUT"
	CodeInternal          Code = "INTERNAL_ERROR"
)

// Status maps each code to its HTTP status.
func (c Code) Status() int {
	switch c {
	case CodeValidation:
		return 400
	case CodeUnauthorized:
		return 401
	case CodeEvidenceViolation:
		return 409
	case CodeRateLimitExceeded:
		return 429
	case CodeLowConfidence:
		return 422
	case CodeInsufficientData, CodeUpstreamMissing:
		return 424
	case CodeOpenAIError:
		return 503
	case CodeOpenAITimeout, CodeRequestTimeout:
		return 504
	default:
		return 500
	}
}

// Error is the typed error carried unchanged to the global error handler.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs an Error with no wrapped cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap constructs an Error wrapping cause with an eris stack trace attached.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: eris.Wrap(cause, message)}
}

// WithDetails attaches structured detail fields and returns the receiver
// for chaining.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// As reports whether err is (or wraps) an *Error, following the standard
// errors.As convention.
func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}
