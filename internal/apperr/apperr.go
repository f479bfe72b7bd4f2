package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline errors so callers can pick the right reaction:
// reject, retry, surface, or downgrade to a warning.
type Kind int

const (
	KindValidation  Kind = iota // bad request parameters, never retried
	KindSubmission              // provider rejected the job even after tier fallback
	KindProvider                // provider-reported error, categorized by code
	KindNetwork                 // transient transport failure, retryable
	KindTimeout                 // attempt budget exhausted while non-terminal
	KindPersistence             // durable upload failed, downgraded to warning
)

// Provider error codes. These mirror the provider's HTTP-style codes.
const (
	CodeUnauthorized        = 401
	CodeInsufficientCredits = 402
	CodeRateLimited         = 429
	CodeMaintenance         = 455
	CodeServerError         = 500
)

// Error is the single error type crossing package boundaries in the
// generation pipeline.
type Error struct {
	Kind    Kind
	Code    int // provider code for KindProvider, otherwise 0
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation rejects bad request parameters before any network call
func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Submission marks a terminal provider rejection after fallback
func Submission(message string, err error) *Error {
	return &Error{Kind: KindSubmission, Message: message, Err: err}
}

// Provider wraps a provider-reported error code
func Provider(code int, message string) *Error {
	return &Error{Kind: KindProvider, Code: code, Message: message}
}

// Network wraps a transient transport failure
func Network(message string, err error) *Error {
	return &Error{Kind: KindNetwork, Message: message, Err: err}
}

// Timeout marks attempt-budget exhaustion
func Timeout(message string) *Error {
	return &Error{Kind: KindTimeout, Message: message}
}

// Persistence marks a non-fatal durable-storage failure
func Persistence(message string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: message, Err: err}
}

// Is reports whether err is an *Error of the given kind
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// As returns the *Error inside err, if any
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// UserMessage maps a provider code to the message shown to callers.
// Each billing-relevant code gets its own wording so the UI can react
// differently to credit exhaustion vs rate limiting.
func UserMessage(code int) string {
	switch code {
	case CodeUnauthorized:
		return "Provider API key is invalid or expired"
	case CodeInsufficientCredits:
		return "Provider account has insufficient credits"
	case CodeRateLimited:
		return "Provider rate limit exceeded, try again shortly"
	case CodeMaintenance:
		return "Provider is under maintenance"
	default:
		return "Provider returned an unexpected error"
	}
}
