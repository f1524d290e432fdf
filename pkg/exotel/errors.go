package exotel

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMissingCredentials is returned by New when the account SID or token is empty.
	ErrMissingCredentials = errors.New("exotel: account sid and token are required")

	// ErrInsufficientParameters is matched by every *ValidationError.
	ErrInsufficientParameters = errors.New("insufficient parameters")

	// ErrRateLimitExceeded is returned when Exotel answers with HTTP 429.
	// The provider sends no further detail, so neither does the error.
	ErrRateLimitExceeded = errors.New("exotel: rate limit exceeded")
)

// ValidationError reports a missing mandatory field. It is raised before any
// request goes out.
type ValidationError struct {
	Op string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("exotel: %s: %s", e.Op, ErrInsufficientParameters)
}

// Is lets errors.Is(err, ErrInsufficientParameters) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInsufficientParameters
}

// ProviderError carries the message Exotel put under RestException.Message
// for any non-200, non-429 answer.
type ProviderError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("exotel: %s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

// DecodeError means a 200 response could not be turned into the expected object.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("exotel: %s: decode response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsRateLimited reports whether err came from an HTTP 429.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimitExceeded)
}

// restException is the failure envelope: {"RestException":{"Message":"..."}}.
// Any Status inside the body is ignored; the HTTP status is authoritative.
type restException struct {
	RestException struct {
		Message string `json:"Message"`
	} `json:"RestException"`
}

func newProviderError(op string, status int, message string) *ProviderError {
	if message == "" {
		message = http.StatusText(status)
	}
	return &ProviderError{Op: op, StatusCode: status, Message: message}
}
