package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for the coarse taxonomy. Use errors.Is against these;
// use errors.As against the typed errors below when response detail is
// needed.
var (
	ErrRateLimited = errors.New("rate limited")
	ErrServer      = errors.New("server error")
	ErrDecode      = errors.New("decode error")
	ErrTransport   = errors.New("transport error")
	ErrValidation  = errors.New("validation error")
	ErrCancelled   = errors.New("cancelled")
)

// RateLimitedError is returned once a request has been answered with HTTP
// 429 on every attempt of its retry budget. It satisfies
// errors.Is(err, ErrRateLimited) and carries the body of the last 429
// response; the retry policy does not populate RetryAfter.
type RateLimitedError struct {
	Endpoint   string
	Attempt    int
	RetryAfter string
	Body       string
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s: rate limited (attempt %d): %s", e.Endpoint, e.Attempt, e.Body)
}

func (e *RateLimitedError) Unwrap() error { return ErrRateLimited }

// ServerError wraps a non-429 error response from the upstream service.
type ServerError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

func (e *ServerError) Unwrap() error { return ErrServer }

// HTTPStatus exposes the status code for retry-policy decisions.
func (e *ServerError) HTTPStatus() int { return e.StatusCode }

// DecodeError identifies the offending frame when a response body or SSE
// frame fails to decode.
type DecodeError struct {
	Endpoint string
	Frame    string
	Cause    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decode failed on frame %q: %v", e.Endpoint, e.Frame, e.Cause)
}

func (e *DecodeError) Unwrap() error { return ErrDecode }

// TransportError wraps a lower-level network/transport failure (dial,
// TLS, timeout) that never produced an HTTP response.
type TransportError struct {
	Endpoint string
	Cause    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failure: %v", e.Endpoint, e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrTransport, so callers can match either
// the sentinel or the wrapped cause.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// ValidationError reports a caller-supplied argument the core rejects
// before ever issuing a request (e.g. a tune with no training file ids).
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// CancelledError wraps a context cancellation observed while waiting on
// the capacity gate, a retry backoff, or an in-flight dispatch.
type CancelledError struct {
	Stage string
	Cause error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("%s: cancelled: %v", e.Stage, e.Cause)
}

func (e *CancelledError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrCancelled, so callers can match either
// the sentinel or the underlying context error.
func (e *CancelledError) Is(target error) bool { return target == ErrCancelled }
