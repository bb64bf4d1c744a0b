package simapi

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors mapped from the remote API's error codes. Callers match
// with errors.Is; the wrapped error carries the operation and remote detail.
var (
	ErrUnauthorized          = errors.New("simapi: unauthorized")
	ErrNotFound              = errors.New("simapi: not found")
	ErrInvalidRequest        = errors.New("simapi: invalid request")
	ErrRateLimited           = errors.New("simapi: rate limited")
	ErrServerFault           = errors.New("simapi: server fault")
	ErrVisualiserUnavailable = errors.New("simapi: visualiser unavailable")
	ErrSessionMismatch       = errors.New("simapi: handle bound to a different session")
)

// wireError is the error body returned by the remote API.
type wireError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// apiError decorates a sentinel with the operation and remote detail.
type apiError struct {
	op     string
	status int
	code   string
	detail string
	base   error
}

func (e *apiError) Error() string {
	if e.detail != "" {
		return fmt.Sprintf("simapi: %s: %s (http %d, code %q)", e.op, e.detail, e.status, e.code)
	}
	return fmt.Sprintf("simapi: %s failed (http %d, code %q)", e.op, e.status, e.code)
}

func (e *apiError) Unwrap() error { return e.base }

// mapError converts an HTTP status and wire error code into a typed error.
func mapError(op string, status int, we wireError) error {
	base := ErrServerFault
	switch {
	case we.Error.Code == "visualiser_unavailable":
		base = ErrVisualiserUnavailable
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		base = ErrUnauthorized
	case status == http.StatusNotFound:
		base = ErrNotFound
	case status == http.StatusTooManyRequests:
		base = ErrRateLimited
	case status >= 400 && status < 500:
		base = ErrInvalidRequest
	}
	return &apiError{
		op:     op,
		status: status,
		code:   we.Error.Code,
		detail: we.Error.Message,
		base:   base,
	}
}

// retryable reports whether a failed call may be retried. Client errors are
// final; rate limiting and upstream faults are worth another attempt.
func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
