package httpclient

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	apperrors "github.com/kbukum/scribekit/errors"
)

// ErrorCode classifies a failed exchange before it is mapped onto the
// provider error taxonomy.
type ErrorCode int

const (
	ErrCodeTimeout ErrorCode = iota
	ErrCodeConnection
	// ErrCodeRateLimit is a 429 answer.
	ErrCodeRateLimit
	// ErrCodeServer is a 5xx answer.
	ErrCodeServer
	// ErrCodeRejected is any other non-2xx answer: auth, not found,
	// unsupported media, bad parameters.
	ErrCodeRejected
)

var codeNames = map[ErrorCode]string{
	ErrCodeTimeout:    "timeout",
	ErrCodeConnection: "connection",
	ErrCodeRateLimit:  "rate_limit",
	ErrCodeServer:     "server",
	ErrCodeRejected:   "rejected",
}

func (c ErrorCode) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return "unknown"
}

// Error is a failed exchange. StatusCode is 0 when no response arrived.
type Error struct {
	StatusCode int
	Code       ErrorCode
	Retryable  bool
	// Body is the response body, kept for diagnostics.
	Body []byte
	Err  error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d)", e.Code, e.StatusCode)
	}
	return fmt.Sprintf("httpclient: %s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewTimeoutError wraps a deadline or network timeout.
func NewTimeoutError(err error) *Error {
	return &Error{Code: ErrCodeTimeout, Retryable: true, Err: err}
}

// NewConnectionError wraps a refused, reset or unresolvable connection.
func NewConnectionError(err error) *Error {
	return &Error{Code: ErrCodeConnection, Retryable: true, Err: err}
}

// ClassifyStatusCode returns nil for 2xx answers. Rate limits and server
// errors are retryable; every other status is a rejection.
func ClassifyStatusCode(statusCode int, body []byte) *Error {
	e := &Error{StatusCode: statusCode, Body: body}
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusTooManyRequests:
		e.Code, e.Retryable = ErrCodeRateLimit, true
	case statusCode >= 500:
		e.Code, e.Retryable = ErrCodeServer, true
	default:
		e.Code = ErrCodeRejected
	}
	return e
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeTimeout
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// ToAppError converts a transport or status error from providerID into the
// pipeline error taxonomy: rate limits, 5xx, timeouts and connection
// failures are transient, everything else is permanent. Errors that are
// already AppErrors pass through.
func ToAppError(providerID string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	var e *Error
	if !errors.As(err, &e) {
		return apperrors.ProviderRejected(providerID, 0, err)
	}
	switch {
	case e.Code == ErrCodeRateLimit:
		return apperrors.ProviderRateLimited(providerID, e).WithDetail("body", snippet(e.Body))
	case e.Retryable:
		return apperrors.ProviderUnavailable(providerID, e.StatusCode, e)
	default:
		return apperrors.ProviderRejected(providerID, e.StatusCode, e).WithDetail("body", snippet(e.Body))
	}
}

func snippet(body []byte) string {
	const limit = 512
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
