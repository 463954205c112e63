package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// AppError is the unified pipeline error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Kind decides how the pipeline reacts to the error.
	Kind Kind `json:"kind"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details carries segment, file and provider identifiers for diagnosis.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError, deriving Kind and Retryable from the code.
func New(code ErrorCode, message string) *AppError {
	kind := KindOfCode(code)
	return &AppError{
		Code:      code,
		Kind:      kind,
		Message:   message,
		Retryable: kind == KindTransient,
	}
}

// --- Constructors ---

// SourceUnavailable reports a missing or unreadable source file.
func SourceUnavailable(path string, cause error) *AppError {
	return New(ErrCodeSourceUnavailable, fmt.Sprintf("source file %s is missing or unreadable", path)).
		WithDetail("path", path).
		WithCause(cause)
}

// SegmentGap reports a hole in the segment index sequence found on disk.
func SegmentGap(dir string, expected, found int) *AppError {
	return New(ErrCodeSegmentGap, fmt.Sprintf("segment %03d missing in %s (found %03d)", expected, dir, found)).
		WithDetails(map[string]any{"dir": dir, "expected_index": expected, "found_index": found})
}

// InvalidInput reports an invalid argument.
func InvalidInput(field, reason string) *AppError {
	return New(ErrCodeInvalidInput, fmt.Sprintf("invalid %s: %s", field, reason)).
		WithDetail("field", field)
}

// ProviderUnavailable reports a network failure or 5xx answer from a provider.
// status is 0 for connection-level failures.
func ProviderUnavailable(providerID string, status int, cause error) *AppError {
	e := New(ErrCodeProviderUnavailable, fmt.Sprintf("%s is temporarily unavailable", providerID)).
		WithDetail("provider", providerID).
		WithCause(cause)
	if status > 0 {
		e.WithDetail("status", status)
	}
	return e
}

// ProviderRateLimited reports a 429 answer from a provider.
func ProviderRateLimited(providerID string, cause error) *AppError {
	return New(ErrCodeProviderRateLimited, fmt.Sprintf("%s rate limit exceeded", providerID)).
		WithDetails(map[string]any{"provider": providerID, "status": 429}).
		WithCause(cause)
}

// ProviderRejected reports a request the provider will never accept.
func ProviderRejected(providerID string, status int, cause error) *AppError {
	e := New(ErrCodeProviderRejected, fmt.Sprintf("%s rejected the request", providerID)).
		WithDetail("provider", providerID).
		WithCause(cause)
	if status > 0 {
		e.WithDetail("status", status)
	}
	return e
}

// ProviderNotRegistered reports an unknown provider id.
func ProviderNotRegistered(providerID string) *AppError {
	return New(ErrCodeProviderNotRegistered, fmt.Sprintf("no transcription provider registered as %q", providerID)).
		WithDetail("provider", providerID)
}

// ProcessFailed reports a spawn failure or non-zero exit of an external process.
// diagnostics is the captured tail of the process's stderr.
func ProcessFailed(binary string, exitCode int, diagnostics string, cause error) *AppError {
	msg := fmt.Sprintf("%s exited with code %d", binary, exitCode)
	if diagnostics != "" {
		msg += ": " + diagnostics
	}
	return New(ErrCodeProcessFailed, msg).
		WithDetails(map[string]any{"binary": binary, "exit_code": exitCode}).
		WithCause(cause)
}

// ProcessTimeout reports an external process killed by the liveness check.
func ProcessTimeout(binary string, after time.Duration) *AppError {
	return New(ErrCodeProcessTimeout, fmt.Sprintf("%s did not finish within %s and was terminated", binary, after)).
		WithDetails(map[string]any{"binary": binary, "timeout": after.String()})
}

// Aborted reports a run stopped by an explicit abort.
func Aborted(runID string) *AppError {
	return New(ErrCodeAborted, fmt.Sprintf("run %s aborted", runID)).
		WithDetail("run_id", runID)
}

// --- Inspection ---

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err. Errors that are not AppErrors are
// permanent, so unknown failures are never retried.
func KindOf(err error) Kind {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Kind
	}
	return KindPermanent
}

// IsRetryable reports whether err is a transient failure.
func IsRetryable(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Retryable
}
