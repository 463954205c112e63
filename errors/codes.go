package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Source and filesystem errors
const (
	// ErrCodeSourceUnavailable indicates the source media is missing or unreadable.
	ErrCodeSourceUnavailable ErrorCode = "SOURCE_UNAVAILABLE"
	// ErrCodeSegmentGap indicates the segment files on disk are not contiguous.
	ErrCodeSegmentGap ErrorCode = "SEGMENT_GAP"
	// ErrCodeInvalidInput indicates a caller supplied an invalid argument.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Provider errors
const (
	// ErrCodeProviderUnavailable indicates a network failure or 5xx from a provider.
	ErrCodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	// ErrCodeProviderRateLimited indicates the provider answered 429.
	ErrCodeProviderRateLimited ErrorCode = "PROVIDER_RATE_LIMITED"
	// ErrCodeProviderRejected indicates the provider refused the request (4xx, bad model, bad format).
	ErrCodeProviderRejected ErrorCode = "PROVIDER_REJECTED"
	// ErrCodeProviderNotRegistered indicates no factory exists for a provider id.
	ErrCodeProviderNotRegistered ErrorCode = "PROVIDER_NOT_REGISTERED"
)

// Process errors
const (
	// ErrCodeProcessFailed indicates an external process failed to spawn or exited non-zero.
	ErrCodeProcessFailed ErrorCode = "PROCESS_FAILED"
	// ErrCodeProcessTimeout indicates the liveness check terminated an external process.
	ErrCodeProcessTimeout ErrorCode = "PROCESS_TIMEOUT"
	// ErrCodeAborted indicates the run was aborted by its owner.
	ErrCodeAborted ErrorCode = "ABORTED"
)

// Kind groups error codes by how the pipeline reacts to them.
type Kind int

const (
	// KindPrecondition is a missing or unusable input. Never retried.
	KindPrecondition Kind = iota
	// KindTransient is a provider failure worth retrying.
	KindTransient
	// KindPermanent is a provider failure that no retry can fix.
	KindPermanent
	// KindProcess is an external process failure. Aborts the run.
	KindProcess
	// KindTimeout is a liveness-check trip. Aborts the run.
	KindTimeout
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindPrecondition:
		return "precondition"
	case KindTransient:
		return "transient"
	case KindPermanent:
		return "permanent"
	case KindProcess:
		return "process"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

var codeKinds = map[ErrorCode]Kind{
	ErrCodeSourceUnavailable:     KindPrecondition,
	ErrCodeSegmentGap:            KindPrecondition,
	ErrCodeInvalidInput:          KindPrecondition,
	ErrCodeProviderUnavailable:   KindTransient,
	ErrCodeProviderRateLimited:   KindTransient,
	ErrCodeProviderRejected:      KindPermanent,
	ErrCodeProviderNotRegistered: KindPermanent,
	ErrCodeProcessFailed:         KindProcess,
	ErrCodeProcessTimeout:        KindTimeout,
	ErrCodeAborted:               KindProcess,
}

// KindOfCode returns the kind an error code belongs to.
// Unknown codes are treated as permanent.
func KindOfCode(code ErrorCode) Kind {
	if k, ok := codeKinds[code]; ok {
		return k
	}
	return KindPermanent
}
