package errors

import "fmt"

// ErrorType classifies failures seen while probing and booking against the
// reservation site.
type ErrorType string

const (
	// ErrorTypeNotReady means the probed id has no approved booking behind it.
	// This is an expected outcome, not a failure, and is never retried.
	ErrorTypeNotReady ErrorType = "not_ready"
	// ErrorTypeMalformed means an approved document was missing a required
	// field. The record is skipped and logged.
	ErrorTypeMalformed ErrorType = "malformed"
	// ErrorTypeTransient covers timeouts and connection-level failures that
	// are worth retrying with jitter.
	ErrorTypeTransient ErrorType = "transient"
	// ErrorTypeFatal means retries were exhausted for a single item.
	ErrorTypeFatal ErrorType = "fatal"
	// ErrorTypeStorageConflict is a constraint violation on a local write.
	ErrorTypeStorageConflict ErrorType = "storage_conflict"
	// ErrorTypeRemoteProtocol means the booking or cancel endpoint returned a
	// body we could not interpret.
	ErrorTypeRemoteProtocol ErrorType = "remote_protocol"
	ErrorTypeUnknown        ErrorType = "unknown"
)

// Error carries the failure class alongside a message and, where the failure
// came from HTTP, the status code.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// New builds a typed error.
func New(t ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...)}
}

// NewWithCode builds a typed error carrying an HTTP status code.
func NewWithCode(t ErrorType, code int, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...), Code: code}
}

// IsRetryable reports whether another attempt against the remote site can
// change the outcome for this error type.
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeTransient:
		return true
	case ErrorTypeMalformed:
		// The site occasionally serves truncated pages that heal on re-fetch,
		// so a malformed document consumes an attempt in the batch fetcher.
		return true
	case ErrorTypeNotReady, ErrorTypeFatal, ErrorTypeStorageConflict, ErrorTypeRemoteProtocol:
		return false
	default:
		return false
	}
}

// IsRetryableStatusCode reports whether an HTTP status code indicates a
// retryable condition.
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // network error
		return true
	case 429:
		return true
	case 500, 502, 503, 504:
		return true
	default:
		return statusCode >= 500
	}
}
