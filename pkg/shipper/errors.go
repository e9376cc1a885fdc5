package shipper

import (
	"errors"
	"fmt"
)

// ShipperError represents an error from a delivery carrier.
type ShipperError struct {
	Carrier    string
	Code       string
	Message    string
	StatusCode int
	Retryable  bool
	Cause      error

	// Sentinel is the dispatch-level error this failure maps to, if any.
	Sentinel error
}

// Error implements the error interface.
func (e *ShipperError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error (%s): %s: %v", e.Carrier, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error (%s): %s", e.Carrier, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ShipperError) Unwrap() error {
	return e.Cause
}

// Is matches another ShipperError with the same code, or the mapped sentinel.
func (e *ShipperError) Is(target error) bool {
	if e.Sentinel != nil && target == e.Sentinel {
		return true
	}
	t, ok := target.(*ShipperError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewShipperError creates a new ShipperError.
func NewShipperError(carrier, code, message string) *ShipperError {
	return &ShipperError{
		Carrier: carrier,
		Code:    code,
		Message: message,
	}
}

// WithCause adds a cause to the error.
func (e *ShipperError) WithCause(err error) *ShipperError {
	e.Cause = err
	return e
}

// WithStatusCode adds an HTTP status code to the error.
func (e *ShipperError) WithStatusCode(code int) *ShipperError {
	e.StatusCode = code
	return e
}

// WithRetryable marks the error as retryable.
func (e *ShipperError) WithRetryable(retryable bool) *ShipperError {
	e.Retryable = retryable
	return e
}

// WithSentinel maps the error to a dispatch-level sentinel.
func (e *ShipperError) WithSentinel(sentinel error) *ShipperError {
	e.Sentinel = sentinel
	return e
}

// Sentinel errors for common dispatch scenarios.
var (
	// ErrInvalidRequest indicates the request failed local validation.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrTimeout indicates the carrier did not answer in time.
	ErrTimeout = errors.New("carrier timeout")

	// ErrServiceUnavailable indicates the carrier service is temporarily unavailable.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrQuoteExpired indicates the quote has expired and cannot be used.
	ErrQuoteExpired = errors.New("quote has expired")

	// ErrOrderNotFound indicates the order ID was not found.
	ErrOrderNotFound = errors.New("order not found")

	// ErrCancellationNotAllowed indicates the order cannot be cancelled.
	ErrCancellationNotAllowed = errors.New("cancellation not allowed")

	// ErrDriverNotAssigned indicates the order has no driver yet.
	ErrDriverNotAssigned = errors.New("driver not assigned")

	// ErrAuthenticationFailed indicates carrier authentication failed.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrRateLimitExceeded indicates the carrier rate limit was exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrCarrierNotFound indicates the requested carrier is not registered.
	ErrCarrierNotFound = errors.New("carrier not found")

	// ErrNotSupported indicates the carrier does not offer the operation.
	ErrNotSupported = errors.New("operation not supported by carrier")
)

// IsRetryable returns true if the error is retryable.
// Nothing in this module retries; the flag is advice for callers.
func IsRetryable(err error) bool {
	var shipperErr *ShipperError
	if errors.As(err, &shipperErr) {
		return shipperErr.Retryable
	}
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrRateLimitExceeded) ||
		errors.Is(err, ErrTimeout)
}

// SentinelForStatus maps a carrier HTTP status to a sentinel error.
// It returns nil when no sentinel fits.
func SentinelForStatus(status int) error {
	switch {
	case status == 400 || status == 422:
		return ErrInvalidRequest
	case status == 401 || status == 403:
		return ErrAuthenticationFailed
	case status == 404:
		return ErrOrderNotFound
	case status == 408:
		return ErrTimeout
	case status == 409:
		return ErrCancellationNotAllowed
	case status == 429:
		return ErrRateLimitExceeded
	case status >= 500:
		return ErrServiceUnavailable
	default:
		return nil
	}
}

// RetryableStatus reports whether a caller may reasonably retry after status.
func RetryableStatus(status int) bool {
	return status == 408 || status == 429 || status >= 500
}
