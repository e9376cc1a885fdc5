package lalamove

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failed call.
type ErrorKind string

const (
	// KindHTTP is a response outside [200,400).
	KindHTTP ErrorKind = "http"
	// KindTimeout means no response was received.
	KindTimeout ErrorKind = "timeout"
	// KindUnexpected covers DNS, TLS, encoding and other transport failures.
	KindUnexpected ErrorKind = "unexpected"
	// KindValidation is raised locally before anything is signed or sent.
	KindValidation ErrorKind = "validation"
)

// Status values used for failures that carry no HTTP response.
const (
	StatusTimeout    = http.StatusRequestTimeout
	StatusUnexpected = -1
	StatusValidation = http.StatusBadRequest
)

// Detail messages used for synthesized failures.
const (
	MessageTimeout    = "Connection Timeout"
	MessageUnexpected = "Unexpected Request Error"
)

// ClientError is the single error type returned by the API client.
type ClientError struct {
	Kind   ErrorKind
	Status int
	Detail map[string]any
	Cause  error
}

// Error renders the status and detail as JSON so callers can parse it back.
func (e *ClientError) Error() string {
	detail := e.Detail
	if detail == nil {
		detail = map[string]any{}
	}
	b, err := json.Marshal(struct {
		Status int            `json:"status"`
		Detail map[string]any `json:"detail"`
	}{e.Status, detail})
	if err != nil {
		return fmt.Sprintf(`{"status":%d,"detail":{}}`, e.Status)
	}
	return string(b)
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Message returns detail["message"] when it is a string.
func (e *ClientError) Message() string {
	if msg, ok := e.Detail["message"].(string); ok {
		return msg
	}
	return ""
}

func newHTTPError(status int, detail map[string]any) *ClientError {
	if detail == nil {
		detail = map[string]any{}
	}
	return &ClientError{Kind: KindHTTP, Status: status, Detail: detail}
}

func newTimeoutError(cause error) *ClientError {
	return &ClientError{
		Kind:   KindTimeout,
		Status: StatusTimeout,
		Detail: map[string]any{"message": MessageTimeout},
		Cause:  cause,
	}
}

func newUnexpectedError(cause error) *ClientError {
	return &ClientError{
		Kind:   KindUnexpected,
		Status: StatusUnexpected,
		Detail: map[string]any{"message": MessageUnexpected},
		Cause:  cause,
	}
}

// ValidationError builds a local pre-flight failure.
func ValidationError(format string, args ...any) *ClientError {
	return &ClientError{
		Kind:   KindValidation,
		Status: StatusValidation,
		Detail: map[string]any{"message": fmt.Sprintf(format, args...)},
	}
}

// StatusOf returns the status carried by err, or 0 if err is not a ClientError.
func StatusOf(err error) int {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Status
	}
	return 0
}

// KindOf returns the kind carried by err, or "" if err is not a ClientError.
func KindOf(err error) ErrorKind {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// IsTimeout reports whether err is a timeout ClientError.
func IsTimeout(err error) bool {
	return KindOf(err) == KindTimeout
}

// IsValidation reports whether err was raised before any network call.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}
