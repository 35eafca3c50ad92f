package domain

import (
	"errors"
	"fmt"
	"time"
)

// APIError represents a standardized error response
type APIError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrCodeValidation            = "VALIDATION_ERROR"
	ErrCodeRequestFailed         = "CLASSIFIER_REQUEST_FAILED"
	ErrCodeDecode                = "CLASSIFIER_DECODE_ERROR"
	ErrCodeClassifierUnavailable = "CLASSIFIER_UNAVAILABLE"
	ErrCodePayloadTooLarge       = "PAYLOAD_TOO_LARGE"
	ErrCodeNotFound              = "NOT_FOUND"
	ErrCodeInternal              = "INTERNAL_SERVER_ERROR"
)

// Sentinel errors shared by the pipeline components
var (
	// ErrClassifierUnavailable is returned when no classifier credential is configured.
	ErrClassifierUnavailable = errors.New("classifier is not configured: set GEMINI_API_KEY")
	// ErrNotStructured means the response is not a structured document at all.
	ErrNotStructured = errors.New("response is not a structured classification document")
	// ErrNoCodes means the response contains neither an ASCOD nor a TOAST code.
	ErrNoCodes = errors.New("response contains no ASCOD or TOAST code")
)

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// RequestFailedError reports a classifier call that did not produce a response
// body. StatusCode is zero when the failure happened before any HTTP status
// was received.
type RequestFailedError struct {
	Cause      error
	StatusCode int
}

// Error implements the error interface
func (e *RequestFailedError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("classifier request failed with status %d: %v", e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("classifier request failed: %v", e.Cause)
}

func (e *RequestFailedError) Unwrap() error {
	return e.Cause
}

// DecodeError reports a classifier response that could not be turned into a
// classification. Raw always holds the response text as received.
type DecodeError struct {
	Reason string
	Raw    string
	Err    error
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode classifier response: %s: %v", e.Reason, e.Err)
	}
	return "decode classifier response: " + e.Reason
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NewAPIError creates a new APIError with timestamp
func NewAPIError(code, message, details, requestID string) *APIError {
	return &APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// NewRequestFailedError creates a new RequestFailedError
func NewRequestFailedError(cause error, statusCode int) *RequestFailedError {
	return &RequestFailedError{
		Cause:      cause,
		StatusCode: statusCode,
	}
}

// NewDecodeError creates a new DecodeError
func NewDecodeError(reason, raw string, err error) *DecodeError {
	return &DecodeError{
		Reason: reason,
		Raw:    raw,
		Err:    err,
	}
}

// ErrorCode maps a pipeline error to its public error code.
func ErrorCode(err error) string {
	var (
		validationErr *ValidationError
		requestErr    *RequestFailedError
		decodeErr     *DecodeError
		apiErr        *APIError
	)
	switch {
	case errors.As(err, &validationErr):
		return ErrCodeValidation
	case errors.Is(err, ErrClassifierUnavailable):
		return ErrCodeClassifierUnavailable
	case errors.As(err, &requestErr):
		return ErrCodeRequestFailed
	case errors.As(err, &decodeErr):
		return ErrCodeDecode
	case errors.As(err, &apiErr):
		return apiErr.Code
	default:
		return ErrCodeInternal
	}
}
