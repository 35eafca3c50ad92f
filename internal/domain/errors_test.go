package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		message   string
		details   string
		requestID string
	}{
		{
			name:      "Validation error",
			code:      ErrCodeValidation,
			message:   "stenosis out of range",
			details:   "value must be between 0 and 100",
			requestID: "req-123",
		},
		{
			name:      "Classifier unavailable",
			code:      ErrCodeClassifierUnavailable,
			message:   "classifier is not configured",
			requestID: "req-456",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewAPIError(tt.code, tt.message, tt.details, tt.requestID)

			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.details, err.Details)
			assert.Equal(t, tt.requestID, err.RequestID)
			assert.WithinDuration(t, time.Now().UTC(), err.Timestamp, time.Minute)
			assert.Equal(t, tt.code+": "+tt.message, err.Error())
		})
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("stenosis", "must be between 0 and 100", 150)

	assert.Equal(t, "stenosis", err.Field)
	assert.Equal(t, 150, err.Value)
	assert.Equal(t, "validation error for field 'stenosis': must be between 0 and 100", err.Error())

	bare := NewValidationError("", "unsupported input type", "xml")
	assert.Equal(t, "validation error: unsupported input type", bare.Error())
}

func TestRequestFailedError(t *testing.T) {
	cause := errors.New("connection refused")

	withStatus := NewRequestFailedError(cause, 500)
	assert.Contains(t, withStatus.Error(), "status 500")
	assert.ErrorIs(t, withStatus, cause)

	transport := NewRequestFailedError(cause, 0)
	assert.Equal(t, "classifier request failed: connection refused", transport.Error())
}

func TestDecodeError(t *testing.T) {
	err := NewDecodeError("no codes found", "just prose", ErrNoCodes)

	assert.ErrorIs(t, err, ErrNoCodes)
	assert.NotErrorIs(t, err, ErrNotStructured)
	assert.Equal(t, "just prose", err.Raw)
	assert.Contains(t, err.Error(), "no codes found")
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"validation", NewValidationError("lvef", "not a number", "abc"), ErrCodeValidation},
		{"wrapped validation", fmt.Errorf("normalize: %w", NewValidationError("x", "y", nil)), ErrCodeValidation},
		{"request failed", NewRequestFailedError(errors.New("timeout"), 0), ErrCodeRequestFailed},
		{"decode", NewDecodeError("bad grade", "A7", ErrInvalidGrade), ErrCodeDecode},
		{"unavailable", ErrClassifierUnavailable, ErrCodeClassifierUnavailable},
		{"api error", NewAPIError("CUSTOM", "m", "", ""), "CUSTOM"},
		{"unknown", errors.New("boom"), ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.err)
			assert.Equal(t, tt.expected, ErrorCode(tt.err))
		})
	}
}
