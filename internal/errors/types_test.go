package errors

import (
	"errors"
	"fmt"
	"net/http"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransientClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{"nil", nil, false},
		{"explicit transient", NewTransientError(errors.New("x"), ""), true},
		{"explicit permanent", NewPermanentError(errors.New("x"), ""), false},
		{"http 429", NewHTTPStatusError(http.StatusTooManyRequests, "Too Many Requests", ""), true},
		{"http 503", NewHTTPStatusError(http.StatusServiceUnavailable, "Service Unavailable", ""), true},
		{"http 401", NewHTTPStatusError(http.StatusUnauthorized, "Unauthorized", ""), false},
		{"http 404", NewHTTPStatusError(http.StatusNotFound, "Not Found", ""), false},
		{"connection refused errno", syscall.ECONNREFUSED, true},
		{"wrapped transient", fmt.Errorf("call failed: %w", NewTransientError(errors.New("x"), "")), true},
		{"plain error", errors.New("something odd"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.transient, IsTransient(tt.err))
		})
	}
}

func TestIsPermanentClassification(t *testing.T) {
	assert.True(t, IsPermanent(NewPermanentError(errors.New("x"), "")))
	assert.True(t, IsPermanent(NewHTTPStatusError(http.StatusBadRequest, "Bad Request", "")))
	assert.False(t, IsPermanent(NewTransientError(errors.New("x"), "")))
	assert.False(t, IsPermanent(nil))
}

func TestStatusCodeExtraction(t *testing.T) {
	assert.Equal(t, 429, StatusCode(NewHTTPStatusError(429, "Too Many Requests", "")))
	assert.Equal(t, 429, StatusCode(fmt.Errorf("wrapped: %w", NewHTTPStatusError(429, "Too Many Requests", ""))))
	assert.Equal(t, 0, StatusCode(errors.New("no status here")))

	withCode := &TransientError{Err: errors.New("x"), StatusCode: 503}
	assert.Equal(t, 503, StatusCode(withCode))
}

func TestFormatForUserPrefersCustomMessages(t *testing.T) {
	err := NewTransientError(errors.New("HTTP 429: too many requests"), "API rate limit reached.")
	assert.Equal(t, "API rate limit reached.", FormatForUser(err))
}

func TestFormatForUserClassifiesRawErrors(t *testing.T) {
	assert.Contains(t, FormatForUser(errors.New("HTTP 401: unauthorized")), "Authentication failed")
	assert.Contains(t, FormatForUser(errors.New("dial tcp: connection refused")), "not reachable")
	assert.Equal(t, "plain failure", FormatForUser(errors.New("plain failure")))
}

func TestDegradedError(t *testing.T) {
	err := NewDegradedError(errors.New("open"), "Service temporarily unavailable.")
	assert.True(t, IsDegraded(err))
	assert.True(t, IsDegraded(fmt.Errorf("wrap: %w", err)))
	assert.False(t, IsDegraded(errors.New("plain")))
}
