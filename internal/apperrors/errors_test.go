package apperrors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := NewInvalidInputError("empty question", nil)
	assert.Equal(t, "invalid_input: empty question", err.Error())

	wrapped := NewBackendUnavailableError("answerer unreachable", fmt.Errorf("dial tcp: refused"))
	assert.Contains(t, wrapped.Error(), "backend_unavailable: answerer unreachable")
	assert.Contains(t, wrapped.Error(), "dial tcp: refused")
}

func TestIsType_Wrapped(t *testing.T) {
	inner := NewConfigurationError("missing answerer.backend", nil)
	outer := fmt.Errorf("loading config: %w", inner)

	assert.True(t, IsType(outer, ErrorTypeConfiguration))
	assert.True(t, IsConfiguration(outer))
	assert.False(t, IsInvalidInput(outer))
}

func TestGetStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", NewInvalidInputError("bad image", nil), http.StatusUnprocessableEntity},
		{"backend unavailable", NewBackendUnavailableError("down", nil), http.StatusBadGateway},
		{"plain error", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetStatusCode(tt.err))
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := NewInternalError("wrapped", cause)
	assert.Equal(t, cause, err.Unwrap())
}
