package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := Validationf("bad value %d", 3)
	assert.True(t, Is(err, ErrValidation))
	assert.False(t, Is(err, ErrNotFound))

	wrapped := fmt.Errorf("loading settings: %w", err)
	assert.True(t, Is(wrapped, ErrValidation))
}

func TestError_WithCause(t *testing.T) {
	err := ErrCanceled.WithCause(context.Canceled)

	assert.True(t, Is(err, ErrCanceled))
	assert.True(t, Is(err, context.Canceled))
	assert.Equal(t, "canceled: context canceled", err.Error())
	// Sentinel must stay untouched.
	assert.Nil(t, ErrCanceled.Unwrap())
}

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeValidation, http.StatusBadRequest},
		{CodeBusy, http.StatusConflict},
		{CodeRateLimit, http.StatusTooManyRequests},
		{CodeInternal, http.StatusInternalServerError},
		{Code("whatever"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}
