package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   ErrorCode
		status int
	}{
		{"validation", NewValidation("Task text cannot be empty"), ErrValidation, 400},
		{"unauthorized", NewUnauthorized(""), ErrUnauthorized, 401},
		{"not found", NewNotFound("Task not found"), ErrNotFound, 404},
		{"rate limited", NewRateLimited(), ErrRateLimited, 429},
		{"storage", NewStorage("Database not available", errors.New("dial tcp")), ErrStorage, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestIsThroughWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("list tasks: %w", NewStorage("Database not available", cause))

	assert.True(t, Is(err, ErrStorage))
	assert.False(t, Is(err, ErrNotFound))
	assert.ErrorIs(t, err, cause)

	appErr, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, 500, appErr.Status)
}

func TestIsPlainError(t *testing.T) {
	assert.False(t, Is(errors.New("boom"), ErrStorage))

	_, ok := As(nil)
	assert.False(t, ok)
}
