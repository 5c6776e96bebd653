package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: Validation("clerkId is required"), want: http.StatusBadRequest},
		{name: "referential", err: Referential("User not found"), want: http.StatusBadRequest},
		{name: "storage", err: Storage("failed to upsert user", errors.New("connection refused")), want: http.StatusInternalServerError},
		{name: "wrapped validation", err: fmt.Errorf("upsert: %w", Validation("x")), want: http.StatusBadRequest},
		{name: "plain error", err: errors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestMessage(t *testing.T) {
	cause := errors.New("connection refused")

	assert.Equal(t, "User not found in database", Message(fmt.Errorf("wrap: %w", Referential("User not found in database"))))
	assert.Equal(t, "failed to upsert user: connection refused", Message(Storage("failed to upsert user", cause)))
	assert.Equal(t, "boom", Message(errors.New("boom")))
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("timeout")
	err := Storage("failed to list responses", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindStorage, KindOf(err))
	assert.Equal(t, "StorageError", KindOf(err).String())
	assert.Equal(t, KindUnknown, KindOf(cause))
}
