package huberrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsIs(t *testing.T) {
	cause := errors.New("connection reset")

	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"not found", NewNotFoundError("ticket", ""), ErrNotFound},
		{"validation", NewValidationError("text", "text is required"), ErrValidation},
		{"transient", NewTransientError("insert result", cause), ErrTransient},
		{"poison", NewPoisonMessageError("missing ticket_id"), ErrPoisonMessage},
		{"enqueue", NewEnqueueError("abc", cause), ErrEnqueue},
		{"wrapped transient", fmt.Errorf("failed to persist: %w", NewTransientError("", cause)), ErrTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
		})
	}
}

func TestTransientError_Unwrap(t *testing.T) {
	cause := errors.New("deadlock detected")
	err := NewTransientError("insert result", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "insert result: deadlock detected", err.Error())
}

func TestEnqueueError_Message(t *testing.T) {
	err := NewEnqueueError("t-1", errors.New("pool closed"))

	assert.Equal(t, "failed to enqueue enrichment job for ticket t-1: pool closed", err.Error())
}

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"validation", NewValidationError("", "bad"), CodeValidation},
		{"not found", fmt.Errorf("lookup: %w", NewNotFoundError("ticket", "")), CodeNotFound},
		{"transient", NewTransientError("", errors.New("x")), CodeTransientStore},
		{"poison", NewPoisonMessageError("empty text"), CodePoisonMessage},
		{"enqueue", NewEnqueueError("", nil), CodeEnqueueFailure},
		{"unclassified", errors.New("boom"), CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Code(tt.err))
		})
	}
}
