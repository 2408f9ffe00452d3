package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	withCode := &Error{Provider: "gemini", Code: 503, Message: "overloaded"}
	assert.Equal(t, "gemini: 503 overloaded", withCode.Error())

	withoutCode := &Error{Provider: "gemini", Message: "connection reset"}
	assert.Equal(t, "gemini: connection reset", withoutCode.Error())
}

func TestIsRecoverable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("calling provider: %w", context.DeadlineExceeded), true},
		{"timeout 408", &Error{Code: 408}, true},
		{"rate limited 429", &Error{Code: 429}, true},
		{"server error 500", &Error{Code: 500}, true},
		{"bad gateway 502", &Error{Code: 502}, true},
		{"unavailable 503", &Error{Code: 503}, true},
		{"gateway timeout 504", &Error{Code: 504}, true},
		{"overloaded 529", &Error{Code: 529}, true},
		{"bad request 400", &Error{Code: 400}, false},
		{"unauthorized 401", &Error{Code: 401}, false},
		{"forbidden 403", &Error{Code: 403}, false},
		{"not found 404", &Error{Code: 404}, false},
		{"payload too large 413", &Error{Code: 413}, false},
		{"timeout by message", errors.New("request timeout"), true},
		{"overloaded by message", errors.New("model Overloaded"), true},
		{"unavailable by message", errors.New("service unavailable"), true},
		{"connection reset", errors.New("read: connection reset by peer"), true},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"plain error", errors.New("something else entirely"), false},
		{"wrapped provider error", fmt.Errorf("generation: %w", &Error{Code: 503}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRecoverable(tt.err))
		})
	}
}
