package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Error normalizes a provider failure so nothing provider-specific leaks
// past the failover boundary. Code carries the HTTP-equivalent status when
// one exists, 0 otherwise.
type Error struct {
	Provider string
	Code     int
	Message  string
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: %d %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// IsRecoverable reports whether the error is a transient infrastructure
// failure worth counting toward failover. Terminal errors (bad input,
// auth/quota rejections) return false and must be propagated as-is.
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var provErr *Error
	if errors.As(err, &provErr) {
		switch provErr.Code {
		case 408, 429, 500, 502, 503, 504, 529:
			return true
		case 400, 401, 403, 404, 413:
			return false
		}
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "overloaded") ||
		strings.Contains(msg, "unavailable") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused")
}
