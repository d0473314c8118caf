// Package logging provides request ID propagation and the verbose log
// toggle shared by the proxy's handlers.
package logging

import (
	"context"
	"log"
	"sync/atomic"

	"github.com/google/uuid"
)

type contextKey string

const requestIDKey contextKey = "requestId"

var verbose atomic.Bool

// NewRequestID creates a request identifier in the "req-{uuid}" format used
// across log lines and the request log store.
func NewRequestID() string {
	return "req-" + uuid.New().String()
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID retrieves the request ID from the context, or "" if absent.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// SetVerbose toggles verbose logging process-wide.
func SetVerbose(v bool) {
	verbose.Store(v)
}

// IsVerbose reports whether verbose logging is enabled.
func IsVerbose() bool {
	return verbose.Load()
}

// Verbosef logs only when verbose logging is enabled.
func Verbosef(format string, args ...interface{}) {
	if IsVerbose() {
		log.Printf(format, args...)
	}
}
