package common

import (
	"context"

	"github.com/google/uuid"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeyOperation contextKey = "operation"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// EnsureRequestID returns ctx unchanged when it already carries a request ID,
// otherwise it attaches a fresh one.
func EnsureRequestID(ctx context.Context) (context.Context, string) {
	if id := RequestIDFromContext(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return WithRequestID(ctx, id), id
}

// WithOperation tags the context with the entry operation name ("convert", "find", ...).
func WithOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, ContextKeyOperation, op)
}

// OperationFromContext returns the operation tag, or "" when unset.
func OperationFromContext(ctx context.Context) string {
	if op, ok := ctx.Value(ContextKeyOperation).(string); ok {
		return op
	}
	return ""
}
