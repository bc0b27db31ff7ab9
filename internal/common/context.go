package common

import (
	"context"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeyFileHash  contextKey = "file_hash"
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

// WithFileHash adds the current file's content hash to the context
func WithFileHash(ctx context.Context, hashHex string) context.Context {
	return context.WithValue(ctx, ContextKeyFileHash, hashHex)
}

// FileHashFromContext extracts the file content hash from context
func FileHashFromContext(ctx context.Context) string {
	if h, ok := ctx.Value(ContextKeyFileHash).(string); ok {
		return h
	}
	return ""
}
