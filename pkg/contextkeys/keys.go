// Package contextkeys provides centralized context key definitions
//
// All context keys used by the diagnostics server are defined here so that
// middleware and handlers agree on names and value types.
//
//	ctx = contextkeys.WithRequestID(ctx, id)
//	id := contextkeys.GetRequestID(ctx)
package contextkeys

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Key is the type for context keys to prevent collisions
type Key string

const (
	// RequestIDKey contains request ID string (UUID)
	// Set by: httputil.RequestIDMiddleware
	// Used by: request logging, error responses
	RequestIDKey Key = "request_id"

	// LoggerKey contains a *logrus.Entry scoped to the request
	// Set by: httputil.LoggingMiddleware
	LoggerKey Key = "logger"

	// RequestStartTimeKey contains the request start timestamp
	// Set by: httputil.LoggingMiddleware
	RequestStartTimeKey Key = "request_start_time"
)

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithLogger adds a request scoped logger to the context
func WithLogger(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, LoggerKey, entry)
}

// GetLogger retrieves the request scoped logger, falling back to the
// standard logrus logger.
func GetLogger(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(LoggerKey).(*logrus.Entry); ok {
		return entry
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// WithRequestStartTime adds request start time to the context
func WithRequestStartTime(ctx context.Context, start time.Time) context.Context {
	return context.WithValue(ctx, RequestStartTimeKey, start)
}

// GetRequestStartTime retrieves the request start time; the zero time when unset.
func GetRequestStartTime(ctx context.Context) time.Time {
	if start, ok := ctx.Value(RequestStartTimeKey).(time.Time); ok {
		return start
	}
	return time.Time{}
}
