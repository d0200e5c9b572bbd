// Package context carries the identity of an API request: the correlation id
// assigned at the edge and the user the token belongs to.
package context

import (
	"context"
	"sync"
)

type contextKey string

const (
	// CorrelationIDKey holds the id that follows a request into OCR calls,
	// audit rows and batch workers.
	CorrelationIDKey contextKey = "correlation_id"
	// UserIDKey holds the authenticated user. Invoice queries are scoped to it.
	UserIDKey contextKey = "user_id"

	traceKey contextKey = "request_trace"
)

// Trace is shared by every context derived from one request. Values set by
// inner middleware become visible to the access log written on the way out.
type Trace struct {
	mu     sync.Mutex
	userID string
}

// UserID returns the user recorded for the request, if any.
func (t *Trace) UserID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.userID
}

func (t *Trace) setUserID(id string) {
	t.mu.Lock()
	t.userID = id
	t.mu.Unlock()
}

// WithTrace attaches a new Trace to ctx.
func WithTrace(ctx context.Context) (context.Context, *Trace) {
	tr := &Trace{}
	return context.WithValue(ctx, traceKey, tr), tr
}

// WithCorrelationID adds a correlation ID to the context.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, correlationID)
}

// GetCorrelationID returns the correlation ID, or an empty string.
func GetCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return id
	}
	return ""
}

// WithUserID stores the authenticated user and records it on the request
// trace when one is present.
func WithUserID(ctx context.Context, userID string) context.Context {
	if tr, ok := ctx.Value(traceKey).(*Trace); ok {
		tr.setUserID(userID)
	}
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID returns the authenticated user id, or an empty string.
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}
