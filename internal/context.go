package internal

import (
	"context"
	"time"
)

type ctxKey string

// ContextUserKey carries the signed-in employee's numeric ID, formatted as
// a string. The route guard installs it once a request is allowed through.
const ContextUserKey ctxKey = "userID"

// UserIDFromContext returns the employee ID the guard installed, or empty
// on unguarded routes.
func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if userID, ok := ctx.Value(ContextUserKey).(string); ok {
		return userID
	}
	return ""
}

// ContextWithUserID stamps the request context with the employee ID.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ContextUserKey, userID)
}

// WithTimeout bounds a backend call, defaulting to 5 seconds when the
// caller passes no positive duration.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
