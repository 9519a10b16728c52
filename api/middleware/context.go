package middleware

import (
	"context"

	"github.com/angelmondragon/medicarehub-backend/internal/session"
)

type contextKey string

const ctxSessionID contextKey = "session_id"

// SessionIDFromContext returns the tab identity resolved for this request.
func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

// SessionFromContext returns the tab session resolved by Session.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	if ctx == nil {
		return nil, false
	}
	return session.FromContext(ctx)
}

func withSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxSessionID, id)
}
