package app

import (
	"context"
	"time"
)

// Identity is the user proven by a valid auth token.
type Identity struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// RequestContext is the typed per-request state handed to every handler.
// Middleware derives a new value instead of mutating the one it received.
type RequestContext struct {
	RequestID string
	SessionID string
	Identity  *Identity
}

type requestContextKey struct{}

func withRequestContext(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

func requestContextFrom(ctx context.Context) RequestContext {
	rc, _ := ctx.Value(requestContextKey{}).(RequestContext)
	return rc
}
