package auth

import (
	"context"
)

var sessionCtxKey = &contextKey{"session"}
var principalCtxKey = &contextKey{"principal"}

type contextKey struct {
	name string
}

// WithSession sets the request scoped Session in the given context
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey, s)
}

// SessionFromContext finds the Session from the context.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	raw, ok := ctx.Value(sessionCtxKey).(*Session)
	return raw, ok && raw != nil
}

// WithPrincipal sets the authenticated Principal in the given context
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey, p)
}

// FromContext finds the Principal from the context. A Session in the
// context is consulted when no Principal was set directly.
func FromContext(ctx context.Context) (Principal, bool) {
	if p, ok := ctx.Value(principalCtxKey).(Principal); ok && !p.IsZero() {
		return p, true
	}
	if s, ok := SessionFromContext(ctx); ok {
		return s.User()
	}
	return Principal{}, false
}
