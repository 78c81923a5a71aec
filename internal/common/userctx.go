package common

import (
	"context"
)

// UserContext holds the authenticated identity for a request. The id is an
// opaque value taken from the bearer token; nothing else about the user is
// known to this service.
type UserContext struct {
	UserID string
}

type contextKey int

const userContextKey contextKey = iota

// WithUserContext stores a UserContext in the request context.
func WithUserContext(ctx context.Context, uc *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, uc)
}

// UserContextFromContext retrieves the UserContext from context, or nil if absent.
func UserContextFromContext(ctx context.Context) *UserContext {
	uc, _ := ctx.Value(userContextKey).(*UserContext)
	return uc
}

// UserIDFromContext returns the authenticated user id and whether one was present.
func UserIDFromContext(ctx context.Context) (string, bool) {
	if uc := UserContextFromContext(ctx); uc != nil && uc.UserID != "" {
		return uc.UserID, true
	}
	return "", false
}
