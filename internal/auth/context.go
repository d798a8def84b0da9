package auth

import (
	"context"

	"github.com/platefull/platefull/internal/domain"
)

type contextKey struct{ name string }

var userKey = contextKey{"auth.user"}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the authenticated user stored in the context,
// or nil when the request carried no valid token.
func UserFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userKey).(*domain.User)
	return user
}
