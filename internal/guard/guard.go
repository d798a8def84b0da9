// Package guard provides composable authorization checks evaluated before
// a protected operation runs. Guards are ANDed together and the first
// failure aborts the chain.
package guard

import (
	"context"

	apperrors "github.com/platefull/platefull/pkg/errors"

	"github.com/platefull/platefull/internal/auth"
	"github.com/platefull/platefull/internal/domain"
)

// Guard is a single authorization predicate. A nil return grants access.
type Guard interface {
	Check(ctx context.Context) error
}

// GuardFunc adapts a function to the Guard interface.
type GuardFunc func(ctx context.Context) error

// Check implements Guard.
func (f GuardFunc) Check(ctx context.Context) error {
	return f(ctx)
}

// All combines guards into one that grants access only when every guard
// passes. Evaluation stops at the first failure.
func All(guards ...Guard) Guard {
	return GuardFunc(func(ctx context.Context) error {
		for _, g := range guards {
			if err := g.Check(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

// Authenticated requires a valid authenticated user on the context.
func Authenticated() Guard {
	return GuardFunc(func(ctx context.Context) error {
		if auth.UserFromContext(ctx) == nil {
			return apperrors.Unauthorized("authentication required")
		}
		return nil
	})
}

// Roles requires the authenticated user to hold one of the given roles.
// It implies Authenticated: an anonymous caller fails the check.
func Roles(roles ...string) Guard {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return GuardFunc(func(ctx context.Context) error {
		user := auth.UserFromContext(ctx)
		if user == nil {
			return apperrors.Unauthorized("authentication required")
		}
		if _, ok := allowed[user.Role]; !ok {
			return apperrors.Forbidden("insufficient role")
		}
		return nil
	})
}

// Environments restricts an operation to the listed deployment
// environments. The current environment is fixed at construction time.
func Environments(current string, allowed ...string) Guard {
	set := make(map[string]struct{}, len(allowed))
	for _, e := range allowed {
		set[e] = struct{}{}
	}
	return GuardFunc(func(ctx context.Context) error {
		if _, ok := set[current]; !ok {
			return apperrors.Forbidden("operation not available in this environment")
		}
		return nil
	})
}

// Owner requires the authenticated user to hold the OWNER role.
func Owner() Guard {
	return Roles(domain.RoleOwner)
}
