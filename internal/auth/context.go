package auth

import (
	"context"

	"github.com/carenote/carenote/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const principalKey contextKey = "principal"

// ContextWithPrincipal adds the authenticated principal to the context.
func ContextWithPrincipal(ctx context.Context, p *model.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext retrieves the principal from the context.
// Returns nil if not present.
func PrincipalFromContext(ctx context.Context) *model.Principal {
	p, ok := ctx.Value(principalKey).(*model.Principal)
	if !ok {
		return nil
	}
	return p
}

// UserIDFromContext returns the authenticated user id, or "" when the
// request is anonymous.
func UserIDFromContext(ctx context.Context) string {
	p := PrincipalFromContext(ctx)
	if p == nil {
		return ""
	}
	return p.UserID
}
