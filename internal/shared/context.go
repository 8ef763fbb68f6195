package shared

import (
	"context"

	"github.com/meridian-hr/meridian-hr/internal/token"
)

type claimsContextKey struct{}

// ContextWithClaims stores decoded session claims in context.
func ContextWithClaims(ctx context.Context, claims *token.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext extracts the session claims from context, if present.
func ClaimsFromContext(ctx context.Context) *token.Claims {
	claims, _ := ctx.Value(claimsContextKey{}).(*token.Claims)
	return claims
}
