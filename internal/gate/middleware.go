package gate

import (
	"net/http"

	"github.com/meridian-hr/meridian-hr/internal/platform/httpx"
	"github.com/meridian-hr/meridian-hr/internal/policy"
	"github.com/meridian-hr/meridian-hr/internal/shared"
	"github.com/meridian-hr/meridian-hr/internal/token"
)

// RequireAuth rejects requests without decoded claims in context. It must
// run after the edge enforcer and before any handler touching protected
// data. The response carries no detail beyond the generic status text.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shared.ClaimsFromContext(r.Context()) == nil {
			httpx.RespondError(w, shared.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Authorizer performs per-endpoint owner-or-role checks against the shared
// policy engine.
type Authorizer struct {
	engine *policy.Engine
}

// NewAuthorizer constructs an Authorizer.
func NewAuthorizer(engine *policy.Engine) *Authorizer {
	return &Authorizer{engine: engine}
}

// RequireOwnerOrRole succeeds when the claims belong to the resource owner
// OR the role is one of allowedRoles. Ownership is always sufficient on its
// own: an identity can reach its own resource without any role membership.
// The super-admin identity passes unconditionally.
func (a *Authorizer) RequireOwnerOrRole(claims *token.Claims, resourceOwnerID string, allowedRoles ...policy.Role) error {
	if claims == nil {
		return shared.ErrUnauthorized
	}
	if a.engine.IsSuperAdmin(claims.Email) {
		return nil
	}
	if resourceOwnerID != "" && claims.SubjectID() == resourceOwnerID {
		return nil
	}
	role := policy.ParseRole(claims.Role)
	for _, allowed := range allowedRoles {
		if role == allowed {
			return nil
		}
	}
	return shared.ErrForbidden
}

// RequireRole is the role-only variant for endpoints without an owner.
func (a *Authorizer) RequireRole(claims *token.Claims, allowedRoles ...policy.Role) error {
	return a.RequireOwnerOrRole(claims, "", allowedRoles...)
}
