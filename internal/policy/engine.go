// Package policy is the single source of truth for authorization decisions.
// The edge enforcer, the route guard, and the API middleware all consult the
// same role hierarchy, path table, and super-admin capability defined here,
// so the three enforcement points cannot drift apart.
package policy

import (
	"errors"
	"net/url"
	"strings"
)

// Outcome is the result of evaluating a request against the policy table.
type Outcome int

const (
	// Allow lets the request reach its handler or view.
	Allow Outcome = iota
	// RedirectToLogin sends an unauthenticated request to the signin page,
	// carrying a return path for the post-login redirect.
	RedirectToLogin
	// RedirectToDefault sends an authenticated but unentitled request to the
	// default landing page. Never to a page the identity is also denied from,
	// which would loop.
	RedirectToDefault
)

// Reason codes carried on decisions for logging. They are never exposed to
// the caller.
const (
	ReasonAuthenticatedOnAuthEntry = "authenticated_on_auth_entry"
	ReasonUnauthenticated          = "unauthenticated"
	ReasonRoleNotAllowed           = "role_not_allowed"
	ReasonSuperAdminBypass         = "super_admin_bypass"
	ReasonPublicPath               = "public_path"
	ReasonAllowed                  = "allowed"
)

// Paths used as redirect targets.
const (
	LoginPath       = "/auth/signin"
	DefaultPath     = "/"
	ReturnPathParam = "from"
)

// Decision is the outcome of an edge evaluation plus the redirect target and
// a reason code for logs.
type Decision struct {
	Outcome Outcome
	// Target is the redirect location when Outcome is not Allow.
	Target string
	// Reason explains the decision for logging only.
	Reason string
}

// Subject is the authorization-relevant slice of an identity or of decoded
// claims. A nil *Subject means the request is unauthenticated.
type Subject struct {
	ID    string
	Email string
	Role  Role
}

// ErrSuperAdminEmailRequired signals that the engine was constructed without
// the distinguished super-admin identity.
var ErrSuperAdminEmailRequired = errors.New("policy: super admin email is required")

// Engine evaluates requests against the static policy tables. It holds the
// one piece of configuration the tables need: the super-admin email.
type Engine struct {
	superAdminEmail string
}

// NewEngine constructs an Engine. The super-admin email must be configured;
// a missing value fails here at startup, never per request.
func NewEngine(superAdminEmail string) (*Engine, error) {
	superAdminEmail = foldEmail(superAdminEmail)
	if superAdminEmail == "" {
		return nil, ErrSuperAdminEmailRequired
	}
	return &Engine{superAdminEmail: superAdminEmail}, nil
}

// IsSuperAdmin reports whether the email belongs to the distinguished
// identity that unconditionally satisfies every check.
func (e *Engine) IsSuperAdmin(email string) bool {
	return foldEmail(email) == e.superAdminEmail
}

// Evaluate runs the edge state machine for one request.
//
// sub is nil when no valid token accompanied the request; any decode failure
// upstream (missing, invalid, expired token) collapses to unauthenticated
// here. rawQuery is the URL-encoded query string, preserved in the return
// path so the login flow can send the user back.
func (e *Engine) Evaluate(sub *Subject, path, rawQuery string) Decision {
	if IsAuthEntry(path) {
		if sub != nil {
			// Already signed in; nothing to do on the signin page.
			return Decision{Outcome: RedirectToDefault, Target: DefaultPath, Reason: ReasonAuthenticatedOnAuthEntry}
		}
		return Decision{Outcome: Allow, Reason: ReasonAllowed}
	}

	if IsPublic(path) {
		return Decision{Outcome: Allow, Reason: ReasonPublicPath}
	}

	if sub == nil {
		return Decision{
			Outcome: RedirectToLogin,
			Target:  LoginRedirect(path, rawQuery),
			Reason:  ReasonUnauthenticated,
		}
	}

	if e.IsSuperAdmin(sub.Email) {
		return Decision{Outcome: Allow, Reason: ReasonSuperAdminBypass}
	}

	// Every matching rule is an independent gate: the narrow /admin/settings
	// rule is checked after the broad /admin rule has already passed.
	for _, gate := range Classify(path) {
		if gate.Empty() {
			continue
		}
		if !gate.Contains(sub.Role) {
			return Decision{Outcome: RedirectToDefault, Target: DefaultPath, Reason: ReasonRoleNotAllowed}
		}
	}

	return Decision{Outcome: Allow, Reason: ReasonAllowed}
}

// Allowed reports whether the subject may access the path, ignoring the
// redirect mechanics. Used by enforcement points that only need a verdict.
func (e *Engine) Allowed(sub *Subject, path string) bool {
	return e.Evaluate(sub, path, "").Outcome == Allow
}

// LoginRedirect builds the signin URL carrying the original path and query
// as a URL-encoded return path.
func LoginRedirect(path, rawQuery string) string {
	original := path
	if rawQuery != "" {
		original += "?" + rawQuery
	}
	return LoginPath + "?" + ReturnPathParam + "=" + url.QueryEscape(original)
}

// SafeReturnPath validates a post-login return path. Only local absolute
// paths are honored; anything else falls back to the default landing page.
func SafeReturnPath(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
		return DefaultPath
	}
	return raw
}

func foldEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
