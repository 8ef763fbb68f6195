// Package guard mirrors the edge policy check inside the rendering layer.
// A guarded view never shows protected content, and never commits to a
// redirect, while the identity behind it is still resolving.
package guard

import (
	"github.com/meridian-hr/meridian-hr/internal/policy"
	"github.com/meridian-hr/meridian-hr/internal/shared"
)

// Outcome is the route guard verdict for one render pass.
type Outcome int

const (
	// Pending means identity resolution has not finished; render a neutral
	// placeholder, never the protected content.
	Pending Outcome = iota
	// Render means the protected content may be shown.
	Render
	// RedirectLogin means no identity resolved; send to the signin page.
	RedirectLogin
	// RedirectDefault means the identity is authenticated but not entitled;
	// send to the non-privileged default view, not back to login.
	RedirectDefault
)

// Verdict carries the outcome plus the redirect target when applicable.
type Verdict struct {
	Outcome Outcome
	Target  string
}

// Guard wraps a protected view with optional role and email-allowlist gates.
// Both gates are independent: when both are configured the role gate runs
// first and the first failing gate decides the verdict.
type Guard struct {
	engine        *policy.Engine
	requiredRoles policy.RoleSet
	allowedEmails map[string]struct{}
}

// Option configures a Guard.
type Option func(*Guard)

// WithRequiredRoles restricts the view to identities holding one of the roles.
func WithRequiredRoles(roles ...policy.Role) Option {
	return func(g *Guard) {
		g.requiredRoles = policy.NewRoleSet(roles...)
	}
}

// WithAllowedEmails restricts the view to the given email allowlist,
// compared case-insensitively.
func WithAllowedEmails(emails ...string) Option {
	return func(g *Guard) {
		g.allowedEmails = make(map[string]struct{}, len(emails))
		for _, e := range emails {
			g.allowedEmails[shared.NormalizeEmail(e)] = struct{}{}
		}
	}
}

// New constructs a Guard over the shared policy engine.
func New(engine *policy.Engine, opts ...Option) *Guard {
	g := &Guard{engine: engine}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Evaluate decides one render pass from the current resolution state.
// resolved=false means the identity lookup is still in flight. sub is nil
// once resolved when no identity exists (signed out or token expired).
func (g *Guard) Evaluate(resolved bool, sub *policy.Subject, viewPath string) Verdict {
	if !resolved {
		return Verdict{Outcome: Pending}
	}
	if sub == nil {
		return Verdict{Outcome: RedirectLogin, Target: policy.LoginRedirect(viewPath, "")}
	}
	if g.engine.IsSuperAdmin(sub.Email) {
		return Verdict{Outcome: Render}
	}
	// The guard never renders a view the edge policy would deny on the same
	// path; its own gates only narrow further.
	if !g.engine.Allowed(sub, viewPath) {
		return Verdict{Outcome: RedirectDefault, Target: policy.DefaultPath}
	}
	if !g.requiredRoles.Empty() && !g.requiredRoles.Contains(sub.Role) {
		return Verdict{Outcome: RedirectDefault, Target: policy.DefaultPath}
	}
	if len(g.allowedEmails) > 0 {
		if _, ok := g.allowedEmails[shared.NormalizeEmail(sub.Email)]; !ok {
			return Verdict{Outcome: RedirectDefault, Target: policy.DefaultPath}
		}
	}
	return Verdict{Outcome: Render}
}
