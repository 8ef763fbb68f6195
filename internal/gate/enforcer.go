// Package gate holds the HTTP enforcement points. All of them delegate the
// actual verdict to internal/policy so edge, guard, and API checks share one
// policy table.
package gate

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/meridian-hr/meridian-hr/internal/observability"
	"github.com/meridian-hr/meridian-hr/internal/policy"
	"github.com/meridian-hr/meridian-hr/internal/shared"
	"github.com/meridian-hr/meridian-hr/internal/token"
)

// TokenCookieName is the HTTP-only cookie carrying the session token.
const TokenCookieName = "meridian_token"

// TokenFromRequest extracts the raw session token from the Authorization
// bearer header or, failing that, the session cookie.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if raw, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(raw)
		}
	}
	if cookie, err := r.Cookie(TokenCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// Enforcer runs the edge policy check before any protected handler.
type Enforcer struct {
	issuer  *token.Issuer
	engine  *policy.Engine
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewEnforcer constructs an Enforcer.
func NewEnforcer(issuer *token.Issuer, engine *policy.Engine, logger *slog.Logger, metrics *observability.Metrics) *Enforcer {
	return &Enforcer{issuer: issuer, engine: engine, logger: logger, metrics: metrics}
}

// Middleware decodes the attached token, evaluates the request path against
// the policy table, and either forwards the request with claims in context
// or redirects. Any decode failure (missing, invalid, expired) is treated as
// an unauthenticated request, never as an error page.
func (e *Enforcer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sub *policy.Subject
		var claims *token.Claims

		if raw := TokenFromRequest(r); raw != "" {
			decoded, err := e.issuer.Decode(raw)
			if err == nil {
				claims = decoded
				sub = &policy.Subject{
					ID:    decoded.SubjectID(),
					Email: decoded.Email,
					Role:  policy.ParseRole(decoded.Role),
				}
			} else if e.logger != nil {
				e.logger.Debug("token decode failed",
					slog.String("path", r.URL.Path),
					slog.Any("error", err))
			}
		}

		decision := e.engine.Evaluate(sub, r.URL.Path, r.URL.RawQuery)
		if e.metrics != nil {
			e.metrics.ObserveDecision(outcomeLabel(decision.Outcome), decision.Reason)
		}

		switch decision.Outcome {
		case policy.Allow:
			ctx := r.Context()
			if claims != nil {
				ctx = shared.ContextWithClaims(ctx, claims)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		default:
			if e.logger != nil {
				e.logger.Info("edge redirect",
					slog.String("path", r.URL.Path),
					slog.String("target", decision.Target),
					slog.String("reason", decision.Reason))
			}
			http.Redirect(w, r, decision.Target, http.StatusSeeOther)
		}
	})
}

func outcomeLabel(o policy.Outcome) string {
	switch o {
	case policy.Allow:
		return "allow"
	case policy.RedirectToLogin:
		return "redirect_login"
	case policy.RedirectToDefault:
		return "redirect_default"
	default:
		return "unknown"
	}
}
