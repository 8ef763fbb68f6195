package app

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/meridian-hr/meridian-hr/internal/auth"
	"github.com/meridian-hr/meridian-hr/internal/employees"
	"github.com/meridian-hr/meridian-hr/internal/gate"
	"github.com/meridian-hr/meridian-hr/internal/guard"
	"github.com/meridian-hr/meridian-hr/internal/observability"
	"github.com/meridian-hr/meridian-hr/internal/platform/httpx"
	"github.com/meridian-hr/meridian-hr/internal/policy"
	"github.com/meridian-hr/meridian-hr/internal/shared"
	"github.com/meridian-hr/meridian-hr/jobs"
	"github.com/meridian-hr/meridian-hr/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Enforcer         *gate.Enforcer
	AuthHandler      *auth.Handler
	EmployeesHandler *employees.Handler
	GuardResolver    *guard.Resolver
	PolicyEngine     *policy.Engine
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with Meridian defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:   params.Logger,
		Config:   params.Config,
		Enforcer: params.Enforcer,
		Metrics:  params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err == nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	}

	// Landing page for unauthenticated users.
	r.Get("/welcome", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{
			"message": "Meridian HR",
			"signin":  policy.LoginPath,
		})
	})

	r.Route("/auth", func(ar chi.Router) {
		// Tighter bucket on the credential endpoint.
		ar.Use(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		params.AuthHandler.MountRoutes(ar)
	})

	// Default authenticated landing page; the edge enforcer has already
	// redirected anonymous requests to signin.
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		claims := shared.ClaimsFromContext(r.Context())
		if claims == nil {
			httpx.RespondError(w, shared.ErrUnauthorized)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{
			"message":           "dashboard",
			"subject":           claims.SubjectID(),
			"role":              claims.Role,
			"onboarding_status": claims.OnboardingStatus,
		})
	})

	r.Route("/admin", func(adm chi.Router) {
		adm.Get("/", func(w http.ResponseWriter, r *http.Request) {
			httpx.JSON(w, http.StatusOK, map[string]string{"message": "admin dashboard"})
		})
		adm.Get("/settings", func(w http.ResponseWriter, r *http.Request) {
			httpx.JSON(w, http.StatusOK, map[string]string{"message": "admin settings"})
		})
	})

	r.Route("/api/employees", func(er chi.Router) {
		params.EmployeesHandler.MountRoutes(er)
	})

	// Onboarding administration view, guarded by role plus email allowlist.
	onboardingGuard := guard.New(params.PolicyEngine,
		guard.WithRequiredRoles(policy.AdministrativeRoles...),
		guard.WithAllowedEmails(params.Config.OnboardingAdminEmails...),
	)
	r.Get("/onboarding/admin", guardedView(params.Logger, params.GuardResolver, onboardingGuard,
		func(w http.ResponseWriter, r *http.Request) {
			httpx.JSON(w, http.StatusOK, map[string]string{"message": "onboarding administration"})
		}))

	if params.JobHandler != nil {
		r.Route("/jobs", func(jr chi.Router) {
			params.JobHandler.MountRoutes(jr)
		})
	}

	return r
}

// guardedView wraps a protected view with the route guard. The identity is
// resolved through the cache; while resolution is pending or interrupted the
// client gets a neutral placeholder, never the protected content and never a
// redirect decided on incomplete data.
func guardedView(logger *slog.Logger, resolver *guard.Resolver, g *guard.Guard, view http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := shared.ClaimsFromContext(r.Context())

		var sub *policy.Subject
		resolved := true
		if claims != nil {
			var err error
			sub, err = resolver.Resolve(r.Context(), claims.SubjectID())
			switch {
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				resolved = false
			case errors.Is(err, shared.ErrNotFound):
				sub = nil
			case err != nil:
				logger.Warn("guard resolve", slog.Any("error", err))
				resolved = false
			}
		}

		verdict := g.Evaluate(resolved, sub, r.URL.Path)
		switch verdict.Outcome {
		case guard.Render:
			view(w, r)
		case guard.Pending:
			w.Header().Set("Retry-After", "1")
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "pending"})
		default:
			http.Redirect(w, r, verdict.Target, http.StatusSeeOther)
		}
	}
}
