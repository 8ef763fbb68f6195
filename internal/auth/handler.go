package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-hr/meridian-hr/internal/gate"
	"github.com/meridian-hr/meridian-hr/internal/platform/httpx"
	"github.com/meridian-hr/meridian-hr/internal/policy"
	"github.com/meridian-hr/meridian-hr/internal/shared"
)

// Handler wires HTTP endpoints for the authentication flow.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	secure    bool
}

// NewHandler constructs a Handler instance. secure toggles the Secure cookie
// attribute for production deployments.
func NewHandler(logger *slog.Logger, service *Service, secure bool) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
		secure:    secure,
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/signin", h.handleSignIn)
	r.Post("/signout", h.handleSignOut)
	r.Get("/me", h.handleMe)
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type signInResponse struct {
	Token      string `json:"token"`
	RedirectTo string `json:"redirect_to"`
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		// Validation failures look the same as bad credentials so the
		// response does not reveal which field was rejected.
		httpx.RespondError(w, shared.ErrInvalidCredentials)
		return
	}

	sess, err := h.service.SignIn(r.Context(), Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			h.logger.Error("sign in", slog.Any("error", err))
		}
		httpx.RespondError(w, shared.ErrInvalidCredentials)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     gate.TokenCookieName,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(h.service.TokenTTL()),
	})

	redirect := policy.SafeReturnPath(r.URL.Query().Get(policy.ReturnPathParam))
	httpx.JSON(w, http.StatusOK, signInResponse{Token: sess.Token, RedirectTo: redirect})
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	// Stateless tokens cannot be revoked server-side; signout discards the
	// client copy and the token simply ages out.
	http.SetCookie(w, &http.Cookie{
		Name:     gate.TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
	})
	httpx.JSON(w, http.StatusOK, map[string]string{"redirect_to": policy.LoginPath})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := shared.ClaimsFromContext(r.Context())
	if claims == nil {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, claims)
}

// SignInForTest exposes the sign-in handler for tests.
func (h *Handler) SignInForTest(w http.ResponseWriter, r *http.Request) {
	h.handleSignIn(w, r)
}

// SignOutForTest exposes the sign-out handler for tests.
func (h *Handler) SignOutForTest(w http.ResponseWriter, r *http.Request) {
	h.handleSignOut(w, r)
}

// MeForTest exposes the me handler for tests.
func (h *Handler) MeForTest(w http.ResponseWriter, r *http.Request) {
	h.handleMe(w, r)
}
