package employees

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-hr/meridian-hr/internal/gate"
	"github.com/meridian-hr/meridian-hr/internal/identity"
	"github.com/meridian-hr/meridian-hr/internal/platform/httpx"
	"github.com/meridian-hr/meridian-hr/internal/policy"
	"github.com/meridian-hr/meridian-hr/internal/shared"
)

// Handler serves the employee API. Every endpoint runs behind RequireAuth;
// per-endpoint checks go through the shared authorizer.
type Handler struct {
	logger     *slog.Logger
	repo       identity.Repository
	authorizer *gate.Authorizer
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, repo identity.Repository, authorizer *gate.Authorizer) *Handler {
	return &Handler{logger: logger, repo: repo, authorizer: authorizer}
}

// MountRoutes registers employee routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(gate.RequireAuth)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Get("/{id}/pto", h.getPTO)
}

type employeeDTO struct {
	ID               string  `json:"id"`
	Email            string  `json:"email"`
	Name             string  `json:"name"`
	Role             string  `json:"role"`
	EmploymentType   string  `json:"employment_type"`
	OnboardingStatus string  `json:"onboarding_status"`
	VacationHours    float64 `json:"vacation_hours"`
	SickHours        float64 `json:"sick_hours"`
	PersonalHours    float64 `json:"personal_hours"`
}

func toDTO(ident *identity.Identity) employeeDTO {
	return employeeDTO{
		ID:               ident.ID,
		Email:            ident.Email,
		Name:             ident.Name,
		Role:             ident.Role,
		EmploymentType:   string(ident.EmploymentType),
		OnboardingStatus: string(ident.OnboardingStatus),
		VacationHours:    ident.PTO.Vacation,
		SickHours:        ident.PTO.Sick,
		PersonalHours:    ident.PTO.Personal,
	}
}

// list is restricted to the administrative group; there is no owner here.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	claims := shared.ClaimsFromContext(r.Context())
	if err := h.authorizer.RequireRole(claims, policy.AdministrativeRoles...); err != nil {
		httpx.RespondError(w, err)
		return
	}
	idents, err := h.repo.ListAll(r.Context())
	if err != nil {
		h.logger.Error("list employees", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]employeeDTO, len(idents))
	for i := range idents {
		out[i] = toDTO(&idents[i])
	}
	httpx.JSON(w, http.StatusOK, out)
}

// get returns one employee profile. The owner can always read their own
// profile; otherwise manager-or-above is required.
func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	claims := shared.ClaimsFromContext(r.Context())
	id := chi.URLParam(r, "id")
	if err := h.authorizer.RequireOwnerOrRole(claims, id, policy.RoleManager, policy.RoleHR, policy.RoleAdmin); err != nil {
		httpx.RespondError(w, err)
		return
	}
	ident, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toDTO(ident))
}

type ptoDTO struct {
	VacationHours float64 `json:"vacation_hours"`
	SickHours     float64 `json:"sick_hours"`
	PersonalHours float64 `json:"personal_hours"`
}

// getPTO returns PTO balances for an employee. Owner or HR tier only.
func (h *Handler) getPTO(w http.ResponseWriter, r *http.Request) {
	claims := shared.ClaimsFromContext(r.Context())
	id := chi.URLParam(r, "id")
	if err := h.authorizer.RequireOwnerOrRole(claims, id, policy.RoleHR, policy.RoleAdmin); err != nil {
		httpx.RespondError(w, err)
		return
	}
	ident, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ptoDTO{
		VacationHours: ident.PTO.Vacation,
		SickHours:     ident.PTO.Sick,
		PersonalHours: ident.PTO.Personal,
	})
}
