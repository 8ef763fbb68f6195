package employees_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-hr/meridian-hr/internal/employees"
	"github.com/meridian-hr/meridian-hr/internal/gate"
	"github.com/meridian-hr/meridian-hr/internal/identity"
	"github.com/meridian-hr/meridian-hr/internal/policy"
	"github.com/meridian-hr/meridian-hr/internal/shared"
	"github.com/meridian-hr/meridian-hr/internal/token"
	_ "github.com/meridian-hr/meridian-hr/testing"
)

const superAdminEmail = "root@meridian.test"

type fixedRepo struct {
	byID map[string]identity.Identity
}

func (r *fixedRepo) GetByID(ctx context.Context, id string) (*identity.Identity, error) {
	ident, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &ident, nil
}

func (r *fixedRepo) FindByEmail(ctx context.Context, email string) (*identity.Identity, error) {
	for _, ident := range r.byID {
		if ident.Email == email {
			ident := ident
			return &ident, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fixedRepo) ListAll(ctx context.Context) ([]identity.Identity, error) {
	out := make([]identity.Identity, 0, len(r.byID))
	for _, ident := range r.byID {
		out = append(out, ident)
	}
	return out, nil
}

func (r *fixedRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return nil
}

func newHandlerRouter(t *testing.T) chi.Router {
	t.Helper()
	engine, err := policy.NewEngine(superAdminEmail)
	require.NoError(t, err)
	repo := &fixedRepo{byID: map[string]identity.Identity{
		"emp-1": {
			ID: "emp-1", Email: "alice@meridian.test", Name: "Alice", Role: "EMPLOYEE",
			EmploymentType:   identity.EmploymentFullTime,
			OnboardingStatus: identity.OnboardingCompleted,
			PTO:              identity.PTOBalances{Vacation: 80, Sick: 40, Personal: 16},
		},
		"emp-2": {
			ID: "emp-2", Email: "bob@meridian.test", Name: "Bob", Role: "EMPLOYEE",
			EmploymentType:   identity.EmploymentFullTime,
			OnboardingStatus: identity.OnboardingInProgress,
		},
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := employees.NewHandler(logger, repo, gate.NewAuthorizer(engine))

	r := chi.NewRouter()
	r.Route("/api/employees", h.MountRoutes)
	return r
}

func claimsFor(id, email string, role policy.Role) *token.Claims {
	return &token.Claims{
		Email: email,
		Role:  string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: id,
		},
	}
}

func doRequest(t *testing.T, router chi.Router, path string, claims *token.Claims) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if claims != nil {
		req = req.WithContext(shared.ContextWithClaims(req.Context(), claims))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestEmployeesUnauthenticated(t *testing.T) {
	router := newHandlerRouter(t)
	rec := doRequest(t, router, "/api/employees/emp-1", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEmployeesOwnerReadsOwnProfile(t *testing.T) {
	router := newHandlerRouter(t)
	rec := doRequest(t, router, "/api/employees/emp-1",
		claimsFor("emp-1", "alice@meridian.test", policy.RoleEmployee))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "alice@meridian.test", body["email"])
	assert.Equal(t, float64(80), body["vacation_hours"])
}

func TestEmployeesPeerDenied(t *testing.T) {
	router := newHandlerRouter(t)
	rec := doRequest(t, router, "/api/employees/emp-1",
		claimsFor("emp-2", "bob@meridian.test", policy.RoleEmployee))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestEmployeesManagerReadsAnyProfile(t *testing.T) {
	router := newHandlerRouter(t)
	rec := doRequest(t, router, "/api/employees/emp-1",
		claimsFor("mgr-1", "manager@meridian.test", policy.RoleManager))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEmployeesPTOManagerDenied(t *testing.T) {
	// Manager rank is enough for profiles but not for PTO balances.
	router := newHandlerRouter(t)
	rec := doRequest(t, router, "/api/employees/emp-1/pto",
		claimsFor("mgr-1", "manager@meridian.test", policy.RoleManager))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestEmployeesPTOOwnerAndHR(t *testing.T) {
	router := newHandlerRouter(t)

	rec := doRequest(t, router, "/api/employees/emp-1/pto",
		claimsFor("emp-1", "alice@meridian.test", policy.RoleEmployee))
	require.Equal(t, http.StatusOK, rec.Code)

	var pto map[string]float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pto))
	assert.Equal(t, map[string]float64{
		"vacation_hours": 80, "sick_hours": 40, "personal_hours": 16,
	}, pto)

	rec = doRequest(t, router, "/api/employees/emp-1/pto",
		claimsFor("hr-1", "hr@meridian.test", policy.RoleHR))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEmployeesListRequiresAdministrativeRole(t *testing.T) {
	router := newHandlerRouter(t)

	rec := doRequest(t, router, "/api/employees/",
		claimsFor("emp-1", "alice@meridian.test", policy.RoleEmployee))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, router, "/api/employees/",
		claimsFor("hr-1", "hr@meridian.test", policy.RoleHR))
	require.Equal(t, http.StatusOK, rec.Code)

	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)
}

func TestEmployeesSuperAdminBypass(t *testing.T) {
	router := newHandlerRouter(t)
	rec := doRequest(t, router, "/api/employees/emp-2/pto",
		claimsFor("root-1", superAdminEmail, policy.RoleEmployee))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEmployeesUnknownID(t *testing.T) {
	router := newHandlerRouter(t)
	rec := doRequest(t, router, "/api/employees/ghost",
		claimsFor("hr-1", "hr@meridian.test", policy.RoleHR))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
