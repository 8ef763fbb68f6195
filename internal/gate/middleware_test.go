package gate_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-hr/meridian-hr/internal/gate"
	"github.com/meridian-hr/meridian-hr/internal/policy"
	"github.com/meridian-hr/meridian-hr/internal/shared"
	"github.com/meridian-hr/meridian-hr/internal/token"
)

func testClaims(t *testing.T, id, email, role string) *token.Claims {
	t.Helper()
	issuer, err := token.NewIssuer("middleware-test-secret-012345678", time.Hour)
	require.NoError(t, err)
	signed, err := issuer.Issue(token.IssueInput{SubjectID: id, Email: email, Role: role})
	require.NoError(t, err)
	claims, err := issuer.Decode(signed)
	require.NoError(t, err)
	return claims
}

func TestRequireAuthRejectsMissingClaims(t *testing.T) {
	handler := gate.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without claims")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/employees", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestRequireAuthForwardsWithClaims(t *testing.T) {
	var reached bool
	handler := gate.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	claims := testClaims(t, "u1", "emp@meridian.test", "EMPLOYEE")
	req := httptest.NewRequest(http.MethodGet, "/api/employees", nil)
	req = req.WithContext(shared.ContextWithClaims(context.Background(), claims))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	assert.True(t, reached)
}

func newAuthorizer(t *testing.T) *gate.Authorizer {
	t.Helper()
	engine, err := policy.NewEngine(superAdminEmail)
	require.NoError(t, err)
	return gate.NewAuthorizer(engine)
}

func TestRequireOwnerOrRoleOwnershipAlwaysSufficient(t *testing.T) {
	authorizer := newAuthorizer(t)
	claims := testClaims(t, "u1", "emp@meridian.test", "EMPLOYEE")

	// Fails the role check, passes on ownership alone.
	err := authorizer.RequireOwnerOrRole(claims, "u1", policy.RoleAdmin)
	assert.NoError(t, err)
}

func TestRequireOwnerOrRoleRoleSufficient(t *testing.T) {
	authorizer := newAuthorizer(t)
	claims := testClaims(t, "u2", "hr@meridian.test", "HR")

	err := authorizer.RequireOwnerOrRole(claims, "u1", policy.RoleHR, policy.RoleAdmin)
	assert.NoError(t, err)
}

func TestRequireOwnerOrRoleForbidden(t *testing.T) {
	authorizer := newAuthorizer(t)
	claims := testClaims(t, "u2", "emp2@meridian.test", "EMPLOYEE")

	err := authorizer.RequireOwnerOrRole(claims, "u1", policy.RoleAdmin)
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestRequireOwnerOrRoleNilClaims(t *testing.T) {
	authorizer := newAuthorizer(t)

	err := authorizer.RequireOwnerOrRole(nil, "u1", policy.RoleAdmin)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestRequireOwnerOrRoleSuperAdmin(t *testing.T) {
	authorizer := newAuthorizer(t)
	claims := testClaims(t, "u9", superAdminEmail, "EMPLOYEE")

	err := authorizer.RequireOwnerOrRole(claims, "someone-else", policy.RoleAdmin)
	assert.NoError(t, err)
}

func TestRequireRole(t *testing.T) {
	authorizer := newAuthorizer(t)

	hr := testClaims(t, "u2", "hr@meridian.test", "HR")
	assert.NoError(t, authorizer.RequireRole(hr, policy.AdministrativeRoles...))

	emp := testClaims(t, "u3", "emp@meridian.test", "EMPLOYEE")
	assert.ErrorIs(t, authorizer.RequireRole(emp, policy.AdministrativeRoles...), shared.ErrForbidden)
}

func TestTokenFromRequestPrefersBearer(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	req.AddCookie(&http.Cookie{Name: gate.TokenCookieName, Value: "cookie-token"})

	assert.Equal(t, "header-token", gate.TokenFromRequest(req))
}

func TestTokenFromRequestFallsBackToCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: gate.TokenCookieName, Value: "cookie-token"})

	assert.Equal(t, "cookie-token", gate.TokenFromRequest(req))
}

func TestTokenFromRequestEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", gate.TokenFromRequest(req))
}
