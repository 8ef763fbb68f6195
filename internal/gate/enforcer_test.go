package gate_test

import (
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
	_ "github.com/meridian-hr/meridian-hr/testing"
)

const superAdminEmail = "root@meridian.test"

func newEnforcer(t *testing.T) (*gate.Enforcer, *token.Issuer) {
	t.Helper()
	issuer, err := token.NewIssuer("enforcer-test-secret-0123456789a", time.Hour)
	require.NoError(t, err)
	engine, err := policy.NewEngine(superAdminEmail)
	require.NoError(t, err)
	return gate.NewEnforcer(issuer, engine, nil, nil), issuer
}

func issueFor(t *testing.T, issuer *token.Issuer, id, email, role string) string {
	t.Helper()
	signed, err := issuer.Issue(token.IssueInput{SubjectID: id, Email: email, Role: role})
	require.NoError(t, err)
	return signed
}

// claimsProbe records whether the request reached the inner handler and with
// which claims.
type claimsProbe struct {
	reached bool
	claims  *token.Claims
}

func (p *claimsProbe) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.reached = true
		p.claims = shared.ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestEnforcerRedirectsAnonymousToLogin(t *testing.T) {
	enforcer, _ := newEnforcer(t)
	probe := &claimsProbe{}

	req := httptest.NewRequest(http.MethodGet, "/employees/42", nil)
	res := httptest.NewRecorder()
	enforcer.Middleware(probe.handler()).ServeHTTP(res, req)

	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/auth/signin?from=%2Femployees%2F42", res.Header().Get("Location"))
	assert.False(t, probe.reached)
}

func TestEnforcerAllowsValidCookieToken(t *testing.T) {
	enforcer, issuer := newEnforcer(t)
	probe := &claimsProbe{}

	req := httptest.NewRequest(http.MethodGet, "/employees/42", nil)
	req.AddCookie(&http.Cookie{
		Name:  gate.TokenCookieName,
		Value: issueFor(t, issuer, "u1", "emp@meridian.test", "EMPLOYEE"),
	})
	res := httptest.NewRecorder()
	enforcer.Middleware(probe.handler()).ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	require.True(t, probe.reached)
	require.NotNil(t, probe.claims)
	assert.Equal(t, "u1", probe.claims.SubjectID())
}

func TestEnforcerAcceptsBearerHeader(t *testing.T) {
	enforcer, issuer := newEnforcer(t)
	probe := &claimsProbe{}

	req := httptest.NewRequest(http.MethodGet, "/employees/42", nil)
	req.Header.Set("Authorization", "Bearer "+issueFor(t, issuer, "u1", "emp@meridian.test", "EMPLOYEE"))
	res := httptest.NewRecorder()
	enforcer.Middleware(probe.handler()).ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	assert.True(t, probe.reached)
}

func TestEnforcerTreatsBadTokenAsAnonymous(t *testing.T) {
	enforcer, _ := newEnforcer(t)

	for name, raw := range map[string]string{
		"garbage": "not-a-token",
		"expired": expiredToken(t),
	} {
		t.Run(name, func(t *testing.T) {
			probe := &claimsProbe{}
			req := httptest.NewRequest(http.MethodGet, "/pto", nil)
			req.AddCookie(&http.Cookie{Name: gate.TokenCookieName, Value: raw})
			res := httptest.NewRecorder()
			enforcer.Middleware(probe.handler()).ServeHTTP(res, req)

			require.Equal(t, http.StatusSeeOther, res.Code)
			assert.Equal(t, "/auth/signin?from=%2Fpto", res.Header().Get("Location"))
			assert.False(t, probe.reached)
		})
	}
}

// expiredToken signs a token with a lifetime too short to survive the test.
func expiredToken(t *testing.T) string {
	t.Helper()
	issuer, err := token.NewIssuer("enforcer-test-secret-0123456789a", time.Millisecond)
	require.NoError(t, err)
	signed, err := issuer.Issue(token.IssueInput{SubjectID: "u1", Email: "emp@meridian.test", Role: "EMPLOYEE"})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	return signed
}

func TestEnforcerRedirectsNonAdminFromAdminArea(t *testing.T) {
	enforcer, issuer := newEnforcer(t)
	probe := &claimsProbe{}

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{
		Name:  gate.TokenCookieName,
		Value: issueFor(t, issuer, "u1", "emp@meridian.test", "EMPLOYEE"),
	})
	res := httptest.NewRecorder()
	enforcer.Middleware(probe.handler()).ServeHTTP(res, req)

	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/", res.Header().Get("Location"))
	assert.False(t, probe.reached)
}

func TestEnforcerRedirectsSignedInUserFromSignin(t *testing.T) {
	enforcer, issuer := newEnforcer(t)
	probe := &claimsProbe{}

	req := httptest.NewRequest(http.MethodGet, "/auth/signin", nil)
	req.AddCookie(&http.Cookie{
		Name:  gate.TokenCookieName,
		Value: issueFor(t, issuer, "u1", "emp@meridian.test", "EMPLOYEE"),
	})
	res := httptest.NewRecorder()
	enforcer.Middleware(probe.handler()).ServeHTTP(res, req)

	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/", res.Header().Get("Location"))
}

func TestEnforcerLetsSignedInUserReachSignoutAndMe(t *testing.T) {
	// The signin redirect above must not swallow the rest of the auth
	// surface: a live session has to reach signout to clear its cookie.
	enforcer, issuer := newEnforcer(t)

	for path, method := range map[string]string{
		"/auth/signout": http.MethodPost,
		"/auth/me":      http.MethodGet,
	} {
		probe := &claimsProbe{}
		req := httptest.NewRequest(method, path, nil)
		req.AddCookie(&http.Cookie{
			Name:  gate.TokenCookieName,
			Value: issueFor(t, issuer, "u1", "emp@meridian.test", "EMPLOYEE"),
		})
		res := httptest.NewRecorder()
		enforcer.Middleware(probe.handler()).ServeHTTP(res, req)

		require.Equal(t, http.StatusOK, res.Code, "path %s", path)
		require.True(t, probe.reached, "path %s", path)
		require.NotNil(t, probe.claims, "path %s", path)
		assert.Equal(t, "u1", probe.claims.SubjectID(), "path %s", path)
	}
}

func TestEnforcerAllowsAnonymousSignout(t *testing.T) {
	enforcer, _ := newEnforcer(t)
	probe := &claimsProbe{}

	req := httptest.NewRequest(http.MethodPost, "/auth/signout", nil)
	res := httptest.NewRecorder()
	enforcer.Middleware(probe.handler()).ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	assert.True(t, probe.reached)
	assert.Nil(t, probe.claims)
}

func TestEnforcerSuperAdminBypass(t *testing.T) {
	enforcer, issuer := newEnforcer(t)
	probe := &claimsProbe{}

	// Role on the token is EMPLOYEE; the email alone carries the capability.
	req := httptest.NewRequest(http.MethodGet, "/admin/settings", nil)
	req.AddCookie(&http.Cookie{
		Name:  gate.TokenCookieName,
		Value: issueFor(t, issuer, "u0", superAdminEmail, "EMPLOYEE"),
	})
	res := httptest.NewRecorder()
	enforcer.Middleware(probe.handler()).ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	assert.True(t, probe.reached)
}
