package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

var secret = []byte("test-secret")

func accessToken(t *testing.T, role, sub string, exp time.Time) string {
	t.Helper()
	tok, err := tokens.SignAccess(tokens.AccessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}, secret)
	require.NoError(t, err)
	return tok
}

type stubRefresher struct {
	pair  *tokens.Pair
	err   error
	calls int
}

func (s *stubRefresher) Refresh(context.Context, string) (*tokens.Pair, error) {
	s.calls++
	return s.pair, s.err
}

func serve(t *testing.T, mw echo.MiddlewareFunc, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
	return rec, c, err
}

func httpCode(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return 0
}

func TestRequireAuthWithValidAccessToken(t *testing.T) {
	m := NewAutoRefreshMiddleware(secret, nil)
	ck := &http.Cookie{Name: jwthelp.AccessCookie, Value: accessToken(t, "member", "7", time.Now().Add(time.Minute))}

	rec, c, err := serve(t, m.RequireAuth, ck)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	id, ok := UserID(c)
	assert.True(t, ok)
	assert.EqualValues(t, 7, id)
	assert.False(t, IsAdmin(c))
}

func TestRequireAuthWithoutCookies(t *testing.T) {
	m := NewAutoRefreshMiddleware(secret, nil)
	_, _, err := serve(t, m.RequireAuth)
	assert.Equal(t, http.StatusUnauthorized, httpCode(err))
}

func TestRequireAdminRejectsMember(t *testing.T) {
	m := NewAutoRefreshMiddleware(secret, nil)
	ck := &http.Cookie{Name: jwthelp.AccessCookie, Value: accessToken(t, "member", "7", time.Now().Add(time.Minute))}

	_, _, err := serve(t, m.RequireAdmin, ck)
	assert.Equal(t, http.StatusForbidden, httpCode(err))

	ck.Value = accessToken(t, RoleAdmin, "1", time.Now().Add(time.Minute))
	_, c, err := serve(t, m.RequireAdmin, ck)
	require.NoError(t, err)
	assert.True(t, IsAdmin(c))
}

func TestExpiredAccessTokenIsRefreshed(t *testing.T) {
	ref := &stubRefresher{pair: &tokens.Pair{
		AccessToken:  accessToken(t, "member", "9", time.Now().Add(time.Minute)),
		RefreshToken: "new-refresh",
		AccessExp:    time.Now().Add(time.Minute),
		RefreshExp:   time.Now().Add(time.Hour),
	}}
	m := NewAutoRefreshMiddleware(secret, ref)

	rec, c, err := serve(t, m.RequireAuth,
		&http.Cookie{Name: jwthelp.AccessCookie, Value: accessToken(t, "member", "9", time.Now().Add(-time.Minute))},
		&http.Cookie{Name: jwthelp.RefreshCookie, Value: "old-refresh"},
	)
	require.NoError(t, err)
	assert.Equal(t, 1, ref.calls)

	id, ok := UserID(c)
	require.True(t, ok)
	assert.EqualValues(t, 9, id)

	names := map[string]string{}
	for _, ck := range rec.Result().Cookies() {
		names[ck.Name] = ck.Value
	}
	assert.Equal(t, "new-refresh", names[jwthelp.RefreshCookie])
	assert.NotEmpty(t, names[jwthelp.AccessCookie])
}

func TestFailedRefreshClearsCookies(t *testing.T) {
	m := NewAutoRefreshMiddleware(secret, &stubRefresher{err: errors.New("revoked")})

	rec, _, err := serve(t, m.RequireAuth, &http.Cookie{Name: jwthelp.RefreshCookie, Value: "stale"})
	assert.Equal(t, http.StatusUnauthorized, httpCode(err))

	for _, ck := range rec.Result().Cookies() {
		assert.Empty(t, ck.Value)
	}
}

func TestIdentifyNeverRejects(t *testing.T) {
	m := NewAutoRefreshMiddleware(secret, nil)

	rec, c, err := serve(t, m.Identify, &http.Cookie{Name: jwthelp.AccessCookie, Value: "garbage"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	_, ok := UserID(c)
	assert.False(t, ok)
}
