package loggingmw

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/pkg/logging"
	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

var secret = []byte("test-secret")

func newServer(buf *bytes.Buffer) *echo.Echo {
	e := echo.New()
	e.Use(echomw.RequestID(), RequestLogger(slog.New(slog.NewJSONHandler(buf, nil)), DefaultSkip...))

	site := e.Group("", middleware.NewAutoRefreshMiddleware(secret, nil).Identify)
	site.GET("/produits/:id", func(c echo.Context) error {
		logging.FromContext(c.Request().Context()).Info("inside handler")
		return c.String(http.StatusOK, "ok")
	})
	site.POST("/panier/ajouter/:id", func(c echo.Context) error {
		return c.Redirect(http.StatusSeeOther, "/produits/"+c.Param("id"))
	})
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusInternalServerError, "boom") })
	return e
}

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if raw == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(raw), &m))
		out = append(out, m)
	}
	return out
}

func TestRequestLoggerAddsRouteAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	e := newServer(&buf)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/produits/12", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	logs := lines(t, &buf)
	require.Len(t, logs, 2)
	rid := rec.Header().Get(echo.HeaderXRequestID)
	require.NotEmpty(t, rid)
	for _, l := range logs {
		assert.Equal(t, rid, l["request_id"])
		assert.Equal(t, "/produits/:id", l["route"])
	}
	assert.Equal(t, "request completed", logs[1]["msg"])
	assert.EqualValues(t, 200, logs[1]["status"])
	assert.NotContains(t, logs[1], "user_id")
}

func TestRequestLoggerRecordsVisitorAndRedirect(t *testing.T) {
	var buf bytes.Buffer
	e := newServer(&buf)

	tok, err := tokens.SignAccess(tokens.AccessClaims{
		Role: middleware.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "3",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}, secret)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/panier/ajouter/5", nil)
	req.AddCookie(&http.Cookie{Name: jwthelp.AccessCookie, Value: tok})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	logs := lines(t, &buf)
	require.Len(t, logs, 1)
	assert.EqualValues(t, 3, logs[0]["user_id"])
	assert.Equal(t, true, logs[0]["admin"])
	assert.Equal(t, "/produits/5", logs[0]["location"])
}

func TestRequestLoggerHandlesErrorsOnce(t *testing.T) {
	var buf bytes.Buffer
	e := newServer(&buf)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	logs := lines(t, &buf)
	require.Len(t, logs, 1)
	assert.Equal(t, "ERROR", logs[0]["level"])
	assert.Contains(t, logs[0]["error"], "boom")
}

func TestRequestLoggerSkipsOpsRoutes(t *testing.T) {
	var buf bytes.Buffer
	e := newServer(&buf)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, strings.TrimSpace(buf.String()))
}
