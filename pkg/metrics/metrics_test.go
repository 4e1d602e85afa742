package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareAndHandler(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/produits/:id", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/metrics", Handler())

	before := testutil.CollectAndCount(RequestDuration)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/produits/7", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.GreaterOrEqual(t, testutil.CollectAndCount(RequestDuration), before)

	Uploads.WithLabelValues("stored").Inc()

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `storefront_http_request_duration_seconds_count{method="GET",route="/produits/:id",status="200"}`)
	require.Contains(t, rec.Body.String(), `storefront_image_uploads_total{result="stored"}`)
}
