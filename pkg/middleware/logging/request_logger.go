package loggingmw

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/logging"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

// DefaultSkip lists the ops and static image prefixes kept out of the access log.
var DefaultSkip = []string{"/health/", "/metrics", "/uploads/"}

// RequestLogger puts a request-scoped logger in the context and writes one line per
// request once the error handler has run. Requests whose path starts with one of skip
// still get the logger but are not logged.
func RequestLogger(base *slog.Logger, skip ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			l := base.With(
				"method", req.Method,
				"route", c.Path(),
				"url", req.URL.Path,
				"remote_ip", c.RealIP(),
			)
			if rid := requestID(c); rid != "" {
				l = l.With("request_id", rid)
			}
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Echo().HTTPErrorHandler(err, c)
			}
			if skipped(req.URL.Path, skip) {
				return nil
			}

			res := c.Response()
			attrs := []any{"status", res.Status, "duration_ms", time.Since(start).Milliseconds()}
			if id, ok := middleware.UserID(c); ok {
				attrs = append(attrs, "user_id", id, "admin", middleware.IsAdmin(c))
			}
			if loc := res.Header().Get(echo.HeaderLocation); loc != "" && res.Status < 400 {
				attrs = append(attrs, "location", loc)
			}

			if err != nil && res.Status >= http.StatusBadRequest {
				attrs = append(attrs, "error", err.Error())
			}
			switch {
			case res.Status >= http.StatusInternalServerError:
				l.Error("request completed", attrs...)
			case res.Status >= http.StatusBadRequest:
				l.Warn("request completed", attrs...)
			default:
				l.Info("request completed", append(attrs, "bytes", res.Size)...)
			}
			return nil
		}
	}
}

// requestID prefers the id set by echo's RequestID middleware on the response.
func requestID(c echo.Context) string {
	if rid := c.Response().Header().Get(echo.HeaderXRequestID); rid != "" {
		return rid
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}

func skipped(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
