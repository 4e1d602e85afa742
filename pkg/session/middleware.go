package session

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/logging"
)

const contextKey = "session"

type Options struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

func DefaultOptions() Options {
	return Options{
		CookieName: "storefront_session",
		TTL:        2 * time.Hour,
	}
}

// Middleware loads the visitor session and persists it right before the response headers
// are written, so redirects carry the updated state.
func Middleware(store Store, opts Options) echo.MiddlewareFunc {
	if opts.CookieName == "" {
		opts.CookieName = DefaultOptions().CookieName
	}
	if opts.TTL == 0 {
		opts.TTL = DefaultOptions().TTL
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			l := logging.FromContext(ctx)

			sess := New()
			if ck, err := c.Cookie(opts.CookieName); err == nil && ck.Value != "" {
				data, err := store.Load(ctx, ck.Value)
				if err != nil {
					l.Error("session_load_error", "error", err)
				}
				if data != nil {
					sess = &Session{id: ck.Value, data: data}
				}
			}
			c.Set(contextKey, sess)

			persist := func() {
				if sess.oldID != "" {
					if err := store.Delete(ctx, sess.oldID); err != nil {
						l.Error("session_delete_error", "error", err)
					}
					sess.oldID = ""
				}
				if !sess.changed {
					return
				}
				if err := store.Save(ctx, sess.id, sess.data, opts.TTL); err != nil {
					l.Error("session_save_error", "error", err)
					return
				}
				sess.changed = false
			}

			res := c.Response()
			res.Before(func() {
				persist()
				if len(sess.data) > 0 {
					c.SetCookie(&http.Cookie{
						Name:     opts.CookieName,
						Value:    sess.id,
						Path:     "/",
						MaxAge:   int(opts.TTL.Seconds()),
						HttpOnly: true,
						Secure:   opts.Secure,
						SameSite: http.SameSiteLaxMode,
					})
				}
			})

			err := next(c)
			if !res.Committed {
				persist()
			}
			return err
		}
	}
}

// FromContext returns the request session. Outside the middleware (tests, background
// code) a detached empty session is created and attached to c.
func FromContext(c echo.Context) *Session {
	if s, ok := c.Get(contextKey).(*Session); ok {
		return s
	}
	s := New()
	c.Set(contextKey, s)
	return s
}
