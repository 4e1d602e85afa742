package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

// safeNext keeps redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

func (h *AuthHTTP) LoginForm(c echo.Context) error {
	return c.Render(http.StatusOK, "login.html", echo.Map{
		"Title": "Connexion",
		"Next":  c.QueryParam("next"),
	})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var form transport.LoginForm
	if err := c.Bind(&form); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	next := c.FormValue("next")
	failed := func(status int, errs map[string]string) error {
		return c.Render(status, "login.html", echo.Map{
			"Title":  "Connexion",
			"Email":  form.Email,
			"Next":   next,
			"Errors": errs,
		})
	}
	if err := c.Validate(&form); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return failed(http.StatusBadRequest, FieldErrors(err))
	}

	pair, err := h.Svc.Login(ctx, form.Email, form.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return failed(http.StatusUnauthorized, map[string]string{"_": "Email ou mot de passe incorrect."})
		}
		return err
	}

	c.SetCookie(jwthelp.CreateCookie(jwthelp.AccessCookie, pair.AccessToken, "/", pair.AccessExp))
	c.SetCookie(jwthelp.CreateCookie(jwthelp.RefreshCookie, pair.RefreshToken, "/", pair.RefreshExp))
	l.Info("login_success")

	flash(c, flashSuccess, "Bienvenue !")
	return redirect(c, safeNext(next))
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	if ck, err := c.Cookie(jwthelp.RefreshCookie); err == nil && ck.Value != "" {
		if err := h.Svc.LogOut(ctx, ck.Value); err != nil {
			l.Error("logout_error", "status", 500, "reason", "cannot revoke refreshToken", "error", err)
		}
	}
	c.SetCookie(jwthelp.DeleteCookie(jwthelp.RefreshCookie, "/"))
	c.SetCookie(jwthelp.DeleteCookie(jwthelp.AccessCookie, "/"))

	l.Info("logout_success")
	flash(c, flashSuccess, "Vous êtes déconnecté.")
	return redirect(c, "/")
}
