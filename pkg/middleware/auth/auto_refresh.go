package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

const RoleAdmin = "admin"

// Refresher rotates a refresh token into a new cookie pair.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*tokens.Pair, error)
}

type AutoRefreshMiddleware struct {
	JWTSecret []byte
	Refresher Refresher
}

func NewAutoRefreshMiddleware(secret []byte, refresher Refresher) *AutoRefreshMiddleware {
	return &AutoRefreshMiddleware{
		JWTSecret: secret,
		Refresher: refresher,
	}
}

type ValidatorFunc func(claims *tokens.AccessClaims) error

// Identify resolves the visitor from the auth cookies when it can and never rejects the
// request. Pages use it to know whether someone is logged in.
func (m *AutoRefreshMiddleware) Identify(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if claims, err := m.authenticate(c); err == nil {
			setUserContext(c, claims)
		}
		return next(c)
	}
}

func (m *AutoRefreshMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, nil)
}

func (m *AutoRefreshMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, func(claims *tokens.AccessClaims) error {
		if claims.Role != RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	})
}

func (m *AutoRefreshMiddleware) requireAuthWithValidator(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := m.authenticate(c)
		if err != nil {
			return err
		}
		if validator != nil {
			if validationErr := validator(claims); validationErr != nil {
				return validationErr
			}
		}

		setUserContext(c, claims)
		return next(c)
	}
}

func (m *AutoRefreshMiddleware) authenticate(c echo.Context) (*tokens.AccessClaims, error) {
	if claims, ok := c.Get("claims").(*tokens.AccessClaims); ok {
		return claims, nil
	}

	accessCookie, err := c.Cookie(jwthelp.AccessCookie)
	access := ""
	if err == nil {
		access = accessCookie.Value
	}

	if access != "" {
		claims, err := tokens.AccessClaimsFromToken(access, m.JWTSecret)
		if err == nil && claims != nil {
			return claims, nil
		}
		if !errors.Is(err, jwt.ErrTokenExpired) {
			clearAuthCookies(c)
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}
	}

	refreshCookie, rErr := c.Cookie(jwthelp.RefreshCookie)
	if rErr != nil || refreshCookie.Value == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}
	if m.Refresher == nil {
		clearAuthCookies(c)
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "refresh unavailable")
	}

	pair, refErr := m.Refresher.Refresh(c.Request().Context(), refreshCookie.Value)
	if refErr != nil {
		clearAuthCookies(c)
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "refresh failed").SetInternal(refErr)
	}

	c.SetCookie(jwthelp.CreateCookie(jwthelp.AccessCookie, pair.AccessToken, "/", pair.AccessExp))
	c.SetCookie(jwthelp.CreateCookie(jwthelp.RefreshCookie, pair.RefreshToken, "/", pair.RefreshExp))

	newClaims, pErr := tokens.AccessClaimsFromToken(pair.AccessToken, m.JWTSecret)
	if pErr != nil || newClaims == nil {
		clearAuthCookies(c)
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "new access token invalid")
	}
	return newClaims, nil
}

func clearAuthCookies(c echo.Context) {
	c.SetCookie(jwthelp.DeleteCookie(jwthelp.AccessCookie, "/"))
	c.SetCookie(jwthelp.DeleteCookie(jwthelp.RefreshCookie, "/"))
}

func setUserContext(c echo.Context, claims *tokens.AccessClaims) {
	c.Set("claims", claims)
	c.Set("user_id", claims.Subject)
	c.Set("role", claims.Role)
}

// UserID returns the authenticated user's id, if any.
func UserID(c echo.Context) (uint, bool) {
	s, _ := c.Get("user_id").(string)
	if s == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

func IsAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == RoleAdmin
}
