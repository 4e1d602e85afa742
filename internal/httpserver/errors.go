package httpserver

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/logging"
)

var errorTitles = map[int]string{
	http.StatusBadRequest:            "Requête invalide",
	http.StatusForbidden:             "Accès refusé",
	http.StatusNotFound:              "Page introuvable",
	http.StatusMethodNotAllowed:      "Méthode non autorisée",
	http.StatusRequestEntityTooLarge: "Fichier trop volumineux",
	http.StatusTooManyRequests:       "Trop de tentatives",
}

// ErrorHandler renders HTML error pages. Unauthenticated visitors are sent to the login
// page and come back to where they were going afterwards.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
	}

	if code == http.StatusUnauthorized {
		flash(c, flashWarning, "Veuillez vous connecter pour continuer.")
		to := "/connexion"
		if c.Request().Method == http.MethodGet {
			to += "?next=" + url.QueryEscape(c.Request().URL.RequestURI())
		}
		if rErr := redirect(c, to); rErr != nil {
			logging.FromContext(c.Request().Context()).Error("error_handler_failed", "error", rErr)
		}
		return
	}

	title, ok := errorTitles[code]
	if !ok {
		title = "Erreur interne"
	}
	if code >= 500 {
		logging.FromContext(c.Request().Context()).Error("unhandled_error", "status", code, "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.Render(code, "error.html", echo.Map{"Status": code, "Title": title})
	}
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("error_handler_failed", "error", err)
	}
}
