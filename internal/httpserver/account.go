package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

type AccountHTTP struct {
	Svc    *service.AccountService
	Orders *service.OrderService
}

func (h *AccountHTTP) RegisterForm(c echo.Context) error {
	return c.Render(http.StatusOK, "register.html", echo.Map{
		"Title": "Inscription",
		"Form":  transport.RegisterForm{},
	})
}

func (h *AccountHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.register")

	var form transport.RegisterForm
	if err := c.Bind(&form); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	rerender := func(errs map[string]string) error {
		form.Password, form.PasswordConfirm = "", ""
		return c.Render(http.StatusBadRequest, "register.html", echo.Map{
			"Title":  "Inscription",
			"Form":   form,
			"Errors": errs,
		})
	}
	if err := c.Validate(&form); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return rerender(FieldErrors(err))
	}

	_, err := h.Svc.Register(ctx, service.Registration{
		Email:     form.Email,
		Username:  form.Username,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Password:  form.Password,
	})
	switch {
	case errors.Is(err, service.ErrConflict):
		return rerender(map[string]string{"email": "Un compte existe déjà avec cette adresse email."})
	case errors.Is(err, service.ErrValidation):
		return rerender(map[string]string{"_": err.Error()})
	case err != nil:
		return err
	}

	flash(c, flashSuccess, "Inscription réussie ✅")
	return redirect(c, "/connexion")
}

func (h *AccountHTTP) profileData(c echo.Context, u *models.User, form transport.ProfileForm, errs map[string]string) (echo.Map, error) {
	ctx := c.Request().Context()
	orders, err := h.Orders.ListForUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	data := echo.Map{
		"Title":  "Mon profil",
		"User":   u,
		"Form":   form,
		"Errors": errs,
		"Orders": orders,
	}
	if middleware.IsAdmin(c) {
		all, err := h.Orders.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		data["AllOrders"] = all
		data["Revenue"] = service.RevenuePerDay(all)
	}
	return data, nil
}

func profileForm(u *models.User) transport.ProfileForm {
	return transport.ProfileForm{
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		DisplayName:     u.DisplayName,
		PostalAddress:   u.PostalAddress,
		Phone:           u.Phone,
		ShippingAddress: u.ShippingAddress,
	}
}

func (h *AccountHTTP) authenticatedUser(c echo.Context) (*models.User, error) {
	u := currentUser(c, h.Svc)
	if u == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized)
	}
	return u, nil
}

func (h *AccountHTTP) Profile(c echo.Context) error {
	u, err := h.authenticatedUser(c)
	if err != nil {
		return err
	}
	data, err := h.profileData(c, u, profileForm(u), nil)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "profile.html", data)
}

func (h *AccountHTTP) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.update_profile")

	u, err := h.authenticatedUser(c)
	if err != nil {
		return err
	}
	var form transport.ProfileForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	rerender := func(errs map[string]string) error {
		data, err := h.profileData(c, u, form, errs)
		if err != nil {
			return err
		}
		return c.Render(http.StatusBadRequest, "profile.html", data)
	}
	if err := c.Validate(&form); err != nil {
		l.Warn("update_profile_error", "status", 400, "error", err)
		return rerender(FieldErrors(err))
	}

	_, err = h.Svc.UpdateProfile(ctx, u.ID, service.ProfileInput{
		Email:           form.Email,
		FirstName:       form.FirstName,
		LastName:        form.LastName,
		DisplayName:     form.DisplayName,
		PostalAddress:   form.PostalAddress,
		Phone:           form.Phone,
		ShippingAddress: form.ShippingAddress,
	})
	switch {
	case errors.Is(err, service.ErrConflict):
		return rerender(map[string]string{"email": "Cette adresse email est déjà utilisée."})
	case errors.Is(err, service.ErrValidation):
		return rerender(map[string]string{"_": err.Error()})
	case err != nil:
		return err
	}

	flash(c, flashSuccess, "Profil mis à jour.")
	return redirect(c, "/profil")
}

func (h *AccountHTTP) ForgotPasswordForm(c echo.Context) error {
	return c.Render(http.StatusOK, "forgot_password.html", echo.Map{"Title": "Mot de passe oublié"})
}

func (h *AccountHTTP) ForgotPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.forgot_password")

	var form transport.ForgotPasswordForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&form); err != nil {
		return c.Render(http.StatusBadRequest, "forgot_password.html", echo.Map{
			"Title":  "Mot de passe oublié",
			"Email":  form.Email,
			"Errors": FieldErrors(err),
		})
	}

	if _, err := h.Svc.RequestPasswordReset(ctx, form.Email); err != nil {
		l.Error("forgot_password_error", "status", 500, "error", err)
		flash(c, flashError, "L'email n'a pas pu être envoyé, réessayez plus tard.")
		return redirect(c, "/mot-de-passe-oublie")
	}

	flash(c, flashSuccess, "Si un compte existe pour cette adresse, un lien de réinitialisation vient d'être envoyé.")
	return redirect(c, "/connexion")
}

func resetTokenMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrTokenExpired):
		return "Ce lien a expiré. Faites une nouvelle demande."
	case errors.Is(err, service.ErrTokenAlreadyUsed):
		return "Ce lien a déjà été utilisé."
	default:
		return "Lien de réinitialisation invalide."
	}
}

func (h *AccountHTTP) ResetPasswordForm(c echo.Context) error {
	ctx := c.Request().Context()
	token := c.Param("token")
	if _, err := h.Svc.CheckResetToken(ctx, token); err != nil {
		if !errors.Is(err, service.ErrInvalidToken) {
			return err
		}
		return c.Render(http.StatusBadRequest, "reset_password.html", echo.Map{
			"Title":        "Nouveau mot de passe",
			"TokenInvalid": resetTokenMessage(err),
		})
	}
	return c.Render(http.StatusOK, "reset_password.html", echo.Map{
		"Title": "Nouveau mot de passe",
		"Token": token,
	})
}

func (h *AccountHTTP) ResetPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.reset_password")

	token := c.Param("token")
	var form transport.ResetPasswordForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&form); err != nil {
		return c.Render(http.StatusBadRequest, "reset_password.html", echo.Map{
			"Title":  "Nouveau mot de passe",
			"Token":  token,
			"Errors": FieldErrors(err),
		})
	}

	if err := h.Svc.ConfirmReset(ctx, token, form.Password); err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("reset_password_error", "status", 400, "error", err)
			return c.Render(http.StatusBadRequest, "reset_password.html", echo.Map{
				"Title":  "Nouveau mot de passe",
				"Token":  token,
				"Errors": map[string]string{"password": "Le mot de passe est trop long."},
			})
		}
		if errors.Is(err, service.ErrInvalidToken) {
			l.Warn("reset_password_error", "status", 400, "error", err)
			return c.Render(http.StatusBadRequest, "reset_password.html", echo.Map{
				"Title":        "Nouveau mot de passe",
				"TokenInvalid": resetTokenMessage(err),
			})
		}
		return err
	}

	flash(c, flashSuccess, "Mot de passe modifié, vous pouvez vous connecter.")
	return redirect(c, "/connexion")
}
