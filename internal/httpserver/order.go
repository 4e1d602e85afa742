package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/Skotchmaster/storefront/pkg/session"
)

type OrderHTTP struct {
	Svc      *service.OrderService
	Carts    *service.CartService
	Accounts *service.AccountService
}

func (h *OrderHTTP) renderCheckout(c echo.Context, status int, form transport.CheckoutForm, errs map[string]string) error {
	ctx := c.Request().Context()
	snap, err := h.Carts.Snapshot(ctx, *loadCart(session.FromContext(c)))
	if err != nil {
		return err
	}
	return c.Render(status, "checkout.html", echo.Map{
		"Title":  "Finaliser ma commande",
		"Cart":   snap,
		"Form":   form,
		"Errors": errs,
	})
}

func (h *OrderHTTP) CheckoutForm(c echo.Context) error {
	if loadCart(session.FromContext(c)).IsEmpty() {
		flash(c, flashWarning, "Votre panier est vide !")
		return redirect(c, "/Panier")
	}

	var form transport.CheckoutForm
	if u := currentUser(c, h.Accounts); u != nil {
		form.Name = u.FullName()
		form.Phone = u.Phone
		form.BillingAddress = u.PostalAddress
		form.ShippingAddress = u.ShippingAddress
	}
	return h.renderCheckout(c, http.StatusOK, form, nil)
}

func (h *OrderHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.checkout")

	sess := session.FromContext(c)
	cart := loadCart(sess)
	if cart.IsEmpty() {
		flash(c, flashWarning, "Votre panier est vide !")
		return redirect(c, "/Panier")
	}

	var form transport.CheckoutForm
	if err := c.Bind(&form); err != nil {
		l.Warn("checkout_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&form); err != nil {
		l.Warn("checkout_error", "status", 400, "error", err)
		return h.renderCheckout(c, http.StatusBadRequest, form, FieldErrors(err))
	}

	var userID *uint
	if id, ok := middleware.UserID(c); ok {
		userID = &id
	}
	res, err := h.Svc.Checkout(ctx, cart, service.CheckoutForm{
		Name:            form.Name,
		Phone:           form.Phone,
		BillingAddress:  form.BillingAddress,
		ShippingAddress: form.ShippingAddress,
	}, userID)
	if res != nil && len(res.Skipped) > 0 {
		flash(c, flashWarning, "Certains produits n'existent plus et ont été retirés de la commande.")
	}
	if err != nil {
		if errors.Is(err, service.ErrEmptyCart) {
			flash(c, flashWarning, "Votre panier est vide !")
			return redirect(c, "/Panier")
		}
		return err
	}

	if err := saveCart(sess, cart); err != nil {
		l.Error("clear_cart_error", "error", err)
	}
	var placed []uint
	sess.Get(sessionOrdersKey, &placed)
	if err := sess.Set(sessionOrdersKey, append(placed, res.Order.ID)); err != nil {
		l.Error("remember_order_error", "error", err)
	}

	l.Info("checkout_success", "order_id", res.Order.ID)
	return redirect(c, fmt.Sprintf("/panier/confirmation/%d", res.Order.ID))
}

func (h *OrderHTTP) Confirmation(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.confirmation")

	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	order, err := h.Svc.Get(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return err
	}

	userID, _ := middleware.UserID(c)
	var placed []uint
	session.FromContext(c).Get(sessionOrdersKey, &placed)
	if !service.CanView(order, userID, middleware.IsAdmin(c), placed) {
		l.Warn("confirmation_error", "status", 404, "order_id", id, "reason", "not the buyer")
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}

	return c.Render(http.StatusOK, "confirmation.html", echo.Map{
		"Title": "Commande confirmée",
		"Order": order,
	})
}
