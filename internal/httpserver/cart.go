package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/session"
)

type CartHTTP struct {
	Svc     *service.CartService
	Catalog *service.CatalogService
}

func (h *CartHTTP) View(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.view")

	cart := loadCart(session.FromContext(c))
	snap, err := h.Svc.Snapshot(ctx, *cart)
	if err != nil {
		l.Error("get_cart_error", "status", 500, "error", err)
		return err
	}
	return c.Render(http.StatusOK, "cart.html", echo.Map{
		"Title": "Mon panier",
		"Cart":  snap,
	})
}

func (h *CartHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if _, err := h.Catalog.Product(ctx, id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("add_to_cart_error", "status", 404, "product_id", id)
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return err
	}

	var form transport.AddToCartForm
	if err := c.Bind(&form); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	qty := util.ParseIntDefault(form.Quantity, 1)

	sess := session.FromContext(c)
	cart := loadCart(sess)
	back := "/produits/" + strconv.FormatUint(uint64(id), 10)
	if err := cart.Add(id, qty); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "error", err)
		flash(c, flashError, fmt.Sprintf("La quantité doit être comprise entre 1 et %d.", service.MaxLineQuantity))
		return redirect(c, back)
	}
	if err := saveCart(sess, cart); err != nil {
		return err
	}

	l.Info("add_to_cart_success", "product_id", id, "quantity", qty)
	flash(c, flashSuccess, "Produit ajouté au panier !")
	return redirect(c, back)
}

func (h *CartHTTP) Remove(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	sess := session.FromContext(c)
	cart := loadCart(sess)
	cart.Remove(id)
	if err := saveCart(sess, cart); err != nil {
		return err
	}
	flash(c, flashSuccess, "Produit supprimé du panier !")
	return redirect(c, "/Panier")
}

func (h *CartHTTP) ChangeQuantity(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "cart.change_quantity")

	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var form transport.QuantityForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&form); err != nil {
		l.Warn("change_quantity_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid action")
	}

	delta := 1
	if form.Action == "moins" {
		delta = -1
	}
	sess := session.FromContext(c)
	cart := loadCart(sess)
	if err := cart.SetQuantity(id, delta); err != nil {
		l.Warn("change_quantity_error", "status", 400, "error", err)
		flash(c, flashError, fmt.Sprintf("Quantité maximale atteinte (%d).", service.MaxLineQuantity))
		return redirect(c, "/Panier")
	}
	if err := saveCart(sess, cart); err != nil {
		return err
	}
	flash(c, flashSuccess, "Quantité mise à jour !")
	return redirect(c, "/Panier")
}
