package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/util"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CatalogHTTP struct {
	Svc    *service.CatalogService
	Search *service.SearchService
}

func (h *CatalogHTTP) Home(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.home")

	cats, err := h.Svc.Categories(ctx)
	if err != nil {
		l.Error("home_error", "status", 500, "error", err)
		return err
	}
	latest, err := h.Svc.Products(ctx, 1, 8)
	if err != nil {
		l.Error("home_error", "status", 500, "error", err)
		return err
	}
	return c.Render(http.StatusOK, "home.html", echo.Map{
		"Title":      "Accueil",
		"Categories": cats,
		"Products":   latest.Items,
	})
}

func (h *CatalogHTTP) Categories(c echo.Context) error {
	ctx := c.Request().Context()
	cats, err := h.Svc.Categories(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("categories_error", "status", 500, "error", err)
		return err
	}
	return c.Render(http.StatusOK, "categories.html", echo.Map{
		"Title":      "Catégories",
		"Categories": cats,
	})
}

func pageParams(c echo.Context) (int, int) {
	return util.ParseIntDefault(c.QueryParam("page"), 1), util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
}

func (h *CatalogHTTP) Products(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.products")

	page, size := pageParams(c)
	res, err := h.Svc.Products(ctx, page, size)
	if err != nil {
		l.Error("get_products_error", "status", 500, "error", err)
		return err
	}
	return c.Render(http.StatusOK, "product_list.html", echo.Map{
		"Title":   "Nos produits",
		"Page":    res,
		"BaseURL": "/Produits",
	})
}

func (h *CatalogHTTP) ProductsByCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.products_by_category")

	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	page, size := pageParams(c)
	cat, res, err := h.Svc.ProductsInCategory(ctx, id, page, size)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("get_category_error", "status", 404, "category_id", id)
			return echo.NewHTTPError(http.StatusNotFound, "category not found")
		}
		l.Error("get_category_error", "status", 500, "error", err)
		return err
	}
	return c.Render(http.StatusOK, "product_list.html", echo.Map{
		"Title":    cat.Name,
		"Category": cat,
		"Page":     res,
		"BaseURL":  c.Request().URL.Path,
	})
}

func (h *CatalogHTTP) Product(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.product")

	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.Svc.Product(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("get_product_error", "status", 404, "product_id", id)
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		l.Error("get_product_error", "status", 500, "error", err)
		return err
	}
	return c.Render(http.StatusOK, "product_show.html", echo.Map{
		"Title":   p.Name,
		"Product": p,
	})
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.search")

	q := c.QueryParam("q")
	page, size := pageParams(c)
	res, err := h.Search.Search(ctx, q, page, size)
	if err != nil {
		l.Error("search_error", "status", 500, "error", err)
		return err
	}
	l.Info("search_success", "hits", res.Total)
	return c.Render(http.StatusOK, "product_list.html", echo.Map{
		"Title":   "Recherche",
		"Query":   q,
		"Page":    res,
		"BaseURL": "/Produits/recherche",
	})
}
