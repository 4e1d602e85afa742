package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type AdminHTTP struct {
	Catalog *service.CatalogService
	Media   *service.MediaService
}

func (h *AdminHTTP) renderProductForm(c echo.Context, status int, product *models.Product, form transport.ProductForm, errs map[string]string) error {
	cats, err := h.Catalog.Categories(c.Request().Context())
	if err != nil {
		return err
	}
	title := "Nouveau produit"
	if product != nil {
		title = "Modifier " + product.Name
	}
	return c.Render(status, "admin_product_form.html", echo.Map{
		"Title":      title,
		"Product":    product,
		"Form":       form,
		"Errors":     errs,
		"Categories": cats,
		"Colors":     service.Colors,
		"Sizes":      service.Sizes,
		"MaxSizeMB":  service.MaxUploadSize >> 20,
	})
}

func formFromProduct(p *models.Product) transport.ProductForm {
	f := transport.ProductForm{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Colors:      p.Colors,
		Sizes:       p.Sizes,
	}
	if p.CategoryID != nil {
		f.CategoryID = fmt.Sprint(*p.CategoryID)
	}
	return f
}

func productInput(form transport.ProductForm) (service.ProductInput, map[string]string) {
	in := service.ProductInput{
		Name:        form.Name,
		Description: form.Description,
		Colors:      form.Colors,
		Sizes:       form.Sizes,
	}
	price, err := decimal.NewFromString(form.Price)
	if err != nil {
		return in, map[string]string{"prix": "Nombre attendu."}
	}
	in.Price = price
	if form.CategoryID != "" {
		id, ok := util.ParseUint(form.CategoryID)
		if !ok {
			return in, map[string]string{"categorie": "Catégorie inconnue."}
		}
		in.CategoryID = &id
	}
	return in, nil
}

// saveProduct binds the form and its images and hands them to save. existing is nil on create.
func (h *AdminHTTP) saveProduct(c echo.Context, existing *models.Product,
	save func(service.ProductInput, []service.Upload) (*service.SaveResult, error)) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "admin.save_product")

	var form transport.ProductForm
	if err := c.Bind(&form); err != nil {
		l.Warn("save_product_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	form.Price = strings.ReplaceAll(strings.TrimSpace(form.Price), ",", ".")
	if err := c.Validate(&form); err != nil {
		l.Warn("save_product_error", "status", 400, "error", err)
		return h.renderProductForm(c, http.StatusBadRequest, existing, form, FieldErrors(err))
	}
	in, errs := productInput(form)
	if errs != nil {
		return h.renderProductForm(c, http.StatusBadRequest, existing, form, errs)
	}

	uploads, closeUploads, err := readUploads(c, "images")
	if err != nil {
		l.Warn("save_product_error", "status", 400, "reason", "cannot read uploads", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid upload")
	}
	defer closeUploads()

	res, err := save(in, uploads)
	switch {
	case errors.Is(err, service.ErrInvalidType):
		flash(c, flashError, "Format d'image non accepté (JPEG, PNG, GIF ou WebP uniquement).")
		return h.renderProductForm(c, http.StatusBadRequest, existing, form, nil)
	case errors.Is(err, service.ErrTooLarge):
		flash(c, flashError, fmt.Sprintf("Image trop volumineuse (%d Mo maximum).", service.MaxUploadSize>>20))
		return h.renderProductForm(c, http.StatusBadRequest, existing, form, nil)
	case errors.Is(err, service.ErrValidation):
		return h.renderProductForm(c, http.StatusBadRequest, existing, form, map[string]string{"_": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	case err != nil:
		return err
	}

	for _, name := range res.Failed {
		flash(c, flashWarning, fmt.Sprintf("L'image %s n'a pas pu être enregistrée.", name))
	}
	flash(c, flashSuccess, "Produit enregistré.")
	return redirect(c, fmt.Sprintf("/produits/%d", res.Product.ID))
}

func (h *AdminHTTP) NewProductForm(c echo.Context) error {
	return h.renderProductForm(c, http.StatusOK, nil, transport.ProductForm{}, nil)
}

func (h *AdminHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	return h.saveProduct(c, nil, func(in service.ProductInput, uploads []service.Upload) (*service.SaveResult, error) {
		return h.Catalog.CreateProduct(ctx, in, uploads)
	})
}

func (h *AdminHTTP) product(c echo.Context) (*models.Product, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return nil, err
	}
	p, err := h.Catalog.Product(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return nil, err
	}
	return p, nil
}

func (h *AdminHTTP) EditProductForm(c echo.Context) error {
	p, err := h.product(c)
	if err != nil {
		return err
	}
	return h.renderProductForm(c, http.StatusOK, p, formFromProduct(p), nil)
}

func (h *AdminHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	p, err := h.product(c)
	if err != nil {
		return err
	}
	return h.saveProduct(c, p, func(in service.ProductInput, uploads []service.Upload) (*service.SaveResult, error) {
		return h.Catalog.UpdateProduct(ctx, p.ID, in, uploads)
	})
}

func (h *AdminHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_product")

	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Catalog.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("delete_product_error", "status", 404, "product_id", id)
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		l.Error("delete_product_error", "status", 500, "error", err)
		return err
	}
	flash(c, flashSuccess, "Produit supprimé.")
	return redirect(c, "/Produits")
}

func (h *AdminHTTP) DeleteImage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_image")

	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	productID, err := h.Media.DeleteImage(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("delete_image_error", "status", 404, "image_id", id)
			return echo.NewHTTPError(http.StatusNotFound, "image not found")
		}
		l.Error("delete_image_error", "status", 500, "error", err)
		return err
	}
	flash(c, flashSuccess, "Image supprimée.")
	return redirect(c, fmt.Sprintf("/produits/%d/modifier", productID))
}

func (h *AdminHTTP) renderCategories(c echo.Context, status int, form transport.CategoryForm, errs map[string]string) error {
	cats, err := h.Catalog.Categories(c.Request().Context())
	if err != nil {
		return err
	}
	return c.Render(status, "admin_categories.html", echo.Map{
		"Title":      "Gérer les catégories",
		"Categories": cats,
		"Form":       form,
		"Errors":     errs,
	})
}

func (h *AdminHTTP) Categories(c echo.Context) error {
	return h.renderCategories(c, http.StatusOK, transport.CategoryForm{}, nil)
}

func (h *AdminHTTP) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	var form transport.CategoryForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&form); err != nil {
		return h.renderCategories(c, http.StatusBadRequest, form, FieldErrors(err))
	}
	if _, err := h.Catalog.CreateCategory(ctx, form.Name); err != nil {
		if errors.Is(err, service.ErrValidation) {
			return h.renderCategories(c, http.StatusBadRequest, form, map[string]string{"nom": "Ce champ est obligatoire."})
		}
		return err
	}
	flash(c, flashSuccess, "Catégorie ajoutée.")
	return redirect(c, "/admin/categories")
}

func (h *AdminHTTP) DeleteCategory(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Catalog.DeleteCategory(c.Request().Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "category not found")
		}
		return err
	}
	flash(c, flashSuccess, "Catégorie supprimée.")
	return redirect(c, "/admin/categories")
}
