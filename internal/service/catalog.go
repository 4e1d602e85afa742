package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/util"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/mykafka"
)

var (
	Colors = []string{"beige", "taupe", "kaki", "rose tendre", "vert pomme", "noir", "marron", "blanc", "bleu marine", "rouge cerise"}
	Sizes  = []string{"XS", "S", "M", "L", "XL", "Taille unique"}
)

type Page struct {
	Items      []models.Product
	Page       int
	Size       int
	Total      int64
	TotalPages int64
}

func newPage(items []models.Product, total int64, page, size int) *Page {
	if page < 1 {
		page = 1
	}
	return &Page{
		Items:      items,
		Page:       page,
		Size:       size,
		Total:      total,
		TotalPages: util.TotalPages(total, size),
	}
}

func (p *Page) HasPrev() bool { return p.Page > 1 }
func (p *Page) HasNext() bool { return int64(p.Page) < p.TotalPages }
func (p *Page) Prev() int     { return p.Page - 1 }
func (p *Page) Next() int     { return p.Page + 1 }

// ProductInput is an admin product form after binding.
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Colors      []string
	Sizes       []string
	CategoryID  *uint
}

// SaveResult reports the uploads that could not be stored; the product itself was saved.
type SaveResult struct {
	Product *models.Product
	Failed  []string
}

type CatalogService struct {
	Repo   *repo.GormRepo
	Media  *MediaService
	Search *SearchService
	Events Publisher
}

func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	return s.Repo.ListCategories(ctx)
}

func (s *CatalogService) Category(ctx context.Context, id uint) (*models.Category, error) {
	cat, err := s.Repo.GetCategory(ctx, id)
	if err != nil {
		return nil, notFound(err, "category")
	}
	return cat, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("category name required: %w", ErrValidation)
	}
	cat := &models.Category{Name: name}
	if err := s.Repo.CreateCategory(ctx, cat); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("category_created", "category_id", cat.ID)
	return cat, nil
}

// DeleteCategory detaches the category's products before removing it.
func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteCategory(ctx, id); err != nil {
		return notFound(err, "category")
	}
	return nil
}

func (s *CatalogService) Products(ctx context.Context, page, size int) (*Page, error) {
	offset, limit := util.Calculate(page, size)
	total, items, err := s.Repo.GetProducts(ctx, nil, offset, limit)
	if err != nil {
		return nil, err
	}
	return newPage(items, total, page, limit), nil
}

// ProductsInCategory fails with ErrNotFound when the category does not exist.
func (s *CatalogService) ProductsInCategory(ctx context.Context, categoryID uint, page, size int) (*models.Category, *Page, error) {
	cat, err := s.Category(ctx, categoryID)
	if err != nil {
		return nil, nil, err
	}
	offset, limit := util.Calculate(page, size)
	total, items, err := s.Repo.GetProducts(ctx, &categoryID, offset, limit)
	if err != nil {
		return nil, nil, err
	}
	return cat, newPage(items, total, page, limit), nil
}

func (s *CatalogService) Product(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	return p, nil
}

func (s *CatalogService) validate(ctx context.Context, in *ProductInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return fmt.Errorf("name required: %w", ErrValidation)
	}
	if in.Price.IsNegative() {
		return fmt.Errorf("price must not be negative: %w", ErrValidation)
	}
	for _, c := range in.Colors {
		if !slices.Contains(Colors, c) {
			return fmt.Errorf("unknown color %q: %w", c, ErrValidation)
		}
	}
	for _, sz := range in.Sizes {
		if !slices.Contains(Sizes, sz) {
			return fmt.Errorf("unknown size %q: %w", sz, ErrValidation)
		}
	}
	if in.CategoryID != nil {
		if _, err := s.Repo.GetCategory(ctx, *in.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("unknown category %d: %w", *in.CategoryID, ErrValidation)
			}
			return err
		}
	}
	return nil
}

func (s *CatalogService) validateUploads(uploads []Upload) error {
	for _, u := range uploads {
		if err := s.Media.ValidateUpload(u); err != nil {
			return fmt.Errorf("%s: %w", u.Filename, err)
		}
	}
	return nil
}

// CreateProduct saves a product with its uploads. Rejected uploads stop the whole save;
// uploads that fail to store are reported in SaveResult.Failed.
func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput, uploads []Upload) (*SaveResult, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.create_product")

	if err := s.validate(ctx, &in); err != nil {
		l.Warn("create_product_error", "status", 400, "error", err)
		return nil, err
	}
	if err := s.validateUploads(uploads); err != nil {
		l.Warn("create_product_error", "status", 400, "error", err)
		return nil, err
	}

	p := &models.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price.Round(2),
		Colors:      in.Colors,
		Sizes:       in.Sizes,
		CategoryID:  in.CategoryID,
	}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		l.Error("create_product_error", "status", 500, "error", err)
		return nil, err
	}

	res := s.afterWrite(ctx, p.ID, uploads, "product_created")
	l.Info("create_product_success", "product_id", p.ID)
	return res, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, in ProductInput, uploads []Upload) (*SaveResult, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.update_product", "product_id", id)

	if err := s.validate(ctx, &in); err != nil {
		l.Warn("update_product_error", "status", 400, "error", err)
		return nil, err
	}
	if err := s.validateUploads(uploads); err != nil {
		l.Warn("update_product_error", "status", 400, "error", err)
		return nil, err
	}

	p := &models.Product{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price.Round(2),
		Colors:      in.Colors,
		Sizes:       in.Sizes,
		CategoryID:  in.CategoryID,
	}
	if err := s.Repo.UpdateProduct(ctx, p); err != nil {
		err = notFound(err, "product")
		l.Warn("update_product_error", "error", err)
		return nil, err
	}

	res := s.afterWrite(ctx, id, uploads, "product_updated")
	l.Info("update_product_success")
	return res, nil
}

// afterWrite stores uploads, guarantees at least one image, then reindexes and publishes.
func (s *CatalogService) afterWrite(ctx context.Context, productID uint, uploads []Upload, event string) *SaveResult {
	l := logging.FromContext(ctx).With("svc", "catalog.after_write", "product_id", productID)
	res := &SaveResult{}

	for _, u := range uploads {
		if _, err := s.Media.StoreUpload(ctx, u, productID); err != nil {
			res.Failed = append(res.Failed, u.Filename)
		}
	}
	if err := s.Media.EnsurePlaceholder(ctx, productID); err != nil {
		l.Error("placeholder_error", "error", err)
	}

	p, err := s.Repo.GetProduct(ctx, productID)
	if err != nil {
		l.Error("reload_product_error", "error", err)
		res.Product = &models.Product{ID: productID}
		return res
	}
	res.Product = p

	if err := s.Search.IndexProduct(ctx, p); err != nil {
		l.Warn("index_product_error", "error", err)
	}
	publish(ctx, s.Events, mykafka.TopicProducts, strconv.FormatUint(uint64(productID), 10), map[string]any{
		"type":       event,
		"product_id": productID,
		"name":       p.Name,
		"price":      p.Price.StringFixed(2),
	})
	return res
}

// DeleteProduct removes the product, its image rows, its stored files and its search entry.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	l := logging.FromContext(ctx).With("svc", "catalog.delete_product", "product_id", id)

	images, err := s.Repo.DeleteProduct(ctx, id)
	if err != nil {
		err = notFound(err, "product")
		l.Warn("delete_product_error", "error", err)
		return err
	}
	s.Media.DeleteFiles(ctx, images)

	if err := s.Search.RemoveProduct(ctx, id); err != nil {
		l.Warn("unindex_product_error", "error", err)
	}
	publish(ctx, s.Events, mykafka.TopicProducts, strconv.FormatUint(uint64(id), 10), map[string]any{
		"type":       "product_deleted",
		"product_id": id,
	})
	l.Info("delete_product_success")
	return nil
}
