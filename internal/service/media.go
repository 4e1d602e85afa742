package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/metrics"
	"github.com/Skotchmaster/storefront/pkg/storage"
)

const (
	MaxUploadSize  = 5 << 20
	PlaceholderURL = "https://via.placeholder.com/400x300?text=Image+par+defaut"
	uploadDir      = "products"
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Upload is an image received from the admin form. ContentType must be the sniffed type,
// not the one announced by the browser.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type MediaService struct {
	Repo        *repo.GormRepo
	Disk        storage.Disk
	Placeholder string
}

func (s *MediaService) placeholder() string {
	if s.Placeholder != "" {
		return s.Placeholder
	}
	return PlaceholderURL
}

func (s *MediaService) IsPlaceholder(url string) bool {
	return url == s.placeholder()
}

func isExternal(url string) bool {
	u := strings.ToLower(url)
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") || strings.HasPrefix(u, "//")
}

func (s *MediaService) ValidateUpload(u Upload) error {
	if _, ok := allowedImageTypes[u.ContentType]; !ok {
		metrics.Uploads.WithLabelValues("invalid_type").Inc()
		return fmt.Errorf("%q is not an accepted image type: %w", u.ContentType, ErrInvalidType)
	}
	if u.Size > MaxUploadSize {
		metrics.Uploads.WithLabelValues("too_large").Inc()
		return fmt.Errorf("%d bytes exceeds %d: %w", u.Size, MaxUploadSize, ErrTooLarge)
	}
	return nil
}

// StoreUpload writes the file under a random name and attaches it to the product. Nothing
// is attached when writing fails. A stored image replaces the placeholder.
func (s *MediaService) StoreUpload(ctx context.Context, u Upload, productID uint) (*models.Image, error) {
	l := logging.FromContext(ctx).With("svc", "media.store_upload", "product_id", productID)

	if err := s.ValidateUpload(u); err != nil {
		l.Warn("upload_rejected", "status", 400, "filename", u.Filename, "error", err)
		return nil, err
	}

	key := uploadDir + "/" + uuid.NewString() + allowedImageTypes[u.ContentType]
	if err := s.Disk.Put(ctx, key, u.Body, u.ContentType); err != nil {
		metrics.Uploads.WithLabelValues("failed").Inc()
		l.Error("upload_failed", "status", 500, "key", key, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	img := &models.Image{ProductID: productID, URL: s.Disk.URL(key), Path: key}
	if err := s.Repo.AddImage(ctx, img); err != nil {
		metrics.Uploads.WithLabelValues("failed").Inc()
		l.Error("upload_failed", "status", 500, "reason", "cannot attach image", "error", err)
		if delErr := s.Disk.Delete(ctx, key); delErr != nil {
			l.Warn("upload_cleanup_error", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	if err := s.dropPlaceholders(ctx, productID); err != nil {
		l.Warn("placeholder_cleanup_error", "error", err)
	}

	metrics.Uploads.WithLabelValues("stored").Inc()
	l.Info("upload_stored", "image_id", img.ID, "key", key)
	return img, nil
}

func (s *MediaService) dropPlaceholders(ctx context.Context, productID uint) error {
	_, err := s.Repo.DeleteImagesByURL(ctx, productID, s.placeholder())
	return err
}

// storageKey returns the storage path backing img, or "" when no file belongs to us.
func (s *MediaService) storageKey(img models.Image) string {
	if s.IsPlaceholder(img.URL) {
		return ""
	}
	if img.Path != "" {
		return img.Path
	}
	if isExternal(img.URL) {
		return ""
	}
	return strings.TrimPrefix(strings.TrimLeft(img.URL, "/"), "uploads/")
}

// DeleteFiles removes backing files, skipping the placeholder and external URLs.
func (s *MediaService) DeleteFiles(ctx context.Context, images []models.Image) {
	l := logging.FromContext(ctx).With("svc", "media.delete_files")
	for _, img := range images {
		key := s.storageKey(img)
		if key == "" {
			continue
		}
		if err := s.Disk.Delete(ctx, key); err != nil {
			l.Warn("delete_file_error", "image_id", img.ID, "key", key, "error", err)
		}
	}
}

// DeleteImage removes one image and returns the product it belonged to. A product left
// without images falls back to the placeholder.
func (s *MediaService) DeleteImage(ctx context.Context, imageID uint) (uint, error) {
	l := logging.FromContext(ctx).With("svc", "media.delete_image", "image_id", imageID)

	img, err := s.Repo.GetImage(ctx, imageID)
	if err != nil {
		return 0, notFound(err, "image")
	}
	if err := s.Repo.DeleteImage(ctx, imageID); err != nil {
		return 0, notFound(err, "image")
	}
	s.DeleteFiles(ctx, []models.Image{*img})

	if err := s.EnsurePlaceholder(ctx, img.ProductID); err != nil {
		l.Error("placeholder_error", "status", 500, "error", err)
		return img.ProductID, err
	}
	l.Info("image_deleted", "product_id", img.ProductID)
	return img.ProductID, nil
}

// EnsurePlaceholder attaches the placeholder image to a product that has none.
func (s *MediaService) EnsurePlaceholder(ctx context.Context, productID uint) error {
	n, err := s.Repo.CountImages(ctx, productID)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if err := s.Repo.AddImage(ctx, &models.Image{ProductID: productID, URL: s.placeholder()}); err != nil {
		return fmt.Errorf("attach placeholder: %w", err)
	}
	return nil
}
