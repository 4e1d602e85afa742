// Package storage writes uploaded product images to the local filesystem or to an
// S3-compatible bucket (AWS S3, MinIO, R2).
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/Skotchmaster/storefront/pkg/config"
)

type Disk interface {
	// Put writes r to path, creating parent directories as needed.
	Put(ctx context.Context, path string, r io.Reader, contentType string) error

	// Delete removes a file. Returns nil if the file did not exist.
	Delete(ctx context.Context, path string) error

	Exists(ctx context.Context, path string) bool

	// URL returns the public URL under which path is served.
	URL(path string) string
}

func New(ctx context.Context, cfg config.Storage) (Disk, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocal(cfg.LocalRoot, cfg.PublicURL)
	case "s3":
		return NewS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}
