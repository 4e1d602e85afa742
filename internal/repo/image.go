package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

// AddImage appends img after the product's existing images.
func (r *GormRepo) AddImage(ctx context.Context, img *models.Image) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last int
		if err := tx.Model(&models.Image{}).
			Where("product_id = ?", img.ProductID).
			Select("COALESCE(MAX(position), -1)").
			Row().Scan(&last); err != nil {
			return err
		}
		img.Position = last + 1
		return tx.Create(img).Error
	})
}

func (r *GormRepo) GetImage(ctx context.Context, id uint) (*models.Image, error) {
	var img models.Image
	if err := r.DB.WithContext(ctx).First(&img, id).Error; err != nil {
		return nil, err
	}
	return &img, nil
}

func (r *GormRepo) DeleteImage(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Image{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) CountImages(ctx context.Context, productID uint) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Image{}).Where("product_id = ?", productID).Count(&n).Error
	return n, err
}

// DeleteImagesByURL removes the product's images pointing at url and reports how many went.
func (r *GormRepo) DeleteImagesByURL(ctx context.Context, productID uint, url string) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("product_id = ? AND url = ?", productID, url).
		Delete(&models.Image{})
	return res.RowsAffected, res.Error
}
