package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

var ErrUserAlreadyExist = errors.New("user already exist")

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *GormRepo) CreateUserIfNotExists(ctx context.Context, u *models.User) error {
	u.Email = normalizeEmail(u.Email)
	tx := r.DB.WithContext(ctx).Where("email = ?", u.Email).FirstOrCreate(u)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrDuplicatedKey) {
			return ErrUserAlreadyExist
		}
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrUserAlreadyExist
	}
	return nil
}

func (r *GormRepo) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailTaken reports whether another account than exceptID uses email.
func (r *GormRepo) EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("email = ? AND id <> ?", normalizeEmail(email), exceptID).
		Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) UpdateProfile(ctx context.Context, u *models.User) error {
	u.Email = normalizeEmail(u.Email)
	return r.DB.WithContext(ctx).Model(&models.User{ID: u.ID}).
		Select("Email", "Username", "FirstName", "LastName", "DisplayName",
			"PostalAddress", "Phone", "ShippingAddress", "UpdatedAt").
		Updates(u).Error
}

func (r *GormRepo) SetRoles(ctx context.Context, id uint, roles []string) error {
	return r.DB.WithContext(ctx).Model(&models.User{ID: id}).
		Select("Roles").Updates(&models.User{Roles: roles}).Error
}
