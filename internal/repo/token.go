package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/models"
	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"
)

var (
	ErrTokenRevoked  = errors.New("token expired or revoked")
	ErrTokenConsumed = errors.New("token already used")
)

func (r *GormRepo) AddRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *GormRepo) FindRefreshByJTI(ctx context.Context, jti string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func refreshUsable(t *models.RefreshToken, now time.Time) bool {
	return !t.Revoked && t.ExpiresAt.After(now)
}

// RotateRefreshToken revokes oldJTI and stores its replacement in one transaction.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldJTI string, newToken *models.RefreshToken, now time.Time) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old models.RefreshToken
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("jti = ?", oldJTI).First(&old).Error; err != nil {
			return err
		}
		if !refreshUsable(&old, now) {
			return ErrTokenRevoked
		}
		if err := tx.Model(&old).Update("revoked", true).Error; err != nil {
			return err
		}
		return tx.Create(newToken).Error
	})
}

func (r *GormRepo) LogOut(ctx context.Context, refreshToken string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ?", jwthelp.Sha256Hex(refreshToken)).
		Update("revoked", true).Error
}

func (r *GormRepo) CreateResetToken(ctx context.Context, t *models.PasswordResetToken) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *GormRepo) FindResetToken(ctx context.Context, tokenHash string) (*models.PasswordResetToken, error) {
	var t models.PasswordResetToken
	if err := r.DB.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// ConsumeResetToken marks the token used and stores the new password hash. The update is
// conditional on used = false so two concurrent confirmations cannot both succeed.
func (r *GormRepo) ConsumeResetToken(ctx context.Context, tokenID, userID uint, passwordHash string, now time.Time) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PasswordResetToken{}).
			Where("id = ? AND used = ?", tokenID, false).
			Updates(map[string]any{"used": true, "used_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTokenConsumed
		}
		return tx.Model(&models.User{ID: userID}).
			Updates(map[string]any{"password_hash": passwordHash, "updated_at": now}).Error
	})
}
