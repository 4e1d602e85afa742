package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/hash"
	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour
)

type AuthService struct {
	Repo          *repo.GormRepo
	JWTSecret     []byte
	RefreshSecret []byte
	Now           func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *AuthService) CreateAccessToken(role, id string, accessExp time.Time) (string, error) {
	return tokens.SignAccess(tokens.AccessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			ExpiresAt: jwt.NewNumericDate(accessExp),
			IssuedAt:  jwt.NewNumericDate(s.now()),
		},
	}, s.JWTSecret)
}

func (s *AuthService) CreateRefreshToken(id, jti string, refreshExp time.Time) (string, error) {
	return tokens.SignRefresh(tokens.RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			ExpiresAt: jwt.NewNumericDate(refreshExp),
			ID:        jti,
		},
	}, s.RefreshSecret)
}

func roleOf(u *models.User) string {
	if u.IsAdmin() {
		return models.RoleAdmin
	}
	return models.RoleMember
}

// issue signs a token pair for user. The refresh record is returned unsaved.
func (s *AuthService) issue(user *models.User) (*tokens.Pair, *models.RefreshToken, error) {
	id := strconv.FormatUint(uint64(user.ID), 10)
	now := s.now()

	accessExp := now.Add(AccessTTL)
	access, err := s.CreateAccessToken(roleOf(user), id, accessExp)
	if err != nil {
		return nil, nil, err
	}

	jti := jwthelp.NewJTI()
	refreshExp := now.Add(RefreshTTL)
	refresh, err := s.CreateRefreshToken(id, jti, refreshExp)
	if err != nil {
		return nil, nil, err
	}

	record := &models.RefreshToken{
		Token:     jwthelp.Sha256Hex(refresh),
		UserID:    user.ID,
		JTI:       jti,
		ExpiresAt: refreshExp,
	}
	return &tokens.Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		IsAdmin:      user.IsAdmin(),
	}, record, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*tokens.Pair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Repo.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("login_error", "status", 401, "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		l.Error("login_error", "status", 500, "error", err)
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_error", "status", 401, "reason", "wrong password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	pair, record, err := s.issue(user)
	if err != nil {
		l.Error("login_error", "status", 500, "error", err)
		return nil, err
	}
	if err := s.Repo.AddRefreshToken(ctx, record); err != nil {
		l.Error("login_error", "status", 500, "reason", "cannot store refresh token", "error", err)
		return nil, err
	}
	l.Info("login_success", "user_id", user.ID)
	return pair, nil
}

// Refresh rotates refreshToken: the old one is revoked and a new pair is returned. The role
// is read from the database so a promotion takes effect on the next refresh.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*tokens.Pair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("parse refresh token: %w", err)
	}
	stored, err := s.Repo.FindRefreshByJTI(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("refresh token %s: %w", claims.ID, err)
	}
	if stored.Token != jwthelp.Sha256Hex(refreshToken) {
		return nil, repo.ErrTokenRevoked
	}

	user, err := s.Repo.GetUserByID(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}
	pair, record, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.RotateRefreshToken(ctx, claims.ID, record, s.now()); err != nil {
		l.Warn("refresh_error", "status", 401, "user_id", user.ID, "error", err)
		return nil, err
	}
	l.Info("refresh_success", "user_id", user.ID)
	return pair, nil
}

func (s *AuthService) LogOut(ctx context.Context, refreshToken string) error {
	return s.Repo.LogOut(ctx, refreshToken)
}
