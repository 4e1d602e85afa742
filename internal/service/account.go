package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/hash"
	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/mail"
	"github.com/Skotchmaster/storefront/pkg/metrics"
	"github.com/Skotchmaster/storefront/pkg/mykafka"
)

const (
	ResetTokenTTL     = 2 * time.Hour
	MinPasswordLength = 6
	// MaxPasswordBytes is bcrypt's input limit.
	MaxPasswordBytes = 72
)

type Registration struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
}

type ProfileInput struct {
	Email           string
	FirstName       string
	LastName        string
	DisplayName     string
	PostalAddress   string
	Phone           string
	ShippingAddress string
}

var resetMail = template.Must(template.New("reset").Parse(
	`<p>Bonjour {{.Name}},</p>
<p>Pour choisir un nouveau mot de passe, suivez ce lien (valable 2 heures) :</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>Si vous n'êtes pas à l'origine de cette demande, ignorez ce message.</p>`))

type AccountService struct {
	Repo    *repo.GormRepo
	Mailer  mail.Mailer
	Events  Publisher
	BaseURL string
	Now     func() time.Time
}

func (s *AccountService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func checkPassword(pw string) error {
	if len(pw) < MinPasswordLength {
		return fmt.Errorf("password must have at least %d characters: %w", MinPasswordLength, ErrValidation)
	}
	if len(pw) > MaxPasswordBytes {
		return fmt.Errorf("password longer than %d bytes: %w", MaxPasswordBytes, ErrValidation)
	}
	return nil
}

// Register creates a member account. An existing email fails with ErrConflict.
func (s *AccountService) Register(ctx context.Context, in Registration) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "account.register")

	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if in.Email == "" || in.Username == "" {
		return nil, fmt.Errorf("email and username required: %w", ErrValidation)
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}

	hashed, err := hash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "error", err)
		return nil, err
	}

	now := s.now()
	user := &models.User{
		Email:        in.Email,
		Username:     in.Username,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: hashed,
		Roles:        []string{models.RoleMember},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			l.Warn("register_error", "status", 409, "error", err)
			return nil, fmt.Errorf("email already registered: %w", ErrConflict)
		}
		l.Error("register_error", "status", 500, "error", err)
		return nil, err
	}

	metrics.Registrations.Inc()
	publish(ctx, s.Events, mykafka.TopicUsers, strconv.FormatUint(uint64(user.ID), 10), map[string]any{
		"type":    "user_registered",
		"user_id": user.ID,
	})
	l.Info("register_success", "user_id", user.ID)
	return user, nil
}

func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// RequestPasswordReset mails a reset link when the email belongs to an account. Unknown
// emails succeed silently. The returned token is empty in that case.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	l := logging.FromContext(ctx).With("svc", "account.request_reset")

	user, err := s.Repo.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Info("reset_requested_unknown_email")
			return "", nil
		}
		l.Error("request_reset_error", "status", 500, "error", err)
		return "", err
	}

	token, err := newResetToken()
	if err != nil {
		return "", err
	}
	now := s.now()
	record := &models.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: jwthelp.Sha256Hex(token),
		ExpiresAt: now.Add(ResetTokenTTL),
		CreatedAt: now,
	}
	if err := s.Repo.CreateResetToken(ctx, record); err != nil {
		l.Error("request_reset_error", "status", 500, "error", err)
		return "", err
	}

	link := strings.TrimRight(s.BaseURL, "/") + "/reset-password/" + token
	var body strings.Builder
	name := user.FullName()
	if name == "" {
		name = user.Username
	}
	if err := resetMail.Execute(&body, map[string]string{"Name": name, "Link": link}); err != nil {
		return "", err
	}
	if s.Mailer != nil {
		if err := s.Mailer.Send(ctx, user.Email, "Réinitialisation de votre mot de passe", body.String()); err != nil {
			l.Error("reset_mail_error", "user_id", user.ID, "error", err)
			return "", fmt.Errorf("send reset mail: %w", err)
		}
	}
	l.Info("reset_requested", "user_id", user.ID, "expires_at", record.ExpiresAt)
	return token, nil
}

// CheckResetToken returns the live token record, or ErrInvalidToken, ErrTokenAlreadyUsed or
// ErrTokenExpired.
func (s *AccountService) CheckResetToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	t, err := s.Repo.FindResetToken(ctx, jwthelp.Sha256Hex(token))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if t.Used {
		return nil, ErrTokenAlreadyUsed
	}
	if !s.now().Before(t.ExpiresAt) {
		return nil, ErrTokenExpired
	}
	return t, nil
}

// ConfirmReset stores the new password and consumes the token in one transaction.
func (s *AccountService) ConfirmReset(ctx context.Context, token, newPassword string) error {
	l := logging.FromContext(ctx).With("svc", "account.confirm_reset")

	t, err := s.CheckResetToken(ctx, token)
	if err != nil {
		l.Warn("confirm_reset_error", "status", 400, "error", err)
		return err
	}
	if err := checkPassword(newPassword); err != nil {
		return err
	}
	hashed, err := hash.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Repo.ConsumeResetToken(ctx, t.ID, t.UserID, hashed, s.now()); err != nil {
		if errors.Is(err, repo.ErrTokenConsumed) {
			l.Warn("confirm_reset_error", "status", 400, "error", err)
			return ErrTokenAlreadyUsed
		}
		l.Error("confirm_reset_error", "status", 500, "error", err)
		return err
	}
	l.Info("confirm_reset_success", "user_id", t.UserID)
	return nil
}

func (s *AccountService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, userID uint, in ProfileInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "account.update_profile", "user_id", userID)

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" {
		return nil, fmt.Errorf("email required: %w", ErrValidation)
	}
	taken, err := s.Repo.EmailTaken(ctx, in.Email, userID)
	if err != nil {
		return nil, err
	}
	if taken {
		l.Warn("update_profile_error", "status", 409, "error", "email taken")
		return nil, fmt.Errorf("email already registered: %w", ErrConflict)
	}

	user.Email = in.Email
	user.FirstName = strings.TrimSpace(in.FirstName)
	user.LastName = strings.TrimSpace(in.LastName)
	user.DisplayName = strings.TrimSpace(in.DisplayName)
	user.PostalAddress = strings.TrimSpace(in.PostalAddress)
	user.Phone = strings.TrimSpace(in.Phone)
	user.ShippingAddress = strings.TrimSpace(in.ShippingAddress)
	user.UpdatedAt = s.now()
	if err := s.Repo.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("email already registered: %w", ErrConflict)
		}
		l.Error("update_profile_error", "status", 500, "error", err)
		return nil, err
	}
	l.Info("update_profile_success")
	return user, nil
}

// EnsureAdmin creates the admin account if missing and grants it the admin role.
func (s *AccountService) EnsureAdmin(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.Repo.UserByEmail(ctx, email)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		name, _, _ := strings.Cut(email, "@")
		user, err = s.Register(ctx, Registration{Email: email, Username: name, Password: password})
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}
	if user.IsAdmin() {
		return user, nil
	}
	roles := append(user.RoleSet(), models.RoleAdmin)
	if err := s.Repo.SetRoles(ctx, user.ID, roles); err != nil {
		return nil, err
	}
	user.Roles = roles
	return user, nil
}
