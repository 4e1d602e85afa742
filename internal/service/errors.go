package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrNotFound   = errors.New("not found")  // 404
	ErrConflict   = errors.New("conflict")   // 409
	ErrForbidden  = errors.New("forbidden")  // 403
	ErrEmptyCart  = errors.New("cart is empty")

	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrInvalidToken     = errors.New("invalid reset token")
	ErrTokenExpired     = fmt.Errorf("%w: expired", ErrInvalidToken)
	ErrTokenAlreadyUsed = fmt.Errorf("%w: already used", ErrInvalidToken)

	ErrUploadRejected = errors.New("upload rejected")
	ErrInvalidType    = fmt.Errorf("%w: invalid type", ErrUploadRejected)
	ErrTooLarge       = fmt.Errorf("%w: too large", ErrUploadRejected)
	ErrUploadFailed   = errors.New("upload failed")
)

// notFound maps gorm's record-not-found onto ErrNotFound and leaves other errors alone.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}
