package services

import (
	"github.com/pkg/errors"

	"tipsvendor/app/models"
	"tipsvendor/app/repositories"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("authentication required")
	ErrForbidden          = errors.New("you are not allowed to do that")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrConflict           = errors.New("the request conflicts with existing data")
)

// fieldError builds a validation error pointing at one form field.
func fieldError(field, msg string) error {
	return models.NewValidationError(errors.New(msg), models.FieldError{Field: field, Error: msg})
}

// IsNotFound reports whether err wraps a missing record.
func IsNotFound(err error) bool {
	return errors.Cause(err) == repositories.ErrNotFound
}
