package services

import (
	"errors"

	"techstore/internal/repos"
)

var (
	ErrBadCreds      = errors.New("invalid email or password")
	ErrEmptyCart     = errors.New("cart is empty")
	ErrInvalidStatus = errors.New("invalid reservation status")
	ErrCategoryInUse = errors.New("category still has products")
	ErrSelfAction    = errors.New("cannot apply this action to your own account")
	ErrNotFound      = repos.ErrNotFound
)

// ValidationError names the input field that failed.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string { return "invalid " + e.Field }

func invalid(field string) error { return &ValidationError{Field: field} }

// IsValidation reports whether err is a ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}
