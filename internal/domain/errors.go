package domain

import "errors"

// Domain errors, translated to HTTP status codes at the handler boundary.
var (
	ErrNotFound           = errors.New("not found")
	ErrNotAuthorized      = errors.New("not authorized")
	ErrRequestClosed      = errors.New("request is closed")
	ErrEmailInUse         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDeactivated = errors.New("account deactivated")
	ErrResetCooldown      = errors.New("a reset token was recently issued")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrNotTenant          = errors.New("target user is not a tenant")
)

// ValidationError marks a missing or invalid request field
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validation builds a ValidationError
func Validation(msg string) error { return &ValidationError{Msg: msg} }

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
