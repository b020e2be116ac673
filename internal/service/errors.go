package service

import "errors"

var (
	ErrNameTaken                    = errors.New("username already taken")
	ErrInvalidCredentials           = errors.New("invalid username or password")
	ErrRefreshTokenNotFound         = errors.New("refresh token not found")
	ErrRefreshTokenExpiredOrRevoked = errors.New("refresh token expired or revoked")
	ErrOperationNotAllowed          = errors.New("operation not allowed")
	ErrForbidden                    = errors.New("forbidden")
	ErrNotFound                     = errors.New("resource not found")
)

// ValidationError carries a field -> message map for 400 responses.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "validation failed" }

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

func (e *ValidationError) Add(field, msg string) { e.Fields[field] = msg }

func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
