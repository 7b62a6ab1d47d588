package lib

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Database errors
var (
	ErrConflict = errors.New("conflict")
	ErrNotFound = errors.New("not found")
	ErrStorage  = errors.New("storage failure")
)

// Newsletter workflow errors
var (
	ErrInvalidToken         = errors.New("invalid or expired token")
	ErrAccountNotFound      = errors.New("account not found")
	ErrNotificationDelivery = errors.New("notification delivery failed")
)

// SQLState extracts the SQLSTATE code from either supported Postgres driver.
func SQLState(err error) (string, bool) {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C'), true
	}
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code, true
	}
	return "", false
}

func MapPgError(err error) error {
	code, ok := SQLState(err)
	if !ok {
		return err
	}
	switch code {
	case "23505": // unique_violation
		return ErrConflict
	case "P0002": // no_data_found
		return ErrNotFound
	}
	return err
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}
