package lib

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLState(t *testing.T) {
	code, ok := SQLState(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}))
	assert.True(t, ok)
	assert.Equal(t, "23505", code)

	_, ok = SQLState(errors.New("plain"))
	assert.False(t, ok)
}

func TestMapPgError(t *testing.T) {
	assert.ErrorIs(t, MapPgError(&pgconn.PgError{Code: "23505"}), ErrConflict)
	assert.ErrorIs(t, MapPgError(&pgconn.PgError{Code: "P0002"}), ErrNotFound)

	other := &pgconn.PgError{Code: "42P01"}
	assert.Equal(t, error(other), MapPgError(other))
}

func TestExtractAndValidateBody(t *testing.T) {
	type body struct {
		Email string `json:"email" validate:"required,email"`
	}

	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"user@example.com"}`))
	got, err := ExtractAndValidateBody[body](req)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", got.Email)

	req = httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"nope"}`))
	_, err = ExtractAndValidateBody[body](req)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "email", ve.Errors[0].Field)
	assert.Equal(t, "must be a valid email address", ve.Errors[0].Message)

	req = httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"user@example.com","extra":1}`))
	_, err = ExtractAndValidateBody[body](req)
	assert.Error(t, err)
}
