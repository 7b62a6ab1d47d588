package lib

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signClaims(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims(exp time.Time) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   uuid.NewString(),
		"email": "admin@example.com",
		"role":  "admin",
		"iat":   time.Now().Unix(),
		"exp":   exp.Unix(),
		"jti":   uuid.NewString(),
	}
}

func TestParseToken(t *testing.T) {
	claims := validClaims(time.Now().Add(time.Hour))
	token := signClaims(t, "secret", claims)

	parsed, err := ParseToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", parsed.Email)
	assert.Equal(t, "admin", parsed.Role)
	assert.Equal(t, claims["sub"], parsed.Sub.String())
}

func TestParseToken_Rejects(t *testing.T) {
	noExp := validClaims(time.Now().Add(time.Hour))
	delete(noExp, "exp")
	badSub := validClaims(time.Now().Add(time.Hour))
	badSub["sub"] = "not-a-uuid"

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"wrong secret", signClaims(t, "other", validClaims(time.Now().Add(time.Hour))), "secret"},
		{"expired", signClaims(t, "secret", validClaims(time.Now().Add(-time.Hour))), "secret"},
		{"missing exp", signClaims(t, "secret", noExp), "secret"},
		{"bad sub", signClaims(t, "secret", badSub), "secret"},
		{"garbage", "not.a.jwt", "secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.token, tt.secret)
			assert.Error(t, err)
		})
	}
}

func TestExtractClaims(t *testing.T) {
	token := signClaims(t, "secret", validClaims(time.Now().Add(time.Hour)))

	req := httptest.NewRequest("POST", "/internal/newsletter/dispatch", nil)
	_, err := ExtractClaims(req, "secret")
	assert.ErrorIs(t, err, ErrMissingBearerToken)

	req.Header.Set("Authorization", "Basic abc")
	_, err = ExtractClaims(req, "secret")
	assert.ErrorIs(t, err, ErrMissingBearerToken)

	req.Header.Set("Authorization", "Bearer "+token)
	claims, err := ExtractClaims(req, "secret")
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)
}
