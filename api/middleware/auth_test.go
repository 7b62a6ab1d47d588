package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"newsletter_server/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdminHandler(t *testing.T) http.Handler {
	t.Helper()
	mw := NewMiddleware(testutil.NewTestConfig(), testutil.NewTestLogger(), nil)
	return mw.AdminAuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := GetClaimsFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, "admin@example.com", claims.Email)
		w.WriteHeader(http.StatusOK)
	}))
}

func TestAdminAuthMiddleware_Admin(t *testing.T) {
	token := testutil.GenerateToken(t, testutil.TestSecret, "admin@example.com", "admin", time.Hour)

	req := httptest.NewRequest("POST", "/internal/newsletter/dispatch", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	newAdminHandler(t).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminAuthMiddleware_NonAdmin(t *testing.T) {
	token := testutil.GenerateToken(t, testutil.TestSecret, "user@example.com", "user", time.Hour)

	req := httptest.NewRequest("POST", "/internal/newsletter/dispatch", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	newAdminHandler(t).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminAuthMiddleware_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong secret", "Bearer " + testutil.GenerateToken(t, "other", "admin@example.com", "admin", time.Hour)},
		{"expired", "Bearer " + testutil.GenerateToken(t, testutil.TestSecret, "admin@example.com", "admin", -time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/internal/newsletter/dispatch", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			newAdminHandler(t).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}
