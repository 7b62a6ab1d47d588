package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"newsletter_server/testutil"

	"github.com/stretchr/testify/assert"
)

func newRealIPHandler(proxies []string, seen *string) http.Handler {
	cfg := testutil.NewTestConfig()
	cfg.Server.TrustedProxies = proxies

	mw := NewMiddleware(cfg, testutil.NewTestLogger(), nil)
	return mw.RealIP()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = mw.getClientIP(r)
		w.WriteHeader(http.StatusOK)
	}))
}

func TestRealIP(t *testing.T) {
	tests := []struct {
		name    string
		proxies []string
		remote  string
		xff     string
		xrip    string
		want    string
	}{
		{"no proxies configured ignores header", nil, "203.0.113.7:4000", "198.51.100.1", "", "203.0.113.7"},
		{"untrusted peer ignores header", []string{"10.0.0.0/8"}, "203.0.113.7:4000", "198.51.100.1", "", "203.0.113.7"},
		{"trusted proxy forwards client", []string{"10.0.0.0/8"}, "10.1.2.3:4000", "198.51.100.1", "", "198.51.100.1"},
		{"spoofed leftmost hop is skipped", []string{"10.0.0.0/8"}, "10.1.2.3:4000", "1.2.3.4, 198.51.100.1", "", "198.51.100.1"},
		{"chained proxies", []string{"10.0.0.0/8", "192.0.2.9"}, "10.1.2.3:4000", "198.51.100.1, 192.0.2.9", "", "198.51.100.1"},
		{"x-real-ip from trusted proxy", []string{"10.1.2.3"}, "10.1.2.3:4000", "", "198.51.100.5", "198.51.100.5"},
		{"malformed header keeps peer", []string{"10.0.0.0/8"}, "10.1.2.3:4000", "not-an-ip", "", "10.1.2.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := newRealIPHandler(tt.proxies, &seen)

			req := httptest.NewRequest("POST", "/unsubscribe", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xrip != "" {
				req.Header.Set("X-Real-IP", tt.xrip)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.want, seen)
		})
	}
}

func TestRealIP_ForgedHeaderSharesBucket(t *testing.T) {
	cfg := testutil.NewTestConfig()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.NewsletterLimit = 1
	cfg.RateLimit.NewsletterWindow = time.Minute

	mw := NewMiddleware(cfg, testutil.NewTestLogger(), &testutil.CountingLimiter{})
	handler := mw.RealIP()(mw.RateLimitMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	codes := make([]int, 0, 2)
	for _, forged := range []string{"198.51.100.1", "198.51.100.2"} {
		req := httptest.NewRequest("POST", "/resubscribe", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		req.Header.Set("X-Forwarded-For", forged)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}
