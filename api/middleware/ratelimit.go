package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/MonkyMars/gecho"
)

// getRateLimitForEndpoint determines which rate limit to apply based on config
func (mw *Middleware) getRateLimitForEndpoint(path string) (int, time.Duration) {
	// Public newsletter endpoints accept bearer tokens, keep guessing expensive
	if strings.HasPrefix(path, "/unsubscribe") || strings.HasPrefix(path, "/resubscribe") {
		return mw.cfg.RateLimit.NewsletterLimit, mw.cfg.RateLimit.NewsletterWindow
	}

	// Default limit for everything else
	return mw.cfg.RateLimit.GeneralLimit, mw.cfg.RateLimit.GeneralWindow
}

// getClientIP extracts the client IP. RealIP has already replaced RemoteAddr when
// the request came through a trusted proxy.
func (mw *Middleware) getClientIP(r *http.Request) string {
	// Remove port if present
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}

	return strings.Trim(r.RemoteAddr, "[]")
}

// normalizeEndpoint groups dynamic routes so the key space stays bounded,
// e.g. /unsubscribe/<token> -> /unsubscribe/:token
func normalizeEndpoint(path string) string {
	normalized := strings.TrimSuffix(path, "/")

	if strings.HasPrefix(normalized, "/unsubscribe/") {
		return "/unsubscribe/:token"
	}

	return normalized
}

// RateLimitMiddleware implements fixed window rate limiting backed by the cache
func (mw *Middleware) RateLimitMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip if rate limiting is disabled
			if !mw.cfg.RateLimit.Enabled || mw.counter == nil {
				next.ServeHTTP(w, r)
				return
			}

			// Skip rate limiting for health check
			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/" || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			// Extract client IP
			clientIP := mw.getClientIP(r)

			// Get rate limit for this endpoint
			limit, window := mw.getRateLimitForEndpoint(r.URL.Path)

			endpoint := normalizeEndpoint(r.URL.Path)

			// Increment rate limit counter (synchronous call)
			count, err := mw.counter.IncrementRateLimit(r.Context(), clientIP, endpoint, window)
			if err != nil {
				// Cache error - log and allow request (fail open)
				mw.logger.Warn("Rate limit cache error, allowing request",
					gecho.Field("error", err),
					gecho.Field("ip", clientIP),
					gecho.Field("endpoint", endpoint),
				)
				next.ServeHTTP(w, r)
				return
			}

			// Check if limit exceeded
			if count > limit {
				mw.logger.Warn("Rate limit exceeded",
					gecho.Field("ip", clientIP),
					gecho.Field("endpoint", endpoint),
					gecho.Field("count", count),
					gecho.Field("limit", limit),
				)

				// Add rate limit headers
				w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(window).Unix()))
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))

				gecho.TooManyRequests(w,
					gecho.WithMessage("error.rateLimitExceeded"),
					gecho.WithData(map[string]any{
						"limit":       limit,
						"window":      window.String(),
						"retry_after": int(window.Seconds()),
					}),
					gecho.Send(),
				)
				return
			}

			// Add rate limit headers (informational)
			remaining := max(0, limit-count)
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(window).Unix()))

			// Log if getting close to limit (80% threshold)
			if count > int(float64(limit)*0.8) {
				mw.logger.Debug("Rate limit warning",
					gecho.Field("ip", clientIP),
					gecho.Field("endpoint", endpoint),
					gecho.Field("count", count),
					gecho.Field("limit", limit),
					gecho.Field("remaining", remaining),
				)
			}

			// Continue to next handler
			next.ServeHTTP(w, r)
		})
	}
}
