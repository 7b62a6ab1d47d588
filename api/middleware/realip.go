package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/MonkyMars/gecho"
)

// RealIP rewrites RemoteAddr from X-Forwarded-For / X-Real-IP, but only when the
// connection comes from a configured proxy. Anyone else could pick their own
// address and with it a fresh rate limit bucket.
func (mw *Middleware) RealIP() func(http.Handler) http.Handler {
	trusted := parseTrustedProxies(mw.cfg.Server.TrustedProxies, mw.logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(trusted) > 0 && isTrusted(trusted, remoteAddr(r.RemoteAddr)) {
				if ip := forwardedClientIP(r, trusted); ip.IsValid() {
					r.RemoteAddr = ip.String()
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func parseTrustedProxies(entries []string, logger *gecho.Logger) []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(entry); err == nil {
			addr = addr.Unmap()
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		logger.Warn("Ignoring invalid trusted proxy entry", gecho.Field("entry", entry))
	}
	return prefixes
}

func remoteAddr(addr string) netip.Addr {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = strings.Trim(addr, "[]")
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}
	}
	return ip.Unmap()
}

func isTrusted(trusted []netip.Prefix, ip netip.Addr) bool {
	if !ip.IsValid() {
		return false
	}
	for _, prefix := range trusted {
		if prefix.Contains(ip) {
			return true
		}
	}
	return false
}

// forwardedClientIP walks X-Forwarded-For from the right and returns the first hop
// that is not one of our proxies. Entries left of it are client supplied.
func forwardedClientIP(r *http.Request, trusted []netip.Prefix) netip.Addr {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			ip, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				return netip.Addr{}
			}
			ip = ip.Unmap()
			if !isTrusted(trusted, ip) {
				return ip
			}
		}
		return netip.Addr{}
	}

	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		if ip, err := netip.ParseAddr(strings.TrimSpace(xrip)); err == nil {
			return ip.Unmap()
		}
	}
	return netip.Addr{}
}
