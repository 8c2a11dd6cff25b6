package api

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/platefulapp/plateful-server/internal/http/response"
	"github.com/platefulapp/plateful-server/internal/ratelimit"
)

// RateLimiter guards the credential-handling auth routes, keyed by client IP.
type RateLimiter = ratelimit.KeyedRateLimiter

// NewRateLimiter converts a per-interval quota into the limiter's
// requests-per-second model, so config can say "20 per minute".
func NewRateLimiter(requests int, interval time.Duration, burst int) *RateLimiter {
	return ratelimit.New(float64(requests)/interval.Seconds(), burst)
}

// RateLimitMiddleware rejects requests over the per-IP budget with 429.
func RateLimitMiddleware(limiter *RateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !limiter.Allow(ip) {
				logger.Warn("Rate limit exceeded", "ip", ip, "path", r.URL.Path)
				response.TooManyRequests(w, "Too many requests. Please try again later.", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP resolves the originating address, preferring proxy headers over
// the socket peer.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// The first entry in the chain is the client.
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
