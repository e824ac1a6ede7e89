package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/nkiryanov/mediashare/internal/handlers/render"
)

type limiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

type warnLogger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Throttle requests per client address
// Limiter failures let the request through
func RateLimitMiddleware(l limiter, log warnLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			allowed, retryAfter, err := l.Allow(r.Context(), ip)
			switch {
			case err != nil:
				log.Error("rate limiter failed, request allowed", "ip", ip, "error", err.Error())
			case !allowed:
				log.Warn("request throttled", "ip", ip, "uri", r.RequestURI, "retry_after", retryAfter)

				seconds := int(math.Ceil(retryAfter.Seconds()))
				if seconds < 1 {
					seconds = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				render.ServiceError(w, "Too many requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Peer address without port. Forwarded headers are not trusted
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
