package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/mcoot/coursehub/internal/api/apierr"
	"github.com/mcoot/coursehub/internal/ratelimit"
)

// RateLimit rejects callers that exceed cfg within its window, keyed by client IP and route.
// metrics may be nil.
func RateLimit(limiter ratelimit.Limiter, cfg ratelimit.Config, metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || cfg.Limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			route := RouteName(r)
			decision := limiter.Allow(r.Context(), clientKey(r)+":"+route, cfg.Limit, cfg.Window)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining()))
			if !decision.ResetAt.IsZero() {
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
			}

			if !decision.Allowed {
				retryAfter := int(time.Until(decision.ResetAt).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				if metrics != nil {
					metrics.RateLimited(route)
				}
				apierr.WriteError(w, apierr.NewRateLimitedError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		host = "unknown"
	}
	return "ip:" + host
}
