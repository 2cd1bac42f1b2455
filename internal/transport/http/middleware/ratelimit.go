package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"cityhr/internal/transport/http/api"
)

type RateLimitKeyFunc func(r *http.Request) string

// RateLimit allows limit requests per window and per caller. Authenticated
// callers are keyed by user, anonymous ones by client address.
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return newRateLimit(limit, window, actorOrIPKey)
}

// LoginRateLimit is the stricter per-address limit for credential checks.
func LoginRateLimit(perMinute int) func(http.Handler) http.Handler {
	return newRateLimit(max(perMinute/10, 5), time.Minute, clientIPKey)
}

func newRateLimit(limit int, window time.Duration, keyFn RateLimitKeyFunc) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	instance := limiter.New(memory.NewStore(), limiter.Rate{Period: window, Limit: int64(limit)})
	mw := stdlib.NewMiddleware(instance,
		stdlib.WithKeyGetter(keyFn),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", retryAfter(w.Header().Get("X-RateLimit-Reset")))
			slog.Warn("rate limit exceeded",
				"key", keyFn(r),
				"path", r.URL.Path,
				"method", r.Method,
				"limit", limit,
				"windowSec", int(window.Seconds()),
			)
			api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Error("rate limiter failed", "err", err, "path", r.URL.Path)
			api.Fail(w, http.StatusInternalServerError, "rate_limit_error", "rate limiter failed", GetRequestID(r.Context()))
		}),
	)
	return mw.Handler
}

// retryAfter converts the unix reset header into whole seconds from now.
func retryAfter(reset string) string {
	unix, err := strconv.ParseInt(reset, 10, 64)
	if err != nil {
		return "1"
	}
	return strconv.FormatInt(max(unix-time.Now().Unix(), 1), 10)
}

func actorOrIPKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
		return "user:" + user.UserID
	}
	return clientIPKey(r)
}

func clientIPKey(r *http.Request) string {
	return "ip:" + ClientIP(r)
}

// ClientIP returns the first X-Forwarded-For entry, or the remote host.
func ClientIP(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		if value := strings.TrimSpace(strings.Split(fwd, ",")[0]); value != "" {
			return value
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
