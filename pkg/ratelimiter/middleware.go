package ratelimiter

import (
	"net"
	"net/http"
	"strconv"

	"github.com/folioworks/folio/handler"
)

// KeyFunc extracts the bucket key from a request. An empty key bypasses the limiter.
type KeyFunc func(r *http.Request) string

// ByIP keys on the host part of RemoteAddr. Put chi's RealIP in front when
// running behind a proxy.
func ByIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// WithPrefix namespaces keys so several limiters can share one KeyFunc.
func WithPrefix(prefix string, fn KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		key := fn(r)
		if key == "" {
			return ""
		}
		return prefix + ":" + key
	}
}

// Middleware rejects requests over the limit with 429 and a Retry-After header.
func Middleware(l *Limiter, keyFn KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFn(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			res := l.Allow(key)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

			if !res.Allowed {
				secs := int(res.RetryAfter.Seconds())
				if res.RetryAfter%1e9 != 0 {
					secs++
				}
				w.Header().Set("Retry-After", strconv.Itoa(max(1, secs)))
				_ = handler.JSONError(handler.ErrTooManyRequests).Render(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
