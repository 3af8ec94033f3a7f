package requestid

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

// Header carries the request id in both directions.
const Header = "X-Request-ID"

const maxLength = 128

var allowed = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Option configures New.
type Option func(*options)

type options struct {
	header   string
	generate func() string
	trust    bool
}

// WithHeader overrides the header name.
func WithHeader(name string) Option {
	return func(o *options) {
		if name != "" {
			o.header = name
		}
	}
}

func WithGenerator(fn func() string) Option {
	return func(o *options) {
		if fn != nil {
			o.generate = fn
		}
	}
}

// WithoutIncoming ignores ids sent by the client. Use it when the service is
// reachable without a trusted proxy in front.
func WithoutIncoming() Option {
	return func(o *options) { o.trust = false }
}

// New returns middleware that reuses a well-formed incoming id or generates
// a UUIDv7, stores it in the request context and echoes it in the response.
func New(opts ...Option) func(http.Handler) http.Handler {
	o := options{
		header: Header,
		trust:  true,
		generate: func() string {
			if id, err := uuid.NewV7(); err == nil {
				return id.String()
			}
			return uuid.NewString()
		},
	}
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if o.trust {
				id = r.Header.Get(o.header)
			}
			if !valid(id) {
				id = o.generate()
			}
			w.Header().Set(o.header, id)
			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), id)))
		})
	}
}

// Middleware is New with defaults.
func Middleware(next http.Handler) http.Handler {
	return New()(next)
}

func valid(id string) bool {
	return id != "" && len(id) <= maxLength && allowed.MatchString(id)
}
