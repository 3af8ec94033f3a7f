package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/folioworks/folio/pkg/jwt"
	"github.com/folioworks/folio/pkg/logger"
)

// Rejection messages written by Middleware.
const (
	MsgNoToken       = "No token provided"
	MsgInvalidFormat = "Invalid token format"
	MsgTokenExpired  = "Token expired"
	MsgInvalidToken  = "Invalid token"
	MsgUserNotFound  = "User not found"
	MsgForbidden     = "Forbidden"
	MsgInternal      = "Internal server error"
)

// SessionValidator is the part of Service the middleware needs.
type SessionValidator interface {
	ValidateSessionDetailed(ctx context.Context, accessToken string) (*PublicIdentity, error)
}

// ErrorResponder writes a rejection. status is 401, 403 or 500.
type ErrorResponder func(w http.ResponseWriter, r *http.Request, status int, message string)

type middlewareConfig struct {
	extract jwt.TokenExtractorFunc
	respond ErrorResponder
	logger  *slog.Logger
}

// MiddlewareOption configures Middleware and RequireSelf.
type MiddlewareOption func(*middlewareConfig)

func WithErrorResponder(fn ErrorResponder) MiddlewareOption {
	return func(c *middlewareConfig) {
		if fn != nil {
			c.respond = fn
		}
	}
}

// WithTokenExtractor replaces the default bearer header extractor.
func WithTokenExtractor(fn jwt.TokenExtractorFunc) MiddlewareOption {
	return func(c *middlewareConfig) {
		if fn != nil {
			c.extract = fn
		}
	}
}

func WithMiddlewareLogger(l *slog.Logger) MiddlewareOption {
	return func(c *middlewareConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

func newMiddlewareConfig(opts []MiddlewareOption) *middlewareConfig {
	cfg := &middlewareConfig{
		extract: jwt.BearerTokenExtractor,
		respond: writeJSONError,
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Middleware admits requests carrying a valid access token and stores the
// identity in the request context. It never retries and never writes to
// storage.
func Middleware(svc SessionValidator, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := newMiddlewareConfig(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := cfg.extract(r)
			if err != nil {
				if errors.Is(err, jwt.ErrNoToken) {
					cfg.respond(w, r, http.StatusUnauthorized, MsgNoToken)
				} else {
					cfg.respond(w, r, http.StatusUnauthorized, MsgInvalidFormat)
				}
				return
			}

			identity, err := svc.ValidateSessionDetailed(r.Context(), token)
			if err != nil {
				status, msg := rejection(err)
				if status == http.StatusInternalServerError {
					cfg.logger.ErrorContext(r.Context(), "session validation failed",
						logger.Component("auth"),
						logger.Error(err),
					)
				}
				cfg.respond(w, r, status, msg)
				return
			}
			if identity == nil {
				cfg.respond(w, r, http.StatusUnauthorized, MsgUserNotFound)
				return
			}

			ctx := SetIdentityToContext(r.Context(), identity)
			ctx = jwt.SetToken(ctx, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func rejection(err error) (int, string) {
	switch {
	case errors.Is(err, ErrExpiredToken):
		return http.StatusUnauthorized, MsgTokenExpired
	case errors.Is(err, ErrMalformedToken), errors.Is(err, ErrWrongTokenClass):
		return http.StatusUnauthorized, MsgInvalidToken
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusUnauthorized, MsgUserNotFound
	default:
		return http.StatusInternalServerError, MsgInternal
	}
}

// RequireSelf allows the request only when param(r) equals the id of the
// authenticated identity. It must run after Middleware.
func RequireSelf(param func(*http.Request) string, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := newMiddlewareConfig(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFromContext(r.Context())
			if identity == nil {
				cfg.respond(w, r, http.StatusUnauthorized, MsgNoToken)
				return
			}
			if param(r) != identity.ID.String() {
				cfg.respond(w, r, http.StatusForbidden, MsgForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeJSONError(w http.ResponseWriter, _ *http.Request, status int, message string) {
	var body errorBody
	body.Error.Message = message
	switch status {
	case http.StatusUnauthorized:
		body.Error.Code = "unauthorized"
	case http.StatusForbidden:
		body.Error.Code = "forbidden"
	default:
		body.Error.Code = "internal_error"
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
