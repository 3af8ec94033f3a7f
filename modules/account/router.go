package account

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/folioworks/folio/handler"
	"github.com/folioworks/folio/pkg/auth"
	"github.com/folioworks/folio/pkg/binder"
	"github.com/folioworks/folio/pkg/httpserver"
	"github.com/folioworks/folio/pkg/logger"
	"github.com/folioworks/folio/pkg/metrics"
	"github.com/folioworks/folio/pkg/ratelimiter"
	"github.com/folioworks/folio/pkg/requestid"
)

// RouterOptions wires the account module. Service is required; the rest is optional.
type RouterOptions struct {
	Config  Config
	Service *auth.Service
	// OAuth enables /auth/{provider}/login and /auth/{provider}/callback.
	OAuth   *auth.OAuthFlow
	Logger  *slog.Logger
	Metrics *metrics.Registry
	// HealthChecks back GET /healthz, keyed by dependency name.
	HealthChecks map[string]httpserver.Check
}

// Module is the HTTP surface of the auth subsystem.
type Module struct {
	router   chi.Router
	limiters []*ratelimiter.Limiter
}

// New builds the router:
//
//	POST /auth/login
//	POST /auth/signup
//	POST /auth/refresh
//	GET  /auth/validate            (bearer)
//	PUT  /auth/social-links        (bearer)
//	POST /auth/{id}/logout         (bearer, self only)
//	GET  /auth/{provider}/login
//	GET  /auth/{provider}/callback
//	GET  /healthz
//	GET  /metrics
func New(opts RouterOptions) (*Module, error) {
	if opts.Service == nil {
		return nil, errors.New("account: auth service is required")
	}
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	log = log.With(logger.Component("account"))

	loginLimiter, err := ratelimiter.New(opts.Config.LoginRateLimit)
	if err != nil {
		return nil, errors.Join(errors.New("account: login rate limit"), err)
	}
	signupLimiter, err := ratelimiter.New(opts.Config.SignupRateLimit)
	if err != nil {
		loginLimiter.Close()
		return nil, errors.Join(errors.New("account: signup rate limit"), err)
	}

	h := &handlers{cfg: opts.Config, svc: opts.Service, oauth: opts.OAuth, log: log}
	errorHandler := handler.NewErrorHandler(log)

	r := chi.NewRouter()
	r.Use(
		requestid.Middleware,
		middleware.RealIP,
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins:   opts.Config.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", requestid.Header},
			ExposedHeaders:   []string{requestid.Header, "Retry-After"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Instrument)
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}
	r.Get("/healthz", httpserver.HealthHandler(log, 2*time.Second, opts.HealthChecks))

	authMW := auth.Middleware(opts.Service, auth.WithMiddlewareLogger(log))
	selfOnly := auth.RequireSelf(func(r *http.Request) string { return binder.ChiParam(r, "id") })
	jsonBody := binder.JSON()
	providerParam := binder.Path(binder.ChiParam)

	r.Route("/auth", func(r chi.Router) {
		r.With(ratelimiter.Middleware(loginLimiter, ratelimiter.WithPrefix("login", ratelimiter.ByIP))).
			Post("/login", handler.Wrap(h.login,
				handler.WithBinders[handler.Context, LoginRequest](jsonBody),
				handler.WithErrorHandler[handler.Context, LoginRequest](errorHandler),
			))
		r.With(ratelimiter.Middleware(signupLimiter, ratelimiter.WithPrefix("signup", ratelimiter.ByIP))).
			Post("/signup", handler.Wrap(h.signup,
				handler.WithBinders[handler.Context, SignupRequest](jsonBody),
				handler.WithErrorHandler[handler.Context, SignupRequest](errorHandler),
			))
		r.Post("/refresh", handler.Wrap(h.refresh,
			handler.WithBinders[handler.Context, RefreshRequest](jsonBody),
			handler.WithErrorHandler[handler.Context, RefreshRequest](errorHandler),
		))

		r.Group(func(r chi.Router) {
			r.Use(authMW)
			r.Get("/validate", handler.Wrap(h.validate,
				handler.WithErrorHandler[handler.Context, struct{}](errorHandler),
			))
			r.Put("/social-links", handler.Wrap(h.updateSocialLinks,
				handler.WithBinders[handler.Context, SocialLinks](jsonBody),
				handler.WithErrorHandler[handler.Context, SocialLinks](errorHandler),
			))
			r.With(selfOnly).Post("/{id}/logout", handler.Wrap(h.logout,
				handler.WithErrorHandler[handler.Context, struct{}](errorHandler),
			))
		})

		if opts.OAuth != nil {
			r.Get("/{provider}/login", handler.Wrap(h.oauthLogin,
				handler.WithBinders[handler.Context, ProviderRequest](providerParam),
				handler.WithErrorHandler[handler.Context, ProviderRequest](errorHandler),
			))
			r.Get("/{provider}/callback", handler.Wrap(h.oauthCallback,
				handler.WithBinders[handler.Context, ProviderRequest](providerParam),
				handler.WithErrorHandler[handler.Context, ProviderRequest](errorHandler),
			))
		}
	})

	return &Module{router: r, limiters: []*ratelimiter.Limiter{loginLimiter, signupLimiter}}, nil
}

func (m *Module) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.router.ServeHTTP(w, r)
}

// Close stops the rate limiter janitors.
func (m *Module) Close() {
	for _, l := range m.limiters {
		l.Close()
	}
}
