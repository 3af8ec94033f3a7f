package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/folioworks/folio/modules/account"
	"github.com/folioworks/folio/pkg/auth"
	"github.com/folioworks/folio/pkg/config"
	"github.com/folioworks/folio/pkg/httpserver"
	"github.com/folioworks/folio/pkg/jwt"
	"github.com/folioworks/folio/pkg/metrics"
	"github.com/folioworks/folio/pkg/pg"
	"github.com/folioworks/folio/pkg/redis"
)

var errMemoryInProduction = errors.New("--memory cannot be used in production")

func newServeCmd(a *app) *cobra.Command {
	var memory bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if memory && a.env.IsProduction() {
				return errMemoryInProduction
			}
			return serve(cmd.Context(), a, memory)
		},
	}
	cmd.Flags().BoolVar(&memory, "memory", false, "keep identities and OAuth state in process memory")
	return cmd
}

// backend is where identities and OAuth state live.
type backend struct {
	storage  auth.IdentityStorage
	states   auth.StateStore
	checks   map[string]httpserver.Check
	cleanups []func(context.Context) error
}

func serve(ctx context.Context, a *app, memory bool) error {
	tokenCfg, err := config.Load[auth.TokenConfig]()
	if err != nil {
		return err
	}
	httpCfg, err := config.Load[httpserver.Config]()
	if err != nil {
		return err
	}
	accountCfg, err := config.Load[account.Config]()
	if err != nil {
		return err
	}

	codec, err := jwt.NewFromString(tokenCfg.Secret, jwt.WithIssuer(tokenCfg.Issuer))
	if err != nil {
		return err
	}

	var b *backend
	if memory {
		a.log.WarnContext(ctx, "using in-memory storage, data is lost on exit")
		b = memoryBackend()
	} else {
		b, err = persistentBackend(ctx)
		if err != nil {
			return err
		}
	}

	reg := metrics.New()
	svc := auth.NewService(b.storage, codec,
		auth.WithLogger(a.log),
		auth.WithMetrics(reg),
		auth.WithAccessTTL(tokenCfg.AccessTTL),
		auth.WithRefreshTTL(tokenCfg.RefreshTTL),
		auth.WithVerifiedMerge(a.cfg.VerifiedMerge),
	)

	adapters, err := providerAdapters()
	if err != nil {
		return err
	}
	var flow *auth.OAuthFlow
	if len(adapters) > 0 {
		providers := auth.NewProviders(adapters...)
		flow = auth.NewOAuthFlow(svc, providers, b.states,
			auth.WithStateTTL(a.cfg.StateTTL),
			auth.WithFlowLogger(a.log),
		)
		a.log.InfoContext(ctx, "oauth providers enabled", slog.Any("providers", providers.Names()))
	}

	module, err := account.New(account.RouterOptions{
		Config:       accountCfg,
		Service:      svc,
		OAuth:        flow,
		Logger:       a.log,
		Metrics:      reg,
		HealthChecks: b.checks,
	})
	if err != nil {
		return err
	}

	opts := []httpserver.Option{
		httpserver.WithLogger(a.log),
		httpserver.WithCleanup(func(context.Context) error {
			module.Close()
			return nil
		}),
	}
	for _, fn := range b.cleanups {
		opts = append(opts, httpserver.WithCleanup(fn))
	}

	return httpserver.New(httpCfg, opts...).Run(ctx, module)
}

func memoryBackend() *backend {
	states := auth.NewMemoryStateStore()
	return &backend{
		storage: auth.NewMemoryStorage(),
		states:  states,
		cleanups: []func(context.Context) error{func(context.Context) error {
			states.Close()
			return nil
		}},
	}
}

func persistentBackend(ctx context.Context) (*backend, error) {
	pgCfg, err := config.Load[pg.Config]()
	if err != nil {
		return nil, err
	}
	redisCfg, err := config.Load[redis.Config]()
	if err != nil {
		return nil, err
	}

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return nil, err
	}
	client, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		pool.Close()
		return nil, err
	}
	db := pg.OpenDB(pool)

	return &backend{
		storage: account.NewStorage(db),
		states:  auth.NewRedisStateStore(client),
		checks: map[string]httpserver.Check{
			"postgres": pg.Healthcheck(pool),
			"redis":    redis.Healthcheck(client),
		},
		cleanups: []func(context.Context) error{
			func(context.Context) error { return db.Close() },
			func(context.Context) error {
				pool.Close()
				return nil
			},
			func(context.Context) error { return client.Close() },
		},
	}, nil
}

// providerAdapters returns an adapter for every provider with a client id configured.
func providerAdapters() ([]auth.ProviderAdapter, error) {
	google, err := config.Load[auth.GoogleOAuthConfig]()
	if err != nil {
		return nil, err
	}
	github, err := config.Load[auth.GitHubOAuthConfig]()
	if err != nil {
		return nil, err
	}
	twitter, err := config.Load[auth.TwitterOAuthConfig]()
	if err != nil {
		return nil, err
	}

	var adapters []auth.ProviderAdapter
	if google.Enabled() {
		adapters = append(adapters, auth.NewGoogleAdapter(google))
	}
	if github.Enabled() {
		adapters = append(adapters, auth.NewGitHubAdapter(github))
	}
	if twitter.Enabled() {
		adapters = append(adapters, auth.NewTwitterAdapter(twitter))
	}
	return adapters, nil
}
