package main

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/folioworks/folio/pkg/config"
	"github.com/folioworks/folio/pkg/environment"
	"github.com/folioworks/folio/pkg/logger"
	"github.com/folioworks/folio/pkg/requestid"
)

type appConfig struct {
	Env     string `env:"APP_ENV" envDefault:"development"`
	Service string `env:"APP_NAME" envDefault:"folio"`

	// Merge OAuth logins into existing accounts only when the provider
	// vouches for the email address. Turning this off lets anyone who controls
	// a provider account with an unverified copy of an address take over the
	// matching password account.
	VerifiedMerge bool          `env:"AUTH_OAUTH_VERIFIED_MERGE" envDefault:"true"`
	StateTTL      time.Duration `env:"AUTH_OAUTH_STATE_TTL" envDefault:"10m"`
}

type app struct {
	cfg appConfig
	env environment.Environment
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "folio",
		Short:         "Folio creator authentication API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load[appConfig]()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.env = environment.Parse(cfg.Env)
			a.log = logger.New(
				logger.WithEnvironment(a.env, cfg.Service),
				logger.WithContextExtractors(requestid.LoggerExtractor()),
			)
			logger.SetAsDefault(a.log)
			return nil
		},
	}

	root.AddCommand(newServeCmd(a), newMigrateCmd(a))
	return root
}
