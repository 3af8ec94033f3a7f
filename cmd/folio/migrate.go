package main

import (
	"github.com/spf13/cobra"

	"github.com/folioworks/folio/modules/account"
	"github.com/folioworks/folio/pkg/config"
	"github.com/folioworks/folio/pkg/pg"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply or inspect database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(pg.Up), string(pg.Down), string(pg.Status)},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load[pg.Config]()
			if err != nil {
				return err
			}
			pool, err := pg.Connect(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			db := pg.OpenDB(pool)
			defer db.Close()

			return pg.Migrate(ctx, db, account.Migrations(), cfg, pg.Direction(args[0]), a.log)
		},
	}
}
