// Package pg connects to PostgreSQL through pgx, runs goose migrations from
// an embedded filesystem and classifies driver errors.
//
//	pool, err := pg.Connect(ctx, cfg)
//	db := pg.OpenDB(pool)
//	err = pg.Migrate(ctx, db, migrations.FS, cfg, pg.Up, log)
package pg
