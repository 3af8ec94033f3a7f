package main

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folioworks/folio/pkg/config"
	"github.com/folioworks/folio/pkg/jwt"
)

func run(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.Execute()
}

func TestServe_MemoryRefusedInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	assert.ErrorIs(t, run(t, "serve", "--memory"), errMemoryInProduction)
}

func TestServe_RequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("AUTH_JWT_SECRET", "")
	assert.ErrorIs(t, run(t, "serve", "--memory"), jwt.ErrMissingSigningKey)
}

func TestMigrate_Args(t *testing.T) {
	assert.Error(t, run(t, "migrate"))
	assert.Error(t, run(t, "migrate", "sideways"))
}

func TestAppConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load[appConfig](config.WithEnvironment(map[string]string{}))
	require.NoError(t, err)
	assert.True(t, cfg.VerifiedMerge)
	assert.Equal(t, "development", cfg.Env)

	cfg, err = config.Load[appConfig](config.WithEnvironment(map[string]string{"AUTH_OAUTH_VERIFIED_MERGE": "false"}))
	require.NoError(t, err)
	assert.False(t, cfg.VerifiedMerge)
}
