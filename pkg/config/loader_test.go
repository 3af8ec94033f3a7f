package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folioworks/folio/pkg/config"
)

type sampleConfig struct {
	Secret string        `env:"SECRET,required"`
	TTL    time.Duration `env:"TTL" envDefault:"15m"`
	Scopes []string      `env:"SCOPES" envSeparator:"," envDefault:"profile,email"`
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("defaults and values", func(t *testing.T) {
		t.Parallel()
		cfg, err := config.Load[sampleConfig](config.WithEnvironment(map[string]string{"SECRET": "s3cret"}))
		require.NoError(t, err)
		assert.Equal(t, "s3cret", cfg.Secret)
		assert.Equal(t, 15*time.Minute, cfg.TTL)
		assert.Equal(t, []string{"profile", "email"}, cfg.Scopes)
	})

	t.Run("prefix", func(t *testing.T) {
		t.Parallel()
		cfg, err := config.Load[sampleConfig](
			config.WithPrefix("AUTH_"),
			config.WithEnvironment(map[string]string{"AUTH_SECRET": "x", "AUTH_TTL": "1h"}),
		)
		require.NoError(t, err)
		assert.Equal(t, time.Hour, cfg.TTL)
	})

	t.Run("missing required", func(t *testing.T) {
		t.Parallel()
		_, err := config.Load[sampleConfig](config.WithEnvironment(map[string]string{}))
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Parallel()
		_, err := config.Load[sampleConfig](config.WithEnvironment(map[string]string{"SECRET": "x", "TTL": "soon"}))
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})
}

func TestMustLoad(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		config.MustLoad[sampleConfig](config.WithEnvironment(map[string]string{}))
	})
	assert.NotPanics(t, func() {
		config.MustLoad[sampleConfig](config.WithEnvironment(map[string]string{"SECRET": "x"}))
	})
}
