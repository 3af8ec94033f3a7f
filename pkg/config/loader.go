package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var dotenvOnce sync.Once

// Option adjusts how variables are read.
type Option func(*env.Options)

// WithPrefix prepends prefix to every variable name of the struct.
func WithPrefix(prefix string) Option {
	return func(o *env.Options) {
		o.Prefix = prefix
	}
}

// WithEnvironment parses from the given map instead of the process
// environment. The .env file is not consulted.
func WithEnvironment(vars map[string]string) Option {
	return func(o *env.Options) {
		o.Environment = vars
	}
}

// Load parses a T from the environment.
func Load[T any](opts ...Option) (T, error) {
	var o env.Options
	for _, opt := range opts {
		opt(&o)
	}
	if o.Environment == nil {
		dotenvOnce.Do(func() {
			// A missing .env file is the normal case outside development.
			_ = godotenv.Load()
		})
	}

	var cfg T
	if err := env.ParseWithOptions(&cfg, o); err != nil {
		return cfg, errors.Join(ErrParsingConfig, err)
	}
	return cfg, nil
}

// MustLoad is Load for values the process cannot start without.
func MustLoad[T any](opts ...Option) T {
	cfg, err := Load[T](opts...)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}
