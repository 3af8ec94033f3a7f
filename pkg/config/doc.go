// Package config fills configuration structs from environment variables.
//
// A .env file in the working directory is loaded once, before the first
// struct is parsed; variables already present in the environment win.
//
//	type Config struct {
//		Addr string `env:"HTTP_ADDR" envDefault:":8080"`
//	}
//
//	cfg, err := config.Load[Config]()
package config
