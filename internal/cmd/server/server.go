// Package server parses fairdraw server flags and launches the service.
package server

import (
	"context"
	"flag"

	"github.com/fairdraw/fairdraw/internal/app/server"
	entrypoint "github.com/fairdraw/fairdraw/internal/platform/cmd"
)

// Config holds server command configuration.
type Config struct {
	Port int `env:"FAIRDRAW_PORT" envDefault:"8080"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The HTTP server port")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the fairdraw HTTP API service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceServer, func(context.Context) error {
		return server.Run(ctx, cfg.Port)
	})
}
