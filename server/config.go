package server

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is parsed from the environment; the serve command loads a .env
// file first so local runs need no exports.
type Config struct {
	Addr             string        `env:"DRONEWARS_ADDR" envDefault:":8080"`
	DatabasePath     string        `env:"DRONEWARS_DB" envDefault:"dronewars.db"`
	TokenSecret      string        `env:"DRONEWARS_TOKEN_SECRET" envDefault:"dev-secret-change-me"`
	TokenTTL         time.Duration `env:"DRONEWARS_TOKEN_TTL" envDefault:"168h"`
	InterceptTimeout time.Duration `env:"DRONEWARS_INTERCEPT_TIMEOUT" envDefault:"30s"`
	LogLevel         string        `env:"DRONEWARS_LOG_LEVEL" envDefault:"info"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config from env: %w", err)
	}
	return cfg, nil
}
