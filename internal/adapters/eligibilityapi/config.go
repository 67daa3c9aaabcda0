package eligibilityapi

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is read from the process environment. Values set through the CLI
// config file or flags are applied on top by the caller.
type Config struct {
	BaseURL           string        `env:"ELIG_API_BASE_URL"`
	APIKey            string        `env:"ELIG_API_KEY"`
	RequestsPerSecond float64       `env:"ELIG_API_REQUESTS_PER_SECOND" envDefault:"10"`
	Burst             int           `env:"ELIG_API_BURST" envDefault:"5"`
	RequestTimeout    time.Duration `env:"ELIG_API_REQUEST_TIMEOUT" envDefault:"30s"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
