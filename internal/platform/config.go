package platform

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the admin-API connection settings, loaded from the
// Lambda environment.
type Config struct {
	BaseURL     string        `env:"PLATFORM_API_URL"`
	APIKey      string        `env:"PLATFORM_API_KEY"`
	Timeout     time.Duration `env:"PLATFORM_HTTP_TIMEOUT" envDefault:"120s"`
	EventBusARN string        `env:"CREDITS_EVENT_BUS"`
}

// LoadConfig parses the configuration from environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.BaseURL == "" {
		return Config{}, fmt.Errorf("PLATFORM_API_URL is required")
	}
	return cfg, nil
}
