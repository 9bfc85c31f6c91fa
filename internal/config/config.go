package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalfonso89/marketplace-currency-service/internal/currency"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Port      string `env:"PORT" envDefault:"8081"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Rate sources are queried concurrently; the first complete table wins
	RatesSourceURLs       []string      `env:"RATES_SOURCE_URLS" envSeparator:"," envDefault:"http://localhost:3000/api/exchange-rates"`
	RatesFetchTimeout     time.Duration `env:"RATES_FETCH_TIMEOUT" envDefault:"10s"`
	RatesRefreshInterval  time.Duration `env:"RATES_REFRESH_INTERVAL" envDefault:"0s"`
	RatesStaleAfter       time.Duration `env:"RATES_STALE_AFTER" envDefault:"24h"`
	MaxConcurrentRequests int           `env:"MAX_CONCURRENT_REQUESTS" envDefault:"4"`

	DisplayCurrencies []string `env:"DISPLAY_CURRENCIES" envSeparator:"," envDefault:"GYD,USD,EUR,GBP,CAD"`

	// Rate limiting
	RateLimitEnabled  bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"100"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"60s"`
	RateLimitBurst    int           `env:"RATE_LIMIT_BURST" envDefault:"10"`
}

// Load loads configuration from the environment, reading .env first if present
func Load() (*Config, error) {
	_ = godotenv.Load()

	configuration := &Config{}
	if err := env.Parse(configuration); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	configuration.RatesSourceURLs = compact(configuration.RatesSourceURLs, false)
	configuration.DisplayCurrencies = compact(configuration.DisplayCurrencies, true)

	if err := configuration.Validate(); err != nil {
		return nil, err
	}
	return configuration, nil
}

// Validate rejects values the service cannot run with
func (configuration *Config) Validate() error {
	var problems []error
	if configuration.Port == "" {
		problems = append(problems, errors.New("PORT must not be empty"))
	}
	if configuration.RatesFetchTimeout <= 0 {
		problems = append(problems, errors.New("RATES_FETCH_TIMEOUT must be positive"))
	}
	if configuration.RatesRefreshInterval < 0 {
		problems = append(problems, errors.New("RATES_REFRESH_INTERVAL must not be negative"))
	}
	if configuration.RatesStaleAfter < 0 {
		problems = append(problems, errors.New("RATES_STALE_AFTER must not be negative"))
	}
	if configuration.MaxConcurrentRequests < 0 {
		problems = append(problems, errors.New("MAX_CONCURRENT_REQUESTS must not be negative"))
	}
	for _, code := range configuration.DisplayCurrencies {
		if !currency.IsSupported(code) {
			problems = append(problems, fmt.Errorf("DISPLAY_CURRENCIES contains unsupported currency %q", code))
		}
	}
	if configuration.RateLimitEnabled {
		if configuration.RateLimitRequests <= 0 || configuration.RateLimitBurst <= 0 || configuration.RateLimitWindow <= 0 {
			problems = append(problems, errors.New("rate limit requests, burst and window must be positive"))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(problems...))
	}
	return nil
}

// compact trims entries and drops empty ones
func compact(values []string, upper bool) []string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if upper {
			value = strings.ToUpper(value)
		}
		result = append(result, value)
	}
	return result
}
