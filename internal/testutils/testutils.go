package testutils

import (
	"context"
	"time"

	"github.com/dalfonso89/marketplace-currency-service/internal/config"
	"github.com/dalfonso89/marketplace-currency-service/internal/logger"

	"github.com/sirupsen/logrus"
)

// MockLogger creates a quiet logger for testing
func MockLogger() *logrus.Logger {
	return logger.Discard()
}

// MockConfig creates a mock configuration for testing
func MockConfig() *config.Config {
	return &config.Config{
		Port:      "8081",
		LogLevel:  "error",
		LogFormat: "json",

		RatesSourceURLs:       []string{"http://127.0.0.1:0/api/exchange-rates"},
		RatesFetchTimeout:     2 * time.Second,
		RatesRefreshInterval:  0,
		RatesStaleAfter:       0,
		MaxConcurrentRequests: 4,

		DisplayCurrencies: []string{"GYD", "USD", "EUR", "GBP", "CAD"},

		RateLimitEnabled:  true,
		RateLimitRequests: 100,
		RateLimitWindow:   60 * time.Second,
		RateLimitBurst:    10,
	}
}

// MockConfigWithSources returns a test configuration pointing at the given rate sources
func MockConfigWithSources(sourceURLs ...string) *config.Config {
	configuration := MockConfig()
	configuration.RatesSourceURLs = sourceURLs
	configuration.RateLimitEnabled = false
	return configuration
}

// MockRates returns a complete table slightly different from the defaults
func MockRates() map[string]float64 {
	return map[string]float64{
		"USD": 1.0,
		"GYD": 209.5,
		"EUR": 0.91,
		"GBP": 0.78,
		"CAD": 1.37,
		"TTD": 6.8,
		"BBD": 2.0,
		"JMD": 157.2,
		"XCD": 2.7,
		"SRD": 35.9,
		"BRL": 5.1,
	}
}

// MockUpdatedAt is the timestamp mock servers report by default
func MockUpdatedAt() time.Time {
	return time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
}

// MockContextWithTimeout creates a context with timeout for testing
func MockContextWithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}
