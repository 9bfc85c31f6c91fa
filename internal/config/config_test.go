package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"PORT", "LOG_LEVEL", "LOG_FORMAT",
	"RATES_SOURCE_URLS", "RATES_FETCH_TIMEOUT", "RATES_REFRESH_INTERVAL", "RATES_STALE_AFTER",
	"MAX_CONCURRENT_REQUESTS", "DISPLAY_CURRENCIES",
	"RATE_LIMIT_ENABLED", "RATE_LIMIT_REQUESTS", "RATE_LIMIT_WINDOW", "RATE_LIMIT_BURST",
}

// clearConfigEnv blanks every key so values from the host do not leak in
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		expected func(t *testing.T, cfg *Config)
	}{
		{
			name:    "default configuration",
			envVars: map[string]string{},
			expected: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "8081", cfg.Port)
				assert.Equal(t, "info", cfg.LogLevel)
				assert.Equal(t, "json", cfg.LogFormat)
				assert.Equal(t, []string{"http://localhost:3000/api/exchange-rates"}, cfg.RatesSourceURLs)
				assert.Equal(t, 10*time.Second, cfg.RatesFetchTimeout)
				assert.Zero(t, cfg.RatesRefreshInterval)
				assert.Equal(t, 24*time.Hour, cfg.RatesStaleAfter)
				assert.Equal(t, 4, cfg.MaxConcurrentRequests)
				assert.Equal(t, []string{"GYD", "USD", "EUR", "GBP", "CAD"}, cfg.DisplayCurrencies)
				assert.True(t, cfg.RateLimitEnabled)
				assert.Equal(t, 100, cfg.RateLimitRequests)
				assert.Equal(t, 60*time.Second, cfg.RateLimitWindow)
				assert.Equal(t, 10, cfg.RateLimitBurst)
			},
		},
		{
			name: "custom configuration",
			envVars: map[string]string{
				"PORT":                    "9090",
				"LOG_LEVEL":               "debug",
				"RATES_SOURCE_URLS":       "http://a.example/rates, ,http://b.example/rates",
				"RATES_FETCH_TIMEOUT":     "3s",
				"RATES_REFRESH_INTERVAL":  "15m",
				"RATES_STALE_AFTER":       "2h",
				"MAX_CONCURRENT_REQUESTS": "8",
				"DISPLAY_CURRENCIES":      "gyd, usd",
				"RATE_LIMIT_ENABLED":      "false",
				"RATE_LIMIT_REQUESTS":     "200",
				"RATE_LIMIT_WINDOW":       "2m",
				"RATE_LIMIT_BURST":        "20",
			},
			expected: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "9090", cfg.Port)
				assert.Equal(t, "debug", cfg.LogLevel)
				assert.Equal(t, []string{"http://a.example/rates", "http://b.example/rates"}, cfg.RatesSourceURLs)
				assert.Equal(t, 3*time.Second, cfg.RatesFetchTimeout)
				assert.Equal(t, 15*time.Minute, cfg.RatesRefreshInterval)
				assert.Equal(t, 2*time.Hour, cfg.RatesStaleAfter)
				assert.Equal(t, 8, cfg.MaxConcurrentRequests)
				assert.Equal(t, []string{"GYD", "USD"}, cfg.DisplayCurrencies)
				assert.False(t, cfg.RateLimitEnabled)
				assert.Equal(t, 200, cfg.RateLimitRequests)
				assert.Equal(t, 2*time.Minute, cfg.RateLimitWindow)
				assert.Equal(t, 20, cfg.RateLimitBurst)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			cfg, err := Load()
			require.NoError(t, err)
			tt.expected(t, cfg)
		})
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
	}{
		{name: "unparseable duration", envVars: map[string]string{"RATES_FETCH_TIMEOUT": "soon"}},
		{name: "zero fetch timeout", envVars: map[string]string{"RATES_FETCH_TIMEOUT": "0s"}},
		{name: "negative refresh interval", envVars: map[string]string{"RATES_REFRESH_INTERVAL": "-1m"}},
		{name: "zero burst with rate limiting", envVars: map[string]string{"RATE_LIMIT_BURST": "0"}},
		{name: "not a number", envVars: map[string]string{"MAX_CONCURRENT_REQUESTS": "many"}},
		{name: "unsupported display currency", envVars: map[string]string{"DISPLAY_CURRENCIES": "GYD,XYZ"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_DisplayCurrenciesNormalized(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("DISPLAY_CURRENCIES", " gyd , usd ,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"GYD", "USD"}, cfg.DisplayCurrencies)
}

func TestValidate_RateLimitDisabledSkipsLimits(t *testing.T) {
	cfg := &Config{
		Port:              "8081",
		RatesFetchTimeout: time.Second,
		RateLimitEnabled:  false,
	}
	assert.NoError(t, cfg.Validate())
}
