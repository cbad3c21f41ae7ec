package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Interval:     5 * time.Minute,
		KeywordsFile: "config/keywords.yaml",
		FeedURL:      "https://cve.circl.lu/api/query",
		FeedLimit:    100,
		FeedTimeout:  30 * time.Second,
		FeedRetries:  3,
		StoreType:    "file",
		MetricsPort:  2112,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantError bool
		errMsg    string
	}{
		{name: "Valid Configuration", mutate: func(c *Config) {}},
		{name: "Metrics Disabled", mutate: func(c *Config) { c.MetricsPort = 0 }},
		{name: "Zero Retries", mutate: func(c *Config) { c.FeedRetries = 0 }},
		{
			name:      "Invalid Interval",
			mutate:    func(c *Config) { c.Interval = 0 },
			wantError: true,
			errMsg:    "interval must be positive",
		},
		{
			name:      "Invalid Timeout",
			mutate:    func(c *Config) { c.FeedTimeout = -time.Second },
			wantError: true,
			errMsg:    "feed.timeout must be positive",
		},
		{
			name:      "Limit Too Large",
			mutate:    func(c *Config) { c.FeedLimit = 101 },
			wantError: true,
			errMsg:    "feed.limit must be between 1 and 100",
		},
		{
			name:      "Negative Retries",
			mutate:    func(c *Config) { c.FeedRetries = -1 },
			wantError: true,
			errMsg:    "feed.retries must not be negative",
		},
		{
			name:      "Unknown Store",
			mutate:    func(c *Config) { c.StoreType = "mongo" },
			wantError: true,
			errMsg:    "store.type must be one of",
		},
		{
			name:      "SQLite Without Path",
			mutate:    func(c *Config) { c.StoreType = "sqlite" },
			wantError: true,
			errMsg:    "store.path is required",
		},
		{
			name:      "Postgres Without DSN",
			mutate:    func(c *Config) { c.StoreType = "postgres" },
			wantError: true,
			errMsg:    "store.dsn is required",
		},
		{
			name:      "Redis Without Address",
			mutate:    func(c *Config) { c.StoreType = "redis" },
			wantError: true,
			errMsg:    "redis.address is required",
		},
		{
			name:      "Invalid Metrics Port",
			mutate:    func(c *Config) { c.MetricsPort = 70000 },
			wantError: true,
			errMsg:    "metrics_port must be between 0 and 65535",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := Validate(cfg)
			if !tt.wantError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Interval = 0
	cfg.FeedLimit = 0

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interval must be positive")
	assert.Contains(t, err.Error(), "feed.limit must be between")
}
