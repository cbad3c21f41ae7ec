package config

import (
	"fmt"
	"os"
	"strings"

	cverrors "cvereporter/internal/errors"
	"cvereporter/internal/vuln"
)

var storeTypes = map[string]bool{
	"file": true, "json": true,
	"sqlite": true, "sqlite3": true,
	"postgres": true, "postgresql": true,
	"redis": true,
}

// ValidateConfig validates configuration values and returns an error if any are invalid.
// This function should be called after Load.
func ValidateConfig() error {
	return Validate(Get())
}

// Validate checks c and reports every problem at once.
func Validate(c Config) error {
	var errors []string

	if c.Interval <= 0 {
		errors = append(errors, fmt.Sprintf("interval must be positive, got: %v", c.Interval))
	}
	if c.FeedTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("feed.timeout must be positive, got: %v", c.FeedTimeout))
	}
	if c.FeedLimit < 1 || c.FeedLimit > vuln.MaxLimit {
		errors = append(errors, fmt.Sprintf("feed.limit must be between 1 and %d, got: %d", vuln.MaxLimit, c.FeedLimit))
	}
	if c.FeedRetries < 0 {
		errors = append(errors, fmt.Sprintf("feed.retries must not be negative, got: %d", c.FeedRetries))
	}
	if c.FeedURL == "" {
		errors = append(errors, "feed.url is required")
	}
	if c.KeywordsFile == "" {
		errors = append(errors, "keywords_file is required")
	}

	switch {
	case !storeTypes[c.StoreType]:
		errors = append(errors, fmt.Sprintf("store.type must be one of file, sqlite, postgres, redis, got: %q", c.StoreType))
	case strings.HasPrefix(c.StoreType, "sqlite") && c.StorePath == "":
		errors = append(errors, "store.path is required for the sqlite store")
	case strings.HasPrefix(c.StoreType, "postgres") && c.StoreDSN == "":
		errors = append(errors, "store.dsn is required for the postgres store")
	case c.StoreType == "redis" && c.Redis.Address == "":
		errors = append(errors, "redis.address is required for the redis store")
	}

	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		errors = append(errors, fmt.Sprintf("metrics_port must be between 0 and 65535, got: %d", c.MetricsPort))
	}

	if len(errors) > 0 {
		return cverrors.NewConfigurationError("config", "validation failed:\n  "+strings.Join(errors, "\n  "), nil)
	}

	return nil
}

// ValidateAndExit validates the configuration and exits with a non-zero code if validation fails.
func ValidateAndExit() {
	if err := ValidateConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
