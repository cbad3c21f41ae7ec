package db

import (
	"fmt"
	"strings"
)

// DefaultFilePath is where the file backend keeps state when no path is configured.
const DefaultFilePath = "output/record.json"

// StoreConfig holds configuration for the storage backend
type StoreConfig struct {
	Type             string // "file", "sqlite", "postgres" or "redis"
	ConnectionString string // File path for file/SQLite, DSN for Postgres
	Redis            RedisConfig
}

// NewStore creates a new Store instance based on the provided configuration
func NewStore(config StoreConfig) (Store, error) {
	switch strings.ToLower(config.Type) {
	case "", "file", "json":
		if config.ConnectionString == "" {
			config.ConnectionString = DefaultFilePath
		}
		return NewFileStore(config.ConnectionString), nil
	case "sqlite", "sqlite3":
		if config.ConnectionString == "" {
			return nil, fmt.Errorf("sqlite database path is required")
		}
		return NewSQLiteStore(config.ConnectionString)
	case "postgres", "postgresql":
		if config.ConnectionString == "" {
			return nil, fmt.Errorf("postgres connection string is required")
		}
		return NewPostgresStore(config.ConnectionString)
	case "redis":
		return NewRedisStore(config.Redis)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.Type)
	}
}
