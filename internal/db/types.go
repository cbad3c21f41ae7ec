// Package db provides the key-value backends that hold the service's durable state.
package db

import "context"

// Store is a small key-value store. SetValues writes all pairs atomically:
// a reader sees either every new value or none of them.
type Store interface {
	Close() error
	// GetValues returns the stored values for keys. Missing keys are absent from the map.
	GetValues(ctx context.Context, keys ...string) (map[string]string, error)
	SetValues(ctx context.Context, values map[string]string) error
}
