// Package errors defines the failure classes of a polling cycle.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ConfigurationError reports an invalid keyword policy or service setting.
// It is fatal at start-up.
type ConfigurationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid configuration %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// FetchError reports an unavailable upstream feed or a malformed response.
// It aborts only the current cycle.
type FetchError struct {
	Pass       string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s records failed (status %d): %v", e.Pass, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s records failed: %v", e.Pass, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Retryable reports whether the next scheduled cycle may succeed.
// Every fetch failure is retryable from the scheduler's point of view.
func (e *FetchError) Retryable() bool { return true }

// Transient reports whether an immediate retry inside the same cycle is worthwhile.
// Client errors (4xx other than 429) will not change on retry.
func (e *FetchError) Transient() bool {
	if e.StatusCode == 0 {
		return true
	}
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// PersistenceError reports a watermark read or write failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("watermark %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// DispatchError reports a notification that could not be delivered for one event.
type DispatchError struct {
	EventID string
	Channel string
	Err     error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s to %s failed: %v", e.EventID, e.Channel, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(field, reason string, err error) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: reason, Err: err}
}

// NewFetchError creates a new FetchError
func NewFetchError(pass string, statusCode int, err error) *FetchError {
	return &FetchError{Pass: pass, StatusCode: statusCode, Err: err}
}

// NewPersistenceError creates a new PersistenceError
func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

// NewDispatchError creates a new DispatchError
func NewDispatchError(eventID, channel string, err error) *DispatchError {
	return &DispatchError{EventID: eventID, Channel: channel, Err: err}
}

// IsTransient reports whether err is worth retrying immediately.
// Unknown errors are treated as transient, matching network failures.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Transient()
	}
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return false
	}
	return true
}

// IsRetryable reports whether a failed cycle may be retried on the next tick.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var cfgErr *ConfigurationError
	return !errors.As(err, &cfgErr)
}
