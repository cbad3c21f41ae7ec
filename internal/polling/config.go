package polling

import "time"

// DefaultInterval is the time between cycle starts when none is configured.
const DefaultInterval = 5 * time.Minute

// Config holds the polling configuration
type Config struct {
	Interval   time.Duration
	RunOnStart bool
}

// NewConfig creates a polling configuration, falling back to the default
// interval for non-positive values.
func NewConfig(interval time.Duration, runOnStart bool) *Config {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Config{Interval: interval, RunOnStart: runOnStart}
}
