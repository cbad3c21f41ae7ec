// Package polling drives polling cycles on a fixed interval.
package polling

import (
	"context"
	"log/slog"
	"time"

	cverrors "cvereporter/internal/errors"
)

// CycleFunc runs one polling cycle.
type CycleFunc func(ctx context.Context) error

// Poller runs cycles one at a time from a ticker. A tick that arrives while a
// cycle is still running waits behind it; cycles never overlap.
type Poller struct {
	config *Config
	cycle  CycleFunc
	logger *slog.Logger
}

// NewPoller creates a new poller instance
func NewPoller(cfg *Config, cycle CycleFunc, logger *slog.Logger) *Poller {
	if cfg == nil {
		cfg = NewConfig(DefaultInterval, true)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{config: cfg, cycle: cycle, logger: logger}
}

// Start begins the polling process and blocks until ctx is cancelled.
// A cycle already in flight runs to completion before Start returns.
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting poller", "interval", p.config.Interval, "run_on_start", p.config.RunOnStart)

	if p.config.RunOnStart {
		p.runCycle(ctx)
	}

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Stopping poller")
			return
		case <-ticker.C:
			p.runCycle(ctx)
		}
	}
}

func (p *Poller) runCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	err := p.cycle(ctx)
	switch {
	case err == nil:
	case cverrors.IsRetryable(err):
		p.logger.Warn("Polling cycle failed, retrying on next tick", "error", err, "retryable", true)
	default:
		p.logger.Error("Polling cycle failed", "error", err, "retryable", false)
	}
}
