package orchestrator

import (
	"context"
	"time"

	"cvereporter/internal/classify"
	"cvereporter/internal/vuln"
	"cvereporter/internal/watermark"
)

// Feed fetches records whose field falls near or after since.
type Feed interface {
	Fetch(ctx context.Context, field vuln.TimeField, since time.Time, limit int) ([]vuln.Record, error)
}

// Notifier delivers classified events and reports per-delivery failures.
type Notifier interface {
	Dispatch(ctx context.Context, events []classify.Event) []error
}

// WatermarkStore loads and saves the durable watermark.
type WatermarkStore interface {
	Load(ctx context.Context) watermark.Watermark
	Save(ctx context.Context, w watermark.Watermark) error
}

// Statically assert that the real implementations satisfy the interfaces.
var (
	_ Feed           = (*vuln.CirclClient)(nil)
	_ WatermarkStore = (*watermark.Store)(nil)
)
