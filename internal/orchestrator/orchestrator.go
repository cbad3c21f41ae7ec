// Package orchestrator runs one polling cycle: load the watermark, fetch and
// classify both passes, dispatch qualifying events and persist the new watermark.
package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"cvereporter/internal/classify"
	"cvereporter/internal/filtering"
	"cvereporter/internal/metrics"
	"cvereporter/internal/vuln"
	"cvereporter/internal/watermark"
)

const (
	defaultLimit          = vuln.MaxLimit
	defaultPersistTimeout = 30 * time.Second
)

type Orchestrator struct {
	Feed           Feed
	Notifier       Notifier
	Store          WatermarkStore
	Policy         *filtering.Policy
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	Limit          int
	PersistTimeout time.Duration

	mu      sync.Mutex
	pending *watermark.Watermark

	lastMu sync.RWMutex
	last   *Report

	now func() time.Time
}

func New(feed Feed, notifier Notifier, store WatermarkStore, policy *filtering.Policy) *Orchestrator {
	return &Orchestrator{
		Feed:           feed,
		Notifier:       notifier,
		Store:          store,
		Policy:         policy,
		Limit:          defaultLimit,
		PersistTimeout: defaultPersistTimeout,
	}
}

// RunCycle runs one complete cycle. Concurrent calls are serialized.
//
// A fetch failure on either pass aborts the cycle before anything is dispatched
// and is returned as the error. Dispatch and persistence failures are reported
// in the Report only.
func (o *Orchestrator) RunCycle(ctx context.Context) (Report, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	report := Report{CycleID: uuid.NewString(), StartedAt: o.clock()}
	logger := o.logger().With("cycle_id", report.CycleID)

	// Loading
	logger.Debug("Loading watermark", "phase", PhaseLoading)
	if o.pending != nil {
		logger.Info("Retrying pending watermark save", "phase", PhaseLoading)
		if err := o.persist(ctx, *o.pending); err != nil {
			logger.Warn("Pending watermark still not saved", "phase", PhaseLoading, "error", err)
		} else {
			o.pending = nil
		}
	}
	working := o.Store.Load(ctx)
	if o.pending != nil {
		working = working.Max(*o.pending)
	}
	logger.Info("Starting cycle", "phase", PhaseLoading,
		"last_new", working.LastNew.Format(watermark.Layout),
		"last_modified", working.LastModified.Format(watermark.Layout))

	// New pass
	newRecords, err := o.fetch(ctx, logger, vuln.Published, working.LastNew)
	if err != nil {
		return o.finish(logger, report, err), err
	}
	report.FetchedNew = len(newRecords)
	newEvents, newMark := classify.Classify(newRecords, working.LastNew, vuln.Published, o.Policy)
	logger.Info("Classified records", "phase", PhaseClassifying, "pass", classify.New, "qualifying", len(newEvents))

	// Modified pass
	modRecords, err := o.fetch(ctx, logger, vuln.LastModified, working.LastModified)
	if err != nil {
		return o.finish(logger, report, err), err
	}
	report.FetchedModified = len(modRecords)
	modEvents, modMark := classify.Classify(modRecords, working.LastModified, vuln.LastModified, o.Policy)
	logger.Info("Classified records", "phase", PhaseClassifying, "pass", classify.Modified, "qualifying", len(modEvents))

	before := len(modEvents)
	newEvents, modEvents = classify.Dedup(newEvents, modEvents)
	if dropped := before - len(modEvents); dropped > 0 {
		logger.Info("Dropped modified events already reported as new", "phase", PhaseDeduplicating, "count", dropped)
	}
	report.QualifiedNew = len(newEvents)
	report.QualifiedModified = len(modEvents)
	o.Metrics.AddQualified(string(classify.New), len(newEvents))
	o.Metrics.AddQualified(string(classify.Modified), len(modEvents))

	// Dispatching
	events := make([]classify.Event, 0, len(newEvents)+len(modEvents))
	events = append(events, newEvents...)
	events = append(events, modEvents...)
	if len(events) > 0 {
		logger.Info("Dispatching events", "phase", PhaseDispatching,
			"new", classify.IDs(newEvents), "modified", classify.IDs(modEvents))
		report.DispatchErrors = o.Notifier.Dispatch(ctx, events)
		if n := len(report.DispatchErrors); n > 0 {
			logger.Warn("Some notifications failed", "phase", PhaseDispatching, "failures", n)
		}
	}

	// Persisting
	next := working.Max(watermark.Watermark{LastNew: newMark, LastModified: modMark})
	report.Watermark = next
	if err := o.persist(ctx, next); err != nil {
		logger.Error("Failed to persist watermark, will retry next cycle", "phase", PhasePersisting, "error", err)
		o.Metrics.RecordPersistFailure()
		o.pending = &next
		report.PersistError = err
	} else {
		report.Persisted = true
	}
	o.Metrics.SetWatermark(vuln.Published.String(), next.LastNew)
	o.Metrics.SetWatermark(vuln.LastModified.String(), next.LastModified)

	return o.finish(logger, report, nil), nil
}

func (o *Orchestrator) fetch(ctx context.Context, logger *slog.Logger, field vuln.TimeField, since time.Time) ([]vuln.Record, error) {
	records, err := o.Feed.Fetch(ctx, field, since, o.limit())
	if err != nil {
		logger.Error("Failed to fetch records, aborting cycle", "phase", PhaseFetching, "pass", classify.CategoryFor(field), "error", err)
		return nil, err
	}
	logger.Debug("Fetched records", "phase", PhaseFetching, "pass", classify.CategoryFor(field), "count", len(records))
	return records, nil
}

// persist saves w on a context that survives cancellation of the cycle, so a
// shutdown during dispatch still records the classified watermark.
func (o *Orchestrator) persist(ctx context.Context, w watermark.Watermark) error {
	timeout := o.PersistTimeout
	if timeout <= 0 {
		timeout = defaultPersistTimeout
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	return o.Store.Save(saveCtx, w)
}

func (o *Orchestrator) finish(logger *slog.Logger, report Report, err error) Report {
	report.Err = err
	report.Duration = o.clock().Sub(report.StartedAt)
	o.Metrics.ObserveCycle(report.Status(), report.Duration)

	if err == nil {
		logger.Info("Cycle complete", "phase", PhaseDone, "status", report.Status(),
			"new", report.QualifiedNew, "modified", report.QualifiedModified,
			"persisted", report.Persisted, "duration", report.Duration)
	}

	o.lastMu.Lock()
	o.last = &report
	o.lastMu.Unlock()
	return report
}

// LastReport returns the most recent cycle report, if any cycle has run.
func (o *Orchestrator) LastReport() (Report, bool) {
	o.lastMu.RLock()
	defer o.lastMu.RUnlock()
	if o.last == nil {
		return Report{}, false
	}
	return *o.last, true
}

// Pending returns the watermark awaiting a successful save, if any.
func (o *Orchestrator) Pending() (watermark.Watermark, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pending == nil {
		return watermark.Watermark{}, false
	}
	return *o.pending, true
}

func (o *Orchestrator) limit() int {
	if o.Limit <= 0 || o.Limit > vuln.MaxLimit {
		return defaultLimit
	}
	return o.Limit
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o *Orchestrator) clock() time.Time {
	if o.now == nil {
		return time.Now()
	}
	return o.now()
}
