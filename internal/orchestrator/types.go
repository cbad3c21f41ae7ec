package orchestrator

import (
	"time"

	"cvereporter/internal/watermark"
)

// Phase names a step of a polling cycle.
type Phase string

const (
	PhaseLoading       Phase = "loading"
	PhaseFetching      Phase = "fetching"
	PhaseClassifying   Phase = "classifying"
	PhaseDeduplicating Phase = "deduplicating"
	PhaseDispatching   Phase = "dispatching"
	PhasePersisting    Phase = "persisting"
	PhaseDone          Phase = "done"
)

// Report summarizes one polling cycle.
type Report struct {
	CycleID   string
	StartedAt time.Time
	Duration  time.Duration

	FetchedNew        int
	FetchedModified   int
	QualifiedNew      int
	QualifiedModified int

	// DispatchErrors holds one error per failed (event, channel) delivery.
	DispatchErrors []error

	// Watermark is the value committed at the end of the cycle, whether or not it was saved.
	Watermark watermark.Watermark
	Persisted bool
	// PersistError is set when the save failed; the watermark is retried next cycle.
	PersistError error

	// Err is the error that aborted the cycle, if any.
	Err error
}

// Status condenses the report to a single word.
func (r Report) Status() string {
	switch {
	case r.Err != nil:
		return "failed"
	case r.PersistError != nil || len(r.DispatchErrors) > 0:
		return "degraded"
	default:
		return "ok"
	}
}
