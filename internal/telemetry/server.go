package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"cvereporter/internal/metrics"
)

// Health is the body served on /healthz.
type Health struct {
	Status      string    `json:"status"`
	LastCycleID string    `json:"last_cycle_id,omitempty"`
	LastCycleAt time.Time `json:"last_cycle_at,omitzero"`
	LastError   string    `json:"last_error,omitempty"`
}

// Health statuses.
const (
	StatusStarting = "starting"
	StatusOK       = "ok"
	StatusFailed   = "failed"
)

// HealthFunc reports the current health.
type HealthFunc func() Health

// NewHandler serves /metrics and /healthz, tracking requests on m.
func NewHandler(m *metrics.Metrics, health HealthFunc) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		h := Health{Status: StatusStarting}
		if health != nil {
			h = health()
		}

		w.Header().Set("Content-Type", "application/json")
		if h.Status == StatusFailed {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		if err := json.NewEncoder(w).Encode(h); err != nil {
			slog.Error("Failed to encode health", "error", err)
		}
	})
	return m.RequestTrackingMiddleware(mux)
}

// StartMetricsServer serves NewHandler on port until ctx is cancelled.
func StartMetricsServer(ctx context.Context, port int, m *metrics.Metrics, health HealthFunc) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           NewHandler(m, health),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("Starting metrics server", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}
