package main

import (
	"log/slog"

	"cvereporter/internal/config"
	"cvereporter/internal/db"
	cverrors "cvereporter/internal/errors"
	"cvereporter/internal/filtering"
	"cvereporter/internal/metrics"
	"cvereporter/internal/notify"
	"cvereporter/internal/orchestrator"
	"cvereporter/internal/telemetry"
	"cvereporter/internal/vuln"
	"cvereporter/internal/watermark"
)

// app holds the wired components of a running reporter.
type app struct {
	orch    *orchestrator.Orchestrator
	metrics *metrics.Metrics
	backend db.Store
}

func newApp(cfg config.Config, logger *slog.Logger) (*app, error) {
	policy, err := filtering.LoadPolicy(cfg.KeywordsFile)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded keyword policy", "path", cfg.KeywordsFile,
		"keywords", policy.KeywordCount(), "accept_all", policy.AcceptAll())
	if policy.Empty() {
		logger.Warn("Keyword policy is empty and ALL_VALID is false, nothing will be reported")
	}

	m := metrics.NewMetrics()

	backend, err := db.NewStore(cfg.StoreConfig())
	if err != nil {
		return nil, cverrors.NewPersistenceError("open", err)
	}
	logger.Info("Opened watermark store", "type", cfg.StoreType)

	client := vuln.NewCirclClient()
	client.APIURL = cfg.FeedURL
	client.HTTPClient.Timeout = cfg.FeedTimeout
	client.Retries = cfg.FeedRetries
	client.Metrics = m
	client.Logger = logger

	manager := notify.NewManager(cfg.Notifications, logger, m)
	logger.Info("Notification channels", "channels", manager.Channels())

	orch := orchestrator.New(client, manager, watermark.NewStore(backend, watermark.WithLogger(logger)), policy)
	orch.Metrics = m
	orch.Logger = logger
	orch.Limit = cfg.FeedLimit

	return &app{orch: orch, metrics: m, backend: backend}, nil
}

// health reports the outcome of the most recent cycle for /healthz.
func (a *app) health() telemetry.Health {
	report, ok := a.orch.LastReport()
	if !ok {
		return telemetry.Health{Status: telemetry.StatusStarting}
	}

	h := telemetry.Health{
		Status:      telemetry.StatusOK,
		LastCycleID: report.CycleID,
		LastCycleAt: report.StartedAt,
	}
	switch {
	case report.Err != nil:
		h.Status = telemetry.StatusFailed
		h.LastError = report.Err.Error()
	case report.PersistError != nil:
		h.LastError = report.PersistError.Error()
	}
	return h
}

func (a *app) Close() error {
	return a.backend.Close()
}
