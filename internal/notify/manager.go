package notify

import (
	"context"
	"log/slog"

	"cvereporter/internal/classify"
	cverrors "cvereporter/internal/errors"
	"cvereporter/internal/metrics"
)

// Channel delivers rendered messages to one destination.
type Channel interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Config selects and configures the notification channels.
type Config struct {
	SlackEnabled      bool
	SlackWebhookURL   string
	SlackBotToken     string
	SlackChannel      string
	DiscordEnabled    bool
	DiscordWebhookURL string
}

// Manager fans events out to every enabled channel.
type Manager struct {
	channels []Channel
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewManager creates a new Notification Manager from cfg.
func NewManager(cfg Config, logger *slog.Logger, m *metrics.Metrics) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	mgr := &Manager{logger: logger, metrics: m}

	if cfg.SlackEnabled {
		switch {
		case cfg.SlackWebhookURL != "":
			mgr.channels = append(mgr.channels, NewSlackNotifier(cfg.SlackWebhookURL))
		case cfg.SlackBotToken != "":
			mgr.channels = append(mgr.channels, NewSlackBotNotifier(cfg.SlackBotToken, cfg.SlackChannel))
		default:
			logger.Warn("Slack enabled but neither SLACK_WEBHOOK nor SLACK_BOT_USER_TOKEN is set, slack notifications disabled")
		}
	}

	if cfg.DiscordEnabled {
		if cfg.DiscordWebhookURL != "" {
			mgr.channels = append(mgr.channels, NewDiscordNotifier(cfg.DiscordWebhookURL))
		} else {
			logger.Warn("Discord enabled but DISCORD_WEBHOOK_URL is not set, discord notifications disabled")
		}
	}

	return mgr
}

// NewManagerWithChannels builds a manager over explicit channels.
func NewManagerWithChannels(logger *slog.Logger, m *metrics.Metrics, channels ...Channel) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{channels: channels, logger: logger, metrics: m}
}

// Channels returns the names of the enabled channels.
func (m *Manager) Channels() []string {
	names := make([]string, 0, len(m.channels))
	for _, c := range m.channels {
		names = append(names, c.Name())
	}
	return names
}

// Dispatch delivers events in order to every channel. A failure for one
// (event, channel) pair is returned as a DispatchError and does not stop the rest.
func (m *Manager) Dispatch(ctx context.Context, events []classify.Event) []error {
	if len(events) == 0 {
		return nil
	}
	if len(m.channels) == 0 {
		m.logger.Info("No notification channels enabled, dropping events", "count", len(events))
		return nil
	}

	var errs []error
	for _, ev := range events {
		msg := Format(ev)
		for _, ch := range m.channels {
			if err := ch.Send(ctx, msg); err != nil {
				m.logger.Error("Failed to send notification",
					"event_id", ev.ID, "category", string(ev.Category), "channel", ch.Name(), "error", err)
				m.metrics.RecordDispatchFailure(ch.Name())
				errs = append(errs, cverrors.NewDispatchError(ev.ID, ch.Name(), err))
				continue
			}
			m.logger.Debug("Notification sent", "event_id", ev.ID, "category", string(ev.Category), "channel", ch.Name())
		}
	}
	return errs
}
