package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/slack-go/slack"
)

// SlackNotifier sends notifications to Slack via a Webhook.
type SlackNotifier struct {
	WebhookURL string
	Client     *http.Client
}

// NewSlackNotifier creates a new SlackNotifier.
func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		WebhookURL: webhookURL,
		Client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *SlackNotifier) Name() string { return "slack" }

// Send posts the message to the configured Slack webhook as a section and a divider.
func (s *SlackNotifier) Send(ctx context.Context, msg Message) error {
	if s.WebhookURL == "" {
		return fmt.Errorf("slack webhook URL is not configured")
	}

	text := msg.Text()
	payload := slack.WebhookMessage{
		Text:   text,
		Blocks: &slack.Blocks{BlockSet: slackBlocks(text)},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.WebhookURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send slack notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack notification failed with status: %s", resp.Status)
	}

	return nil
}

// slackPoster is the part of the Slack API client used by the bot channel.
type slackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackBotNotifier posts notifications with a bot token through the Slack API.
type SlackBotNotifier struct {
	client    slackPoster
	channelID string
}

// NewSlackBotNotifier creates a bot notifier posting to channel.
func NewSlackBotNotifier(token, channel string) *SlackBotNotifier {
	if channel == "" {
		channel = "#general"
	}
	return &SlackBotNotifier{
		client:    slack.New(token),
		channelID: channel,
	}
}

func (s *SlackBotNotifier) Name() string { return "slack_bot" }

func (s *SlackBotNotifier) Send(ctx context.Context, msg Message) error {
	text := msg.Text()
	_, _, err := s.client.PostMessageContext(ctx, s.channelID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionBlocks(slackBlocks(text)...),
	)
	if err != nil {
		return fmt.Errorf("failed to post slack message: %w", err)
	}
	return nil
}

func slackBlocks(text string) []slack.Block {
	return []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil),
		slack.NewDividerBlock(),
	}
}
