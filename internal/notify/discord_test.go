package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvereporter/internal/classify"
)

func TestDiscordNotifier_Send(t *testing.T) {
	var payload discordPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &payload))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	notifier := NewDiscordNotifier(server.URL)
	notifier.now = func() time.Time { return time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC) }

	msg := Format(sampleEvent(classify.Modified))
	require.NoError(t, notifier.Send(context.Background(), msg))

	require.Len(t, payload.Embeds, 1)
	embed := payload.Embeds[0]
	assert.Equal(t, msg.Title, embed.Title)
	assert.Equal(t, colorGold, embed.Color)
	assert.Equal(t, "2024-01-06T00:00:00Z", embed.Timestamp)
	require.NotNil(t, embed.Footer)
	assert.Equal(t, "(First published on 2024-01-02)", embed.Footer.Text)
	assert.Len(t, embed.Fields, len(msg.Fields))
}

func TestDiscordNotifier_Send_NoFooterForNew(t *testing.T) {
	var raw map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &raw))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	require.NoError(t, NewDiscordNotifier(server.URL).Send(context.Background(), Format(sampleEvent(classify.New))))

	embed := raw["embeds"].([]interface{})[0].(map[string]interface{})
	_, hasFooter := embed["footer"]
	assert.False(t, hasFooter)
	assert.Equal(t, float64(colorBlue), embed["color"])
}

func TestDiscordNotifier_Send_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	err := NewDiscordNotifier(server.URL).Send(context.Background(), Message{Title: "x"})
	assert.Error(t, err)
}

func TestDiscordNotifier_Send_MissingURL(t *testing.T) {
	err := NewDiscordNotifier("").Send(context.Background(), Message{Title: "x"})
	assert.Error(t, err)
}

func TestDiscordNotifier_Send_ClientError(t *testing.T) {
	notifier := NewDiscordNotifier("http://invalid-url")
	notifier.Client = &http.Client{Transport: &errorTransport{}}

	assert.Error(t, notifier.Send(context.Background(), Message{Title: "x"}))
}
