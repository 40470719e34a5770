package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// ntfy priority levels; 5 makes phones ring even in do-not-disturb.
const (
	PriorityDefault = 3
	PriorityUrgent  = 5
)

var client *http.Client
var topic string
var initialized bool

// Init configures push notifications via ntfy.sh. An empty topic disables
// them.
func Init(ntfyTopic string) {
	if ntfyTopic == "" {
		log.Warn().Msg("Ntfy topic not configured - notifications disabled")
		return
	}

	client = &http.Client{Timeout: 10 * time.Second}
	topic = ntfyTopic
	initialized = true

	log.Info().Str("topic", topic).Msg("Ntfy notifications initialized")
}

type message struct {
	Topic    string `json:"topic"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Priority int    `json:"priority"`
}

// Send publishes one notification. Failures are returned, not fatal; a
// missed push must never stall the alarm sequence.
func Send(title, body string, priority int) error {
	if !initialized {
		return fmt.Errorf("notifications not initialized")
	}

	payload, err := json.Marshal(message{
		Topic:    topic,
		Title:    title,
		Message:  body,
		Priority: priority,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	url := fmt.Sprintf("https://ntfy.sh/%s", topic)
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy returned non-success status: %d", resp.StatusCode)
	}

	log.Debug().
		Str("title", title).
		Int("status", resp.StatusCode).
		Msg("Notification sent")

	return nil
}
