package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DiscordMessage is a chat webhook payload
type DiscordMessage struct {
	Content string         `json:"content,omitempty"`
	Embeds  []DiscordEmbed `json:"embeds,omitempty"`
}

// DiscordEmbed is a rich message block
type DiscordEmbed struct {
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	URL         string              `json:"url,omitempty"`
	Color       int                 `json:"color"`
	Fields      []DiscordEmbedField `json:"fields,omitempty"`
	Footer      *DiscordEmbedFooter `json:"footer,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
}

// DiscordEmbedField is a titled value inside an embed
type DiscordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// DiscordEmbedFooter is the line under an embed
type DiscordEmbedFooter struct {
	Text string `json:"text"`
}

// Embed colors
const (
	ColorSuccess = 0x00FF00
	ColorDanger  = 0xFF0000
)

// DiscordHandler posts messages to a chat webhook
type DiscordHandler struct {
	logger     *zap.Logger
	httpClient *http.Client
}

// NewDiscordHandler creates a new webhook handler. A nil client gets a
// client with a 10 second timeout.
func NewDiscordHandler(logger *zap.Logger, httpClient *http.Client) *DiscordHandler {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &DiscordHandler{logger: logger, httpClient: httpClient}
}

// Send posts message to webhookURL
func (h *DiscordHandler) Send(ctx context.Context, webhookURL string, message DiscordMessage) error {
	if webhookURL == "" {
		return fmt.Errorf("chat webhook URL not configured")
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal chat message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send chat message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("chat webhook returned status %d", resp.StatusCode)
	}

	h.logger.Info("Successfully sent chat notification",
		zap.String("webhook_url", maskWebhookURL(webhookURL)),
		zap.Int("embeds", len(message.Embeds)))
	return nil
}

// maskWebhookURL masks the webhook URL for logging
func maskWebhookURL(url string) string {
	if len(url) < 40 {
		return "***"
	}
	return url[:40] + "***"
}
