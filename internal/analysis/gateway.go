package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/NikhilSetiya/securex/pkg/config"
	"github.com/NikhilSetiya/securex/pkg/errors"
	"github.com/NikhilSetiya/securex/pkg/metrics"
	"github.com/NikhilSetiya/securex/pkg/resilience"
)

// Gateway sends one system+user prompt pair to a text model and returns
// the reply text.
type Gateway interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// GatewayClient calls an OpenAI-compatible chat completions endpoint
type GatewayClient struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
	guard       *resilience.Guard
	metrics     *metrics.Metrics
}

// NewGatewayClient creates a gateway client from configuration. httpClient
// may be nil.
func NewGatewayClient(cfg config.AIConfig, httpClient *http.Client, m *metrics.Metrics) *GatewayClient {
	// copy: the caller's client is shared with other upstreams
	c := http.Client{}
	if httpClient != nil {
		c = *httpClient
	}
	if cfg.Timeout > 0 {
		c.Timeout = cfg.Timeout
	}
	return &GatewayClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		httpClient:  &c,
		guard:       resilience.NewGuard("ai-gateway", resilience.DefaultRetryConfig()),
		metrics:     m,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends the prompts and returns the first choice's content
func (g *GatewayClient) Complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	start := time.Now()
	reply, err := resilience.Call(ctx, g.guard, func(ctx context.Context) (string, error) {
		return g.post(ctx, body)
	})
	g.metrics.RecordUpstreamCall("ai-gateway", err, time.Since(start))
	return reply, err
}

func (g *GatewayClient) post(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", errors.NewTimeoutError("AI analysis").WithCause(err)
		}
		return "", errors.NewExternalError("ai-gateway", "AI analysis failed").WithCause(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", errors.NewExternalError("ai-gateway", "AI analysis failed").WithCause(err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", errors.NewExternalError("ai-gateway", fmt.Sprintf("AI analysis failed: %d", resp.StatusCode))
	case resp.StatusCode >= 300:
		// Credentials, credits or request shape: retrying will not help.
		return "", errors.NewAppError(errors.ErrorTypeInternal, "AI_GATEWAY_REJECTED", fmt.Sprintf("AI analysis failed: %d", resp.StatusCode))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil || len(parsed.Choices) == 0 {
		return "", errors.NewAppError(errors.ErrorTypeInternal, "AI_GATEWAY_MALFORMED", "AI analysis returned no content")
	}
	return parsed.Choices[0].Message.Content, nil
}
