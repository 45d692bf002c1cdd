package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"ContentBriefs/internal/config"
	"ContentBriefs/internal/ports"
)

const anthropicVersion = "2023-06-01"

// AnthropicClient talks to the Claude messages API.
type AnthropicClient struct {
	endpoint    string
	model       string
	apiKey      string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

var _ ports.ChatClient = (*AnthropicClient)(nil)

// NewAnthropicClient builds a Claude client from provider configuration.
func NewAnthropicClient(cfg config.ProviderConfig) *AnthropicClient {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &AnthropicClient{
		endpoint:    cfg.Endpoint,
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		httpClient:  &http.Client{Timeout: timeoutOrDefault(cfg.Timeout)},
	}
}

type anthropicRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	System      string        `json:"system"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Complete returns the first text block of the reply.
func (c *AnthropicClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c == nil {
		return "", ports.Fail(ports.KindInvalidProvider, nil, "anthropic client is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", ports.Fail(ports.KindInvalidProvider, nil, "anthropic client misconfigured")
	}

	body, err := json.Marshal(anthropicRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		System:      systemPrompt,
		Temperature: c.temperature,
		Messages:    []chatMessage{{Role: "user", Content: userPrompt}},
	})
	if err != nil {
		return "", ports.Fail(ports.KindUpstream, err, "marshal anthropic payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", ports.Fail(ports.KindUpstream, err, "new request")
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Content-Type", "application/json")

	raw, err := send(c.httpClient, req)
	if err != nil {
		return "", err
	}

	var decoded anthropicResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", ports.Fail(ports.KindMalformedResponse, err, "decode anthropic response")
	}
	for _, block := range decoded.Content {
		if block.Type == "" || block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", ports.Fail(ports.KindMalformedResponse, nil, "anthropic response has no text block")
}
