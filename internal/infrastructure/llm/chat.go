package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"ContentBriefs/internal/config"
	"ContentBriefs/internal/domain"
	"ContentBriefs/internal/ports"
)

const errorBodyLimit = 1024

// ChatClient implements ports.ChatClient for OpenAI-compatible chat completion APIs
// (OpenAI, Grok, Perplexity, Mistral).
type ChatClient struct {
	endpoint    string
	model       string
	apiKey      string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

var _ ports.ChatClient = (*ChatClient)(nil)

// NewChatClient builds a client from provider configuration.
func NewChatClient(cfg config.ProviderConfig) *ChatClient {
	return &ChatClient{
		endpoint:    cfg.Endpoint,
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient:  &http.Client{Timeout: timeoutOrDefault(cfg.Timeout)},
	}
}

// NewClient picks the wire protocol for a provider.
func NewClient(id domain.ProviderID, cfg config.ProviderConfig) ports.ChatClient {
	if id == domain.ProviderClaude {
		return NewAnthropicClient(cfg)
	}
	return NewChatClient(cfg)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends one system+user exchange and returns the first choice.
func (c *ChatClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c == nil {
		return "", ports.Fail(ports.KindInvalidProvider, nil, "chat client is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", ports.Fail(ports.KindInvalidProvider, nil, "chat client misconfigured")
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", ports.Fail(ports.KindUpstream, err, "marshal chat payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", ports.Fail(ports.KindUpstream, err, "new request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	raw, err := send(c.httpClient, req)
	if err != nil {
		return "", err
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", ports.Fail(ports.KindMalformedResponse, err, "decode chat response")
	}
	if len(decoded.Choices) == 0 {
		return "", ports.Fail(ports.KindMalformedResponse, nil, "chat response has no choices")
	}
	return decoded.Choices[0].Message.Content, nil
}

func send(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, ports.Fail(ports.KindUpstream, err, "send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, ports.Fail(ports.KindUpstream, nil, "provider error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ports.Fail(ports.KindUpstream, err, "read response")
	}
	return raw, nil
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return 120 * time.Second
	}
	return d
}
