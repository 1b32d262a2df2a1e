// File: internal/llmclient/anthropic.go
package llmclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/DhairyaKakkar/navai-clarity-suite/api/schemas"
)

const (
	defaultAnthropicEndpoint = "https://api.anthropic.com"
	anthropicVersion         = "2023-06-01"
)

// AnthropicClient speaks the messages API.
type AnthropicClient struct {
	cfg    schemas.LLMConfig
	http   *http.Client
	logger *zap.Logger
}

// NewAnthropicClient creates a messages-API client.
func NewAnthropicClient(cfg schemas.LLMConfig, logger *zap.Logger) *AnthropicClient {
	return &AnthropicClient{
		cfg:    cfg,
		http:   newHTTPClient(),
		logger: logger.Named("anthropic"),
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model         string             `json:"model"`
	MaxTokens     int                `json:"max_tokens"`
	Temperature   float32            `json:"temperature"`
	StopSequences []string           `json:"stop_sequences,omitempty"`
	System        string             `json:"system,omitempty"`
	Messages      []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Complete issues one messages POST and extracts the first text block.
func (c *AnthropicClient) Complete(ctx context.Context, req schemas.CompletionRequest) (string, error) {
	endpoint := c.cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultAnthropicEndpoint
	}
	url := strings.TrimSuffix(endpoint, "/") + "/v1/messages"

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 512 // the messages API requires an explicit cap
	}
	body := anthropicRequest{
		Model:         c.cfg.Model,
		MaxTokens:     maxTokens,
		Temperature:   req.Temperature,
		StopSequences: req.Stop,
		System:        req.System,
		Messages:      []anthropicMessage{{Role: "user", Content: req.Prompt}},
	}

	var resp anthropicResponse
	headers := map[string]string{
		"x-api-key":         c.cfg.APIKey,
		"anthropic-version": anthropicVersion,
	}
	if err := postJSON(ctx, c.http, url, headers, body, &resp); err != nil {
		return "", err
	}
	for _, block := range resp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("provider returned no text content")
}
