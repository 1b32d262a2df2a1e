// File: internal/llmclient/openai.go
package llmclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/DhairyaKakkar/navai-clarity-suite/api/schemas"
)

const defaultOpenAIEndpoint = "https://api.openai.com/v1"

// OpenAIClient speaks the chat-completions dialect, which also covers the
// many OpenAI-compatible gateways when a custom endpoint is configured.
type OpenAIClient struct {
	cfg    schemas.LLMConfig
	http   *http.Client
	logger *zap.Logger
}

// NewOpenAIClient creates a chat-completions client.
func NewOpenAIClient(cfg schemas.LLMConfig, logger *zap.Logger) *OpenAIClient {
	return &OpenAIClient{
		cfg:    cfg,
		http:   newHTTPClient(),
		logger: logger.Named("openai"),
	}
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatRequest struct {
	Model       string              `json:"model"`
	Temperature float32             `json:"temperature"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Stop        []string            `json:"stop,omitempty"`
	Messages    []openAIChatMessage `json:"messages"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete issues one chat-completions POST and extracts the single text
// completion.
func (c *OpenAIClient) Complete(ctx context.Context, req schemas.CompletionRequest) (string, error) {
	endpoint := c.cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultOpenAIEndpoint
	}
	url := strings.TrimSuffix(endpoint, "/") + "/chat/completions"

	body := openAIChatRequest{
		Model:       c.cfg.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stop:        req.Stop,
		Messages: []openAIChatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Prompt},
		},
	}

	var resp openAIChatResponse
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	if err := postJSON(ctx, c.http, url, headers, body, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("provider returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
