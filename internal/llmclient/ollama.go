// File: internal/llmclient/ollama.go
package llmclient

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/DhairyaKakkar/navai-clarity-suite/api/schemas"
)

const defaultOllamaEndpoint = "http://localhost:11434"

// OllamaClient speaks the local /api/generate endpoint. No credentials.
type OllamaClient struct {
	cfg    schemas.LLMConfig
	http   *http.Client
	logger *zap.Logger
}

// NewOllamaClient creates a local-model client.
func NewOllamaClient(cfg schemas.LLMConfig, logger *zap.Logger) *OllamaClient {
	return &OllamaClient{
		cfg:    cfg,
		http:   newHTTPClient(),
		logger: logger.Named("ollama"),
	}
}

type ollamaOptions struct {
	Temperature float32  `json:"temperature"`
	NumPredict  int      `json:"num_predict,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	System  string        `json:"system,omitempty"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// Complete issues one generate POST with streaming disabled.
func (c *OllamaClient) Complete(ctx context.Context, req schemas.CompletionRequest) (string, error) {
	endpoint := c.cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultOllamaEndpoint
	}
	url := strings.TrimSuffix(endpoint, "/") + "/api/generate"

	body := ollamaRequest{
		Model:  c.cfg.Model,
		System: req.System,
		Prompt: req.Prompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
			Stop:        req.Stop,
		},
	}

	var resp ollamaResponse
	if err := postJSON(ctx, c.http, url, nil, body, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}
