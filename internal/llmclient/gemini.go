// File: internal/llmclient/gemini.go
package llmclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/DhairyaKakkar/navai-clarity-suite/api/schemas"
)

const defaultGeminiEndpoint = "https://generativelanguage.googleapis.com"

// GeminiClient speaks the generateContent REST API directly rather than
// through the SDK, so the endpoint, headers, and stop sequences stay under
// this package's control like every other provider.
type GeminiClient struct {
	cfg    schemas.LLMConfig
	http   *http.Client
	logger *zap.Logger
}

// NewGeminiClient creates a generateContent client.
func NewGeminiClient(cfg schemas.LLMConfig, logger *zap.Logger) *GeminiClient {
	return &GeminiClient{
		cfg:    cfg,
		http:   newHTTPClient(),
		logger: logger.Named("gemini"),
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float32  `json:"temperature"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
	StopSequences   []string `json:"stopSequences,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"system_instruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Complete issues one generateContent POST and extracts the first part of
// the first candidate.
func (c *GeminiClient) Complete(ctx context.Context, req schemas.CompletionRequest) (string, error) {
	endpoint := c.cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultGeminiEndpoint
	}
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		strings.TrimSuffix(endpoint, "/"), c.cfg.Model)

	body := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
			StopSequences:   req.Stop,
		},
	}
	if req.System != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}

	var resp geminiResponse
	headers := map[string]string{"x-goog-api-key": c.cfg.APIKey}
	if err := postJSON(ctx, c.http, url, headers, body, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("provider returned no candidates")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
