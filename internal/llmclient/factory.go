// File: internal/llmclient/factory.go
// Description: Constructs the provider client for a given config and wraps
// it with the request rate limiter.

package llmclient

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/DhairyaKakkar/navai-clarity-suite/api/schemas"
)

// New is a factory that creates the configured provider client. The
// returned client is rate limited to ratePerMin requests per minute
// (pass 0 to disable limiting).
func New(cfg schemas.LLMConfig, logger *zap.Logger, ratePerMin int) (schemas.LLMClient, error) {
	if !cfg.Ready() {
		return nil, fmt.Errorf("llm config incomplete for provider %q", cfg.Provider)
	}

	var client schemas.LLMClient
	switch cfg.Provider {
	case schemas.ProviderOpenAI:
		client = NewOpenAIClient(cfg, logger)
	case schemas.ProviderAnthropic:
		client = NewAnthropicClient(cfg, logger)
	case schemas.ProviderGemini:
		client = NewGeminiClient(cfg, logger)
	case schemas.ProviderOllama:
		client = NewOllamaClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}

	logger.Info("Instantiated LLM client",
		zap.String("provider", string(cfg.Provider)),
		zap.String("model", cfg.Model))

	if ratePerMin <= 0 {
		return client, nil
	}
	return &rateLimitedClient{
		inner:   client,
		limiter: rate.NewLimiter(rate.Limit(float64(ratePerMin)/60.0), 1),
	}, nil
}

// rateLimitedClient throttles completion calls so a misfiring trigger loop
// cannot hammer a paid API.
type rateLimitedClient struct {
	inner   schemas.LLMClient
	limiter *rate.Limiter
}

func (c *rateLimitedClient) Complete(ctx context.Context, req schemas.CompletionRequest) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait aborted: %w", err)
	}
	return c.inner.Complete(ctx, req)
}
