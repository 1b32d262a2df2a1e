// File: internal/planner/llm.go
// Description: The optional, higher-latency planner. Serializes snapshot
// and history into a prompt, calls the completion transport, and decodes
// the constrained response. Every failure mode (timeout, transport error,
// malformed response, unknown element, wait()) collapses to (nil, nil) so
// the orchestrator can fall back to the heuristic planner silently.

package planner

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/DhairyaKakkar/navai-clarity-suite/api/schemas"
)

// defaultLLMTimeout is the hard wall-clock bound for one planning call.
const defaultLLMTimeout = 15 * time.Second

// LLM is the language-model planner.
type LLM struct {
	client    schemas.LLMClient
	logger    *zap.Logger
	timeout   time.Duration
	maxTokens int
}

// LLMOption customizes the planner.
type LLMOption func(*LLM)

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) LLMOption {
	return func(p *LLM) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithMaxTokens bounds the response length requested from the provider.
func WithMaxTokens(n int) LLMOption {
	return func(p *LLM) {
		if n > 0 {
			p.maxTokens = n
		}
	}
}

// NewLLM creates the language-model planner around a completion client.
func NewLLM(client schemas.LLMClient, logger *zap.Logger, opts ...LLMOption) *LLM {
	p := &LLM{
		client:    client,
		logger:    logger.Named("llm_planner"),
		timeout:   defaultLLMTimeout,
		maxTokens: 512,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan asks the model for the next step. It returns (nil, nil) on every
// failure; the error return exists only to satisfy the Planner contract
// and is always nil.
func (p *LLM) Plan(ctx context.Context, snapshot *schemas.PageSnapshot, state *schemas.SessionState) (*schemas.GuidanceStep, error) {
	if p.client == nil || snapshot == nil || len(snapshot.Elements) == 0 {
		return nil, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	raw, err := p.client.Complete(callCtx, schemas.CompletionRequest{
		System:      systemPrompt,
		Prompt:      buildUserPrompt(snapshot, state),
		Temperature: 0,
		MaxTokens:   p.maxTokens,
		Stop:        []string{"</action>"},
	})
	if err != nil {
		p.logger.Debug("completion call failed, declining", zap.Error(err))
		return nil, nil
	}

	action, ok := parseResponse(raw)
	if !ok {
		p.logger.Debug("unparseable model response, declining",
			zap.Int("response_len", len(raw)))
		return nil, nil
	}
	if action.verb == "wait" {
		// wait() means the model has nothing useful; same as declining.
		return nil, nil
	}

	el := snapshot.ElementByIndex(action.elementID)
	if el == nil {
		p.logger.Debug("model named an element absent from the snapshot",
			zap.Int("element_id", action.elementID))
		return nil, nil
	}
	if state.UsedLocators()[el.Locator] {
		p.logger.Debug("model repeated a prior target, declining",
			zap.Int("element_id", action.elementID))
		return nil, nil
	}
	if snapshot.HasActivePanel && !el.InActivePanel {
		p.logger.Debug("model targeted an element outside the active panel",
			zap.Int("element_id", action.elementID))
		return nil, nil
	}

	phase := DetectPhase(snapshot)
	// The verb is advisory; the element's own type decides the action, the
	// same way the heuristic path does.
	step := buildStep(el, phase, state.Step)
	if r := strings.TrimSpace(action.rationale); r != "" {
		step.Instruction = r
	}
	return step, nil
}
