// File: api/schemas/interfaces.go
// Description: Collaborator contracts. The orchestrator is injected with
// these interfaces, keeping it decoupled from chromedp, websockets, sqlite
// and the LLM transport, and making every seam mockable in tests.

package schemas

import "context"

// PageObserver produces fresh snapshots of the active page. Extract may be
// asynchronous at the transport layer but is synchronous from the engine's
// point of view.
type PageObserver interface {
	Extract(ctx context.Context) (*PageSnapshot, error)
}

// Actuator visually presents a guidance step to the user and withdraws it.
// It reports user-performed actions back through its own event channel,
// which the orchestrator consumes as action-confirmed triggers.
type Actuator interface {
	Show(ctx context.Context, step *GuidanceStep) error
	Hide(ctx context.Context) error
}

// Planner proposes the next guidance step for a snapshot, or (nil, nil)
// when it has no confident candidate. Implementations must never propose a
// locator already present in the session history, and must never target an
// element outside an active panel.
type Planner interface {
	Plan(ctx context.Context, snapshot *PageSnapshot, state *SessionState) (*GuidanceStep, error)
}

// LLMClient abstracts the provider-specific completion transport away from
// the planner. Complete returns the single text completion extracted from
// the provider's response payload.
type LLMClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// StateStore persists exactly two durable records, each replaced wholesale
// on every save: the current session state and the LLM config. Loads return
// (nil, nil) when the record has never been written.
type StateStore interface {
	SaveSession(ctx context.Context, state *SessionState) error
	LoadSession(ctx context.Context) (*SessionState, error)
	SaveLLMConfig(ctx context.Context, cfg *LLMConfig) error
	LoadLLMConfig(ctx context.Context) (*LLMConfig, error)
}
