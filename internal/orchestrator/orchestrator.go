// File: internal/orchestrator/orchestrator.go
// Description: Owns the session state machine. All mutation of SessionState
// funnels through the named triggers here; external consumers only ever see
// clones. Injected with its collaborators via interfaces, making it
// decoupled and testable.

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DhairyaKakkar/navai-clarity-suite/api/schemas"
	"github.com/DhairyaKakkar/navai-clarity-suite/internal/config"
)

// Sentinel errors callers branch on.
var (
	// ErrInactive is returned by triggers that require an active session.
	ErrInactive = errors.New("no active session")
	// ErrSnapshotUnavailable wraps a page observer failure that survived
	// the built-in retry.
	ErrSnapshotUnavailable = errors.New("page snapshot unavailable")
)

// stuckTextMinLen is the minimum trimmed text-hint length for the
// text-based stuck arm to apply. Short hints ("OK", "Go") legitimately
// repeat across distinct controls; the locator arm still catches those.
const stuckTextMinLen = 10

// Events is the outbound notification surface (the UI panel, in practice).
// Implementations must not call back into the orchestrator synchronously.
type Events interface {
	State(state schemas.SessionState)
	Error(message string)
	Completed()
}

// Orchestrator drives guidance sessions one plan pass at a time.
type Orchestrator struct {
	cfg       config.EngineConfig
	logger    *zap.Logger
	observer  schemas.PageObserver
	actuator  schemas.Actuator
	heuristic schemas.Planner
	llm       schemas.Planner // nil when no LLM is configured
	llmReady  bool
	store     schemas.StateStore
	events    Events

	// mu guards state and generation. The long I/O in a plan pass happens
	// outside this lock; inFlight serializes the passes themselves.
	mu    sync.Mutex
	state schemas.SessionState
	// generation increments on every start/stop; scheduled passes from a
	// previous session compare against it and drop themselves.
	generation uint64

	// inFlight makes "at most one plan pass at a time" explicit. A trigger
	// arriving mid-pass is dropped, never queued.
	inFlight atomic.Bool
}

// New creates an Orchestrator with its dependencies provided as interfaces.
// The llm planner may be nil; everything else is required.
func New(
	cfg config.EngineConfig,
	logger *zap.Logger,
	observer schemas.PageObserver,
	actuator schemas.Actuator,
	heuristic schemas.Planner,
	llm schemas.Planner,
	store schemas.StateStore,
	events Events,
) (*Orchestrator, error) {
	if logger == nil || observer == nil || actuator == nil || heuristic == nil || store == nil || events == nil {
		return nil, fmt.Errorf("cannot initialize orchestrator with nil dependencies")
	}
	if cfg.StuckWindow <= 0 {
		cfg.StuckWindow = 3
	}
	return &Orchestrator{
		cfg:       cfg,
		logger:    logger.Named("orchestrator"),
		observer:  observer,
		actuator:  actuator,
		heuristic: heuristic,
		llm:       llm,
		llmReady:  llm != nil,
		store:     store,
		events:    events,
	}, nil
}

// Restore rehydrates the persisted session at process start. A missing
// record is not an error.
func (o *Orchestrator) Restore(ctx context.Context) error {
	saved, err := o.store.LoadSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to load persisted session: %w", err)
	}
	if saved == nil {
		return nil
	}
	o.mu.Lock()
	o.state = *saved
	o.mu.Unlock()
	o.logger.Info("Restored persisted session",
		zap.String("session_id", saved.ID),
		zap.Bool("active", saved.Active),
		zap.Int("step", saved.Step))
	return nil
}

// State returns a clone of the current session state.
func (o *Orchestrator) State() schemas.SessionState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Clone()
}

// Start resets the session entirely and immediately plans against the
// currently active page.
func (o *Orchestrator) Start(ctx context.Context, goal string, mode schemas.SessionMode) error {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return fmt.Errorf("goal must not be empty")
	}
	if mode != schemas.ModeLLM {
		mode = schemas.ModeHeuristic
	}

	now := time.Now().UTC()
	o.mu.Lock()
	o.generation++
	o.state = schemas.SessionState{
		ID:        uuid.NewString(),
		Goal:      goal,
		Mode:      mode,
		Active:    true,
		Step:      1,
		History:   []schemas.ActionRecord{},
		StartedAt: now,
		UpdatedAt: now,
	}
	id := o.state.ID
	o.mu.Unlock()

	o.logger.Info("Session started",
		zap.String("session_id", id),
		zap.String("mode", string(mode)))
	o.persistAndBroadcast(ctx)
	o.planPass(ctx)
	return nil
}

// Stop resets to the empty state and withdraws any visible guidance.
// Bumping the generation cancels every scheduled pass, so a stale pass
// from a stopped session can never commit a step.
func (o *Orchestrator) Stop(ctx context.Context) {
	o.mu.Lock()
	o.generation++
	id := o.state.ID
	o.state = schemas.SessionState{History: []schemas.ActionRecord{}}
	o.mu.Unlock()

	if err := o.actuator.Hide(ctx); err != nil {
		o.logger.Warn("Failed to withdraw guidance on stop", zap.Error(err))
	}
	o.logger.Info("Session stopped", zap.String("session_id", id))
	o.persistAndBroadcast(ctx)
}

// ActionConfirmed records that the user performed the current step's
// action, then schedules the next plan pass after a settle delay. The
// delay is longer after a click to let a page navigation begin.
func (o *Orchestrator) ActionConfirmed(ctx context.Context, action schemas.ActionType) error {
	delay, err := o.closeCurrentStep(ctx, action)
	if err != nil {
		return err
	}
	o.schedulePass(delay)
	return nil
}

// Skip performs the same bookkeeping as ActionConfirmed without a user
// action having occurred, and re-plans immediately.
func (o *Orchestrator) Skip(ctx context.Context) error {
	if _, err := o.closeCurrentStep(ctx, ""); err != nil {
		return err
	}
	o.planPass(ctx)
	return nil
}

// closeCurrentStep appends the history record for the current step (if
// any), advances the step counter by exactly one, and clears the current
// step. It returns the settle delay appropriate for the recorded action.
func (o *Orchestrator) closeCurrentStep(ctx context.Context, action schemas.ActionType) (time.Duration, error) {
	o.mu.Lock()
	if !o.state.Active {
		o.mu.Unlock()
		return 0, ErrInactive
	}
	delay := o.cfg.InputSettleDelay
	if cur := o.state.Current; cur != nil {
		recorded := cur.Action
		if action != "" {
			recorded = action
		}
		o.state.History = append(o.state.History, schemas.ActionRecord{
			Step:          o.state.Step,
			Action:        recorded,
			TargetLocator: cur.TargetLocator,
			Text:          cur.TextHint,
		})
		if recorded == schemas.ActionClick {
			delay = o.cfg.ClickSettleDelay
		}
	}
	o.state.Step++
	o.state.Current = nil
	o.state.UpdatedAt = time.Now().UTC()
	o.mu.Unlock()

	if err := o.actuator.Hide(ctx); err != nil {
		o.logger.Debug("Failed to hide guidance after step close", zap.Error(err))
	}
	o.persistAndBroadcast(ctx)
	return delay, nil
}

// Rescan re-runs a plan pass without mutating history or the step counter.
func (o *Orchestrator) Rescan(ctx context.Context) error {
	if !o.active() {
		return ErrInactive
	}
	o.planPass(ctx)
	return nil
}

// NavigationDetected schedules a plan pass after the nav settle delay to
// let the new page finish rendering. A no-op when no session is active.
func (o *Orchestrator) NavigationDetected(url string) {
	if !o.active() {
		return
	}
	o.logger.Debug("Navigation detected", zap.String("url", url))
	o.schedulePass(o.cfg.NavSettleDelay)
}

func (o *Orchestrator) active() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Active
}

func (o *Orchestrator) currentGeneration() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.generation
}

// schedulePass runs a plan pass after the delay unless the session has
// been stopped or restarted in the meantime.
func (o *Orchestrator) schedulePass(delay time.Duration) {
	gen := o.currentGeneration()
	time.AfterFunc(delay, func() {
		if o.currentGeneration() != gen || !o.active() {
			return
		}
		o.planPass(context.Background())
	})
}
