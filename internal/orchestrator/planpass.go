// File: internal/orchestrator/planpass.go
// Description: The plan pass. Observe the page, detect the phase, pick the
// next step (LLM first when configured, heuristic otherwise), filter out
// degenerate repetition, then commit and show the result.

package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/DhairyaKakkar/navai-clarity-suite/api/schemas"
	"github.com/DhairyaKakkar/navai-clarity-suite/internal/planner"
)

// planPass runs one observe/decide/act cycle. At most one pass runs at a
// time; a trigger arriving while a pass is in flight is dropped rather
// than queued, because it would plan against the same page anyway.
func (o *Orchestrator) planPass(ctx context.Context) {
	if !o.inFlight.CompareAndSwap(false, true) {
		o.logger.Debug("Plan pass already in flight, dropping trigger")
		return
	}
	defer o.inFlight.Store(false)

	gen := o.currentGeneration()

	snapshot, err := o.captureSnapshot(ctx)
	if err != nil {
		o.logger.Warn("Page snapshot unavailable", zap.Error(err))
		o.events.Error("The page could not be read. Try again in a moment.")
		return
	}

	o.mu.Lock()
	if o.generation != gen || !o.state.Active {
		o.mu.Unlock()
		return
	}
	state := o.state.Clone()
	o.mu.Unlock()

	phase := planner.DetectPhase(snapshot)

	// A success signal on the very first pass means the page was already in
	// a "done" state before any guidance happened, so only honor it after
	// at least one step has been taken.
	if phase == schemas.PhaseSuccess && state.Step > 1 {
		o.complete(ctx, gen)
		return
	}

	step := o.plan(ctx, snapshot, &state)
	if step == nil {
		o.logger.Info("No viable candidate on page",
			zap.String("session_id", state.ID),
			zap.String("phase", string(phase)))
		o.events.Error("No clear next step was found on this page. Try navigating manually, then rescan.")
		return
	}

	if o.looksStuck(&state, step) {
		o.logger.Warn("Repetition detected, withholding step",
			zap.String("locator", step.TargetLocator))
		o.events.Error("Guidance seems stuck repeating the same action. Try a different approach or rescan after changing the page.")
		return
	}

	o.commitStep(ctx, gen, step)
}

// captureSnapshot extracts the page, retrying once after a short delay.
// Pages mid-navigation routinely fail a single extraction.
func (o *Orchestrator) captureSnapshot(ctx context.Context) (*schemas.PageSnapshot, error) {
	snapshot, err := o.observer.Extract(ctx)
	if err == nil {
		return snapshot, nil
	}
	o.logger.Debug("Snapshot extraction failed, retrying", zap.Error(err))
	select {
	case <-time.After(o.cfg.SnapshotRetryDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	snapshot, err = o.observer.Extract(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotUnavailable, err)
	}
	return snapshot, nil
}

// plan asks the LLM planner first when the session is in LLM mode and a
// client is configured. Any LLM failure or abstention falls through to
// the heuristic in the same pass, so the user still gets a step.
func (o *Orchestrator) plan(ctx context.Context, snapshot *schemas.PageSnapshot, state *schemas.SessionState) *schemas.GuidanceStep {
	if state.Mode == schemas.ModeLLM && o.llmReady {
		step, err := o.llm.Plan(ctx, snapshot, state)
		if err != nil {
			o.logger.Warn("LLM planner failed, falling back to heuristic", zap.Error(err))
		} else if step != nil {
			return step
		} else {
			o.logger.Debug("LLM planner abstained, falling back to heuristic")
		}
	}
	step, err := o.heuristic.Plan(ctx, snapshot, state)
	if err != nil {
		o.logger.Error("Heuristic planner failed", zap.Error(err))
		return nil
	}
	return step
}

// looksStuck reports whether committing the candidate would extend a run
// of identical actions. Two arms: the last N history records all share
// the candidate's locator, or they all share its (non-trivial) text hint.
func (o *Orchestrator) looksStuck(state *schemas.SessionState, candidate *schemas.GuidanceStep) bool {
	window := o.cfg.StuckWindow
	if len(state.History) < window {
		return false
	}
	recent := state.History[len(state.History)-window:]

	locatorRun := candidate.TargetLocator != ""
	for _, rec := range recent {
		if rec.TargetLocator != candidate.TargetLocator {
			locatorRun = false
			break
		}
	}
	if locatorRun {
		return true
	}

	hint := normalizeHint(candidate.TextHint)
	if len([]rune(hint)) <= stuckTextMinLen {
		return false
	}
	for _, rec := range recent {
		if normalizeHint(rec.Text) != hint {
			return false
		}
	}
	return true
}

func normalizeHint(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// commitStep installs the step as current, persists, notifies the panel,
// and shows the on-page guidance. The generation is rechecked under the
// lock so a Stop that raced the pass wins.
func (o *Orchestrator) commitStep(ctx context.Context, gen uint64, step *schemas.GuidanceStep) {
	o.mu.Lock()
	if o.generation != gen || !o.state.Active {
		o.mu.Unlock()
		return
	}
	step.StepNumber = o.state.Step
	o.state.Current = step
	o.state.UpdatedAt = time.Now().UTC()
	id := o.state.ID
	o.mu.Unlock()

	o.logger.Info("Guidance step committed",
		zap.String("session_id", id),
		zap.Int("step", step.StepNumber),
		zap.String("action", string(step.Action)),
		zap.String("locator", step.TargetLocator))

	o.persistAndBroadcast(ctx)
	if err := o.actuator.Show(ctx, step); err != nil {
		o.logger.Warn("Failed to display guidance", zap.Error(err))
		o.events.Error("The suggested element could not be highlighted on the page. Skip this step or rescan.")
	}
}

// complete latches the terminal state: completed sticks, active clears,
// and the current step is withdrawn.
func (o *Orchestrator) complete(ctx context.Context, gen uint64) {
	o.mu.Lock()
	if o.generation != gen || !o.state.Active {
		o.mu.Unlock()
		return
	}
	o.state.Completed = true
	o.state.Active = false
	o.state.Current = nil
	o.state.UpdatedAt = time.Now().UTC()
	id := o.state.ID
	step := o.state.Step
	o.mu.Unlock()

	if err := o.actuator.Hide(ctx); err != nil {
		o.logger.Debug("Failed to hide guidance on completion", zap.Error(err))
	}
	o.logger.Info("Session completed",
		zap.String("session_id", id),
		zap.Int("steps", step))
	o.persistAndBroadcast(ctx)
	o.events.Completed()
}

// persistAndBroadcast saves the current state and pushes it to listeners.
// Persistence failure is logged but never blocks guidance.
func (o *Orchestrator) persistAndBroadcast(ctx context.Context) {
	state := o.State()
	if err := o.store.SaveSession(ctx, &state); err != nil {
		o.logger.Error("Failed to persist session state", zap.Error(err))
	}
	o.events.State(state)
}
