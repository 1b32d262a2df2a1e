// File: api/schemas/session.go
// Description: Session lifecycle types. SessionState is the single owned
// mutable aggregate in the engine; the orchestrator is its only writer and
// external consumers only ever see clones.

package schemas

import "time"

// ActionType enumerates the guidance actions the engine may propose.
// The engine never performs these itself; it hands them to the user via
// the actuator.
type ActionType string

const (
	ActionClick  ActionType = "click"
	ActionInput  ActionType = "type"
	ActionSelect ActionType = "select"
	ActionScroll ActionType = "scroll"
	ActionWait   ActionType = "wait"
)

// Phase is the detector's coarse classification of where in a task flow
// the current page sits.
type Phase string

const (
	PhaseSuccess     Phase = "success"
	PhaseLogin       Phase = "login"
	PhaseFormFill    Phase = "form-fill"
	PhaseSubmitReady Phase = "submit-ready"
	PhaseNavigation  Phase = "navigation"
)

// SessionMode selects the planning strategy for a session.
type SessionMode string

const (
	ModeHeuristic SessionMode = "heuristic"
	ModeLLM       SessionMode = "llm"
)

// GuidanceStep is the engine's output: a single proposed user action.
// A step is immutable once issued; the orchestrator discards it and plans
// a fresh one rather than mutating it.
type GuidanceStep struct {
	StepNumber    int        `json:"step_number"`
	Action        ActionType `json:"action"`
	TargetLocator string     `json:"target_locator"`
	TextHint      string     `json:"text_hint,omitempty"`
	Instruction   string     `json:"instruction"`
}

// ActionRecord is one closed history entry, appended when an action is
// confirmed done or explicitly skipped. History is append-only and ordered
// by step number.
type ActionRecord struct {
	Step          int        `json:"step"`
	Action        ActionType `json:"action"`
	TargetLocator string     `json:"target_locator"`
	Text          string     `json:"text,omitempty"`
}

// SessionState is the lifecycle aggregate for one guidance session.
//
// Step increases by exactly 1 per confirmed or skipped action. Completed is
// a one-way latch set only by success-phase detection. Active is a one-way
// gate cleared by stop or completion; once cleared, all triggers are no-ops
// until the next start.
type SessionState struct {
	ID        string         `json:"id"`
	Goal      string         `json:"goal"`
	Mode      SessionMode    `json:"mode"`
	Active    bool           `json:"active"`
	Completed bool           `json:"completed"`
	Step      int            `json:"step"`
	Current   *GuidanceStep  `json:"current,omitempty"`
	History   []ActionRecord `json:"history"`
	StartedAt time.Time      `json:"started_at,omitzero"`
	UpdatedAt time.Time      `json:"updated_at,omitzero"`
}

// Clone returns a deep copy safe to hand to external consumers.
func (s *SessionState) Clone() SessionState {
	out := *s
	if s.Current != nil {
		cur := *s.Current
		out.Current = &cur
	}
	out.History = make([]ActionRecord, len(s.History))
	copy(out.History, s.History)
	return out
}

// UsedLocators returns the set of target locators already acted on in this
// session. Planners must never propose any of these again.
func (s *SessionState) UsedLocators() map[string]bool {
	used := make(map[string]bool, len(s.History))
	for _, rec := range s.History {
		if rec.TargetLocator != "" {
			used[rec.TargetLocator] = true
		}
	}
	return used
}
