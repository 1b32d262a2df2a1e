// File: internal/planner/instruction.go
// Description: Shared step assembly: deriving the action from the winning
// element's type and synthesizing the human instruction. Both planners
// funnel through buildStep so LLM and heuristic output stay consistent.

package planner

import (
	"fmt"
	"strings"

	"github.com/DhairyaKakkar/navai-clarity-suite/api/schemas"
)

// deriveAction maps an element to the guidance action a user would perform
// on it.
func deriveAction(el *schemas.PageElement) schemas.ActionType {
	if strings.ToLower(el.Tag) == "select" {
		return schemas.ActionSelect
	}
	if el.IsInput {
		switch strings.ToLower(el.InputType) {
		case "checkbox", "radio", "submit", "button", "file", "image", "reset":
			return schemas.ActionClick
		}
		return schemas.ActionInput
	}
	return schemas.ActionClick
}

// displayName picks the best human-readable handle for an element.
func displayName(el *schemas.PageElement) string {
	for _, s := range []string{el.Label, el.Text, el.Placeholder} {
		if t := strings.TrimSpace(s); t != "" {
			return prefix(t, 60)
		}
	}
	if el.InputType != "" {
		return el.InputType + " field"
	}
	return el.Tag + " element"
}

// synthesizeInstruction produces the short sentence shown to the user.
// Login fields get phase-specific phrasing so the guidance reads naturally.
func synthesizeInstruction(el *schemas.PageElement, phase schemas.Phase, action schemas.ActionType) string {
	name := displayName(el)

	if phase == schemas.PhaseLogin && action == schemas.ActionInput {
		switch {
		case isPasswordLike(el):
			return fmt.Sprintf("Enter your password in the %q field", name)
		case isEmailLike(el):
			return fmt.Sprintf("Enter your email or username in the %q field", name)
		}
	}

	switch action {
	case schemas.ActionInput:
		return fmt.Sprintf("Fill in the %q field", name)
	case schemas.ActionSelect:
		return fmt.Sprintf("Choose an option from %q", name)
	case schemas.ActionScroll:
		return fmt.Sprintf("Scroll to %q", name)
	default:
		return fmt.Sprintf("Click %q", name)
	}
}

// buildStep assembles an immutable guidance step for the given element.
func buildStep(el *schemas.PageElement, phase schemas.Phase, stepNumber int) *schemas.GuidanceStep {
	action := deriveAction(el)
	hint := strings.TrimSpace(el.Text)
	if hint == "" {
		hint = strings.TrimSpace(el.Label)
	}
	return &schemas.GuidanceStep{
		StepNumber:    stepNumber,
		Action:        action,
		TargetLocator: el.Locator,
		TextHint:      prefix(hint, 80),
		Instruction:   synthesizeInstruction(el, phase, action),
	}
}
