// File: internal/planner/prompt.go
// Description: Serializes a snapshot and session history into the compact
// textual listing the language model sees. Kept deliberately terse to hold
// down prompt token usage.

package planner

import (
	"fmt"
	"strings"

	"github.com/DhairyaKakkar/navai-clarity-suite/api/schemas"
)

const (
	maxPromptElements = 50
	maxPromptHistory  = 8
	maxPromptText     = 60
	maxPromptValue    = 30
)

// systemPrompt defines the persona and the constrained response grammar.
const systemPrompt = `You are a web navigation guide. You help a user complete a goal on a web page by picking exactly ONE next element for them to interact with.

You will receive the goal, a numbered list of interactive elements, and the actions already taken.

Respond in EXACTLY this format:
<thinking>one short sentence explaining the choice, addressed to the user</thinking>
<action>click(ID)</action>

The action must be exactly one of: click(ID), type(ID), select(ID), wait()
- ID must be an element id from the list.
- NEVER pick an element whose locator was already acted on (listed under HISTORY).
- If a [panel] marker appears on any element, a dialog is open: you MUST pick a [panel] element.
- Prefer wait() only if nothing sensible can be done.`

// serializeElement renders one element as a single listing line.
func serializeElement(el *schemas.PageElement, panelActive bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d]", el.Index)
	if panelActive && el.InActivePanel {
		b.WriteString(" [panel]")
	}
	if !el.InViewport {
		b.WriteString(" [offscreen]")
	}
	if el.Filled {
		b.WriteString(" [filled]")
	}
	if el.Required {
		b.WriteString(" [required]")
	}
	b.WriteString(" " + strings.ToLower(el.Tag))
	if el.Role != "" && !strings.EqualFold(el.Role, el.Tag) {
		b.WriteString("/" + strings.ToLower(el.Role))
	}
	if el.InputType != "" {
		fmt.Fprintf(&b, "(%s)", strings.ToLower(el.InputType))
	}
	if t := strings.TrimSpace(el.Text); t != "" {
		fmt.Fprintf(&b, " %q", prefix(t, maxPromptText))
	}
	if l := strings.TrimSpace(el.Label); l != "" && !strings.EqualFold(l, el.Text) {
		fmt.Fprintf(&b, " label=%q", prefix(l, maxPromptText))
	}
	if p := strings.TrimSpace(el.Placeholder); p != "" {
		fmt.Fprintf(&b, " placeholder=%q", prefix(p, maxPromptText))
	}
	if v := strings.TrimSpace(el.Value); v != "" {
		fmt.Fprintf(&b, " value=%q", prefix(v, maxPromptValue))
	}
	return b.String()
}

// buildUserPrompt renders the goal, page listing, and recent history.
func buildUserPrompt(snapshot *schemas.PageSnapshot, state *schemas.SessionState) string {
	var b strings.Builder

	fmt.Fprintf(&b, "GOAL: %s\n", state.Goal)
	fmt.Fprintf(&b, "PAGE: %s (%s)\n", snapshot.Title, snapshot.URL)
	if snapshot.HasActivePanel {
		b.WriteString("A dialog/panel is open. Only [panel] elements are reachable.\n")
	}

	b.WriteString("\nELEMENTS:\n")
	n := len(snapshot.Elements)
	if n > maxPromptElements {
		n = maxPromptElements
	}
	for i := 0; i < n; i++ {
		b.WriteString(serializeElement(&snapshot.Elements[i], snapshot.HasActivePanel))
		b.WriteByte('\n')
	}

	if len(state.History) > 0 {
		b.WriteString("\nHISTORY (do not repeat these targets):\n")
		start := 0
		if len(state.History) > maxPromptHistory {
			start = len(state.History) - maxPromptHistory
		}
		for _, rec := range state.History[start:] {
			fmt.Fprintf(&b, "step %d: %s on %s", rec.Step, rec.Action, rec.TargetLocator)
			if rec.Text != "" {
				fmt.Fprintf(&b, " (%q)", prefix(rec.Text, maxPromptText))
			}
			b.WriteByte('\n')
		}
	}

	b.WriteString("\nPick the single best next action.")
	return b.String()
}
