// File: internal/planner/heuristic.go
// Description: The deterministic, rule-based planner. Always available,
// zero network dependency. Given identical inputs it always returns an
// identical step.

package planner

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/DhairyaKakkar/navai-clarity-suite/api/schemas"
)

// Hard exclusion scores. These are vetoes, not soft penalties: any element
// carrying one can never clear the selection threshold, and the fallback
// scans skip them outright.
const (
	usedLocatorScore  = -1000
	outsidePanelScore = -2000
)

// selectionThreshold is the minimum score a ranked winner needs before the
// planner trusts it over the structural fallbacks.
const selectionThreshold = 20

// repetitionPenalty is the soft penalty for an element whose text matches a
// previously acted-on element (same text, different locator).
const repetitionPenalty = 150

// Heuristic is the rule-based planner. Stateless; safe for reuse across
// sessions.
type Heuristic struct{}

// NewHeuristic returns the deterministic rule-based planner.
func NewHeuristic() *Heuristic { return &Heuristic{} }

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// tokenizeGoal lowercases the goal, strips non-alphanumerics, and drops
// stop words and single characters.
func tokenizeGoal(goal string) []string {
	raw := nonAlnum.Split(strings.ToLower(goal), -1)
	tokens := make([]string, 0, len(raw))
	for _, t := range raw {
		if len(t) <= 1 || stopWords[t] {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}

// Plan ranks every element in the snapshot and proposes the single best
// next step, or (nil, nil) when no confident candidate exists.
func (h *Heuristic) Plan(_ context.Context, snapshot *schemas.PageSnapshot, state *schemas.SessionState) (*schemas.GuidanceStep, error) {
	if snapshot == nil || len(snapshot.Elements) == 0 {
		return nil, nil
	}

	phase := DetectPhase(snapshot)
	tokens := tokenizeGoal(state.Goal)
	used := state.UsedLocators()
	usedText := usedTexts(state)

	type candidate struct {
		el    *schemas.PageElement
		score int
	}
	candidates := make([]candidate, 0, len(snapshot.Elements))
	for i := range snapshot.Elements {
		el := &snapshot.Elements[i]
		candidates = append(candidates, candidate{
			el:    el,
			score: scoreElement(el, snapshot, phase, tokens, used, usedText),
		})
	}

	// Rank by score descending; the stable sort preserves snapshot order as
	// the tiebreak, so earlier (reading-order) elements win ties.
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})

	winner := candidates[0]
	if winner.score > selectionThreshold {
		return buildStep(winner.el, phase, state.Step), nil
	}

	// Fallback (a): the first in-viewport unused unfilled input.
	for i := range snapshot.Elements {
		el := &snapshot.Elements[i]
		if vetoed(el, snapshot, used) {
			continue
		}
		if el.IsInput && !isNonFillableInput(el) && !el.Filled && el.InViewport {
			return buildStep(el, phase, state.Step), nil
		}
	}

	// Fallback (b): the first in-viewport unused clickable element.
	for i := range snapshot.Elements {
		el := &snapshot.Elements[i]
		if vetoed(el, snapshot, used) {
			continue
		}
		if el.InViewport && isClickableTag(el) {
			return buildStep(el, phase, state.Step), nil
		}
	}

	// No confident next step; better to say so than to guess.
	return nil, nil
}

// vetoed reports whether an element is subject to a hard exclusion.
func vetoed(el *schemas.PageElement, snapshot *schemas.PageSnapshot, used map[string]bool) bool {
	if used[el.Locator] {
		return true
	}
	return snapshot.HasActivePanel && !el.InActivePanel
}

func isClickableTag(el *schemas.PageElement) bool {
	switch strings.ToLower(el.Tag) {
	case "button", "a":
		return true
	}
	return strings.ToLower(el.Role) == "button" || strings.ToLower(el.Role) == "link"
}

// usedTexts collects the normalized text of prior targets for the soft
// repetition penalty.
func usedTexts(state *schemas.SessionState) map[string]bool {
	texts := make(map[string]bool, len(state.History))
	for _, rec := range state.History {
		if t := normalizeText(rec.Text); t != "" {
			texts[t] = true
		}
	}
	return texts
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// scoreElement computes the signed integer score for one element.
func scoreElement(
	el *schemas.PageElement,
	snapshot *schemas.PageSnapshot,
	phase schemas.Phase,
	tokens []string,
	used map[string]bool,
	usedText map[string]bool,
) int {
	// Hard exclusions first; nothing recovers from these.
	if used[el.Locator] {
		return usedLocatorScore
	}
	if snapshot.HasActivePanel && !el.InActivePanel {
		return outsidePanelScore
	}

	score := 0
	haystack := el.Text + " " + el.Label + " " + el.Placeholder

	// Soft history repetition: same visible text as a prior target.
	if t := normalizeText(el.Text); t != "" && usedText[t] {
		score -= repetitionPenalty
	}

	score += phaseBonus(el, phase)

	// Goal keyword matches in text/label/placeholder.
	score += 25 * countMatches(haystack, tokens)

	// General structural bonuses.
	if containsAny(haystack, ctaWords) {
		score += 15
	}
	if el.IsInput || isClickableTag(el) {
		score += 10
	}
	if el.Rect.Width >= 40 && el.Rect.Height >= 16 {
		score += 5
	}
	if el.InViewport {
		score += 15
	}

	// The penalty vocabulary applies regardless of phase.
	if containsAny(haystack, penaltyWords) {
		score -= 80
	}

	return score
}

// phaseBonus applies the phase-specific ranking rules.
func phaseBonus(el *schemas.PageElement, phase schemas.Phase) int {
	fillable := el.IsInput && !isNonFillableInput(el)

	switch phase {
	case schemas.PhaseLogin:
		switch {
		case fillable && !el.Filled && isEmailLike(el):
			return 90
		case fillable && !el.Filled && isPasswordLike(el):
			return 80
		case !fillable && containsAny(el.Text+" "+el.Label, loginWords):
			return 60
		case fillable && el.Filled:
			return -40
		}

	case schemas.PhaseFormFill:
		switch {
		case fillable && !el.Filled && el.Required:
			return 100
		case fillable && !el.Filled:
			return 70
		case fillable && el.Filled:
			return -60
		}

	case schemas.PhaseSubmitReady:
		if fillable {
			return -50
		}
		if containsAny(el.Text+" "+el.Label, progressWords) {
			return 90
		}

	case schemas.PhaseNavigation, schemas.PhaseSuccess:
		// Pure link/CTA hunting; keyword and CTA bonuses below dominate.
		if isClickableTag(el) && containsAny(el.Text+" "+el.Label, ctaWords) {
			return 30
		}
	}
	return 0
}
