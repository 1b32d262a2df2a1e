// File: internal/planner/phase.go
package planner

import (
	"strings"

	"github.com/DhairyaKakkar/navai-clarity-suite/api/schemas"
)

// successScanLimit bounds how many leading elements the success check reads.
const successScanLimit = 20

// textPrefixLimit bounds how much of an element's text participates in
// vocabulary matching.
const textPrefixLimit = 80

// DetectPhase classifies a snapshot into a coarse task phase. It is a pure
// function of the snapshot and never consults session history; the
// orchestrator decides whether a success verdict is honored.
//
// Priority order, first match wins: success, login, form-fill,
// submit-ready, navigation.
func DetectPhase(snapshot *schemas.PageSnapshot) schemas.Phase {
	if snapshot == nil {
		return schemas.PhaseNavigation
	}

	if hasSuccessSignal(snapshot) {
		return schemas.PhaseSuccess
	}

	var (
		hasIdentityInput bool
		hasPasswordInput bool
		unfilledInputs   int
		filledInputs     int
	)
	for i := range snapshot.Elements {
		el := &snapshot.Elements[i]
		if !el.IsInput || isNonFillableInput(el) {
			continue
		}
		if isEmailLike(el) {
			hasIdentityInput = true
		}
		if isPasswordLike(el) {
			hasPasswordInput = true
		}
		if el.Filled {
			filledInputs++
		} else {
			unfilledInputs++
		}
	}

	switch {
	case hasIdentityInput && hasPasswordInput:
		return schemas.PhaseLogin
	case unfilledInputs > 0:
		return schemas.PhaseFormFill
	case filledInputs > 0:
		return schemas.PhaseSubmitReady
	default:
		return schemas.PhaseNavigation
	}
}

func hasSuccessSignal(snapshot *schemas.PageSnapshot) bool {
	if containsAny(snapshot.Title, successWords) || containsAny(snapshot.URL, successWords) {
		return true
	}
	limit := successScanLimit
	if len(snapshot.Elements) < limit {
		limit = len(snapshot.Elements)
	}
	for i := 0; i < limit; i++ {
		if containsAny(prefix(snapshot.Elements[i].Text, textPrefixLimit), successWords) {
			return true
		}
	}
	return false
}

// isNonFillableInput filters input elements that behave like buttons rather
// than fields.
func isNonFillableInput(el *schemas.PageElement) bool {
	switch strings.ToLower(el.InputType) {
	case "submit", "button", "reset", "image", "hidden":
		return true
	}
	return false
}

func isEmailLike(el *schemas.PageElement) bool {
	t := strings.ToLower(el.InputType)
	if t == "email" {
		return true
	}
	if t != "" && t != "text" {
		return false
	}
	return containsAny(el.Placeholder, emailHints) ||
		containsAny(el.Label, emailHints) ||
		containsAny(el.Text, emailHints)
}

func isPasswordLike(el *schemas.PageElement) bool {
	if strings.ToLower(el.InputType) == "password" {
		return true
	}
	return containsAny(el.Placeholder, passwordHints) ||
		containsAny(el.Label, passwordHints)
}

func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
