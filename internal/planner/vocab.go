// File: internal/planner/vocab.go
// Description: Fixed keyword vocabularies shared by the phase detector and
// the heuristic scorer. Matching is case-insensitive substring matching and
// deliberately best-effort; exotic custom widgets may misclassify.

package planner

import "strings"

// successWords indicate a completed flow when found in the title, URL, or
// leading element text.
var successWords = []string{
	"success", "successful", "confirmed", "confirmation", "thank you",
	"receipt", "order placed", "complete", "completed", "submitted",
	"appointment booked", "application received",
}

// ctaWords mark generic call-to-action controls.
var ctaWords = []string{
	"get started", "start", "apply", "continue", "next", "submit",
	"sign up", "register", "book", "buy", "order", "search", "go",
}

// progressWords mark controls that advance a mostly-filled form.
var progressWords = []string{
	"submit", "continue", "next", "confirm", "finish", "complete",
	"place order", "pay", "checkout", "send", "save", "proceed", "apply",
}

// loginWords mark controls that complete a sign-in.
var loginWords = []string{"log in", "login", "sign in", "signin", "submit", "continue"}

// penaltyWords mark controls that almost never advance any goal.
var penaltyWords = []string{
	"logout", "log out", "sign out", "cancel", "dismiss", "decline",
	"cookie", "privacy", "terms", "unsubscribe", "advertisement",
}

// emailHints and passwordHints drive the login-phase field classification.
var emailHints = []string{"email", "e-mail", "username", "user name", "login id"}
var passwordHints = []string{"password", "passcode", "pin"}

// stopWords are dropped during goal tokenization.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "for": true, "to": true,
	"of": true, "in": true, "on": true, "at": true, "my": true,
	"and": true, "or": true, "with": true, "is": true, "it": true,
	"me": true, "i": true, "do": true, "get": true, "new": true,
}

// containsAny reports whether the lowercase form of s contains any of the
// given words.
func containsAny(s string, words []string) bool {
	if s == "" {
		return false
	}
	s = strings.ToLower(s)
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// countMatches returns how many of the given tokens appear in the lowercase
// form of s.
func countMatches(s string, tokens []string) int {
	if s == "" || len(tokens) == 0 {
		return 0
	}
	s = strings.ToLower(s)
	n := 0
	for _, t := range tokens {
		if strings.Contains(s, t) {
			n++
		}
	}
	return n
}
