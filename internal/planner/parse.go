// File: internal/planner/parse.go
// Description: Decodes the model's constrained two-tag response. The text
// is untrusted; every decode failure collapses into a single "no step"
// outcome rather than an error the caller must handle.

package planner

import (
	"strconv"
	"strings"

	"regexp"
)

var (
	thinkingRegex = regexp.MustCompile(`(?s)<thinking>(.*?)</thinking>`)
	// The closing tag is optional: the transport uses </action> as a stop
	// sequence, so well-behaved providers cut generation before it.
	actionRegex = regexp.MustCompile(`<action>\s*(click|type|select|wait)\s*\(\s*(\d*)\s*\)`)
)

// parsedAction is the decoded form of a model response.
type parsedAction struct {
	verb      string
	elementID int
	rationale string
}

// parseResponse decodes the two-tag grammar. The bool result is false for
// any response that violates the format; wait() decodes successfully and
// is rejected by the caller.
func parseResponse(raw string) (parsedAction, bool) {
	out := parsedAction{elementID: -1}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return out, false
	}

	if m := thinkingRegex.FindStringSubmatch(raw); len(m) > 1 {
		out.rationale = strings.TrimSpace(m[1])
	}

	m := actionRegex.FindStringSubmatch(raw)
	if len(m) < 3 {
		return out, false
	}
	out.verb = m[1]

	if out.verb == "wait" {
		return out, true
	}
	if m[2] == "" {
		return out, false
	}
	id, err := strconv.Atoi(m[2])
	if err != nil {
		return out, false
	}
	out.elementID = id
	return out, true
}
