package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseResponse(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		ok        bool
		verb      string
		elementID int
		rationale string
	}{
		{
			name:      "full two tag response",
			raw:       "<thinking>The email field is empty.</thinking>\n<action>type(3)</action>",
			ok:        true,
			verb:      "type",
			elementID: 3,
			rationale: "The email field is empty.",
		},
		{
			name:      "closing action tag cut by stop sequence",
			raw:       "<thinking>Click the continue button.</thinking>\n<action>click(12)",
			ok:        true,
			verb:      "click",
			elementID: 12,
			rationale: "Click the continue button.",
		},
		{
			name:      "whitespace inside the call",
			raw:       "<action> select ( 7 ) </action>",
			ok:        true,
			verb:      "select",
			elementID: 7,
		},
		{
			name:      "wait decodes without an element",
			raw:       "<thinking>Nothing useful here.</thinking><action>wait()</action>",
			ok:        true,
			verb:      "wait",
			elementID: -1,
			rationale: "Nothing useful here.",
		},
		{
			name:      "missing thinking tag is fine",
			raw:       "<action>click(0)</action>",
			ok:        true,
			verb:      "click",
			elementID: 0,
		},
		{name: "empty response", raw: "", ok: false},
		{name: "prose without tags", raw: "You should click the submit button.", ok: false},
		{name: "unknown verb", raw: "<action>hover(3)</action>", ok: false},
		{name: "click without an element id", raw: "<action>click()</action>", ok: false},
		{name: "non numeric element id", raw: "<action>click(abc)</action>", ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := parseResponse(tc.raw)
			assert.Equal(t, tc.ok, ok)
			if !tc.ok {
				return
			}
			assert.Equal(t, tc.verb, got.verb)
			assert.Equal(t, tc.elementID, got.elementID)
			assert.Equal(t, tc.rationale, got.rationale)
		})
	}
}
