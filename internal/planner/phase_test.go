package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DhairyaKakkar/navai-clarity-suite/api/schemas"
)

func input(idx int, inputType, label string, filled bool) schemas.PageElement {
	return schemas.PageElement{
		Index:     idx,
		Tag:       "input",
		Locator:   "#el-" + label,
		IsInput:   true,
		InputType: inputType,
		Label:     label,
		Filled:    filled,
	}
}

func TestDetectPhase(t *testing.T) {
	testCases := []struct {
		name     string
		snapshot *schemas.PageSnapshot
		expected schemas.Phase
	}{
		{
			name:     "nil snapshot defaults to navigation",
			snapshot: nil,
			expected: schemas.PhaseNavigation,
		},
		{
			name: "success word in title wins over everything",
			snapshot: &schemas.PageSnapshot{
				Title: "Order Confirmed - Acme",
				Elements: []schemas.PageElement{
					input(0, "email", "Email", false),
					input(1, "password", "Password", false),
				},
			},
			expected: schemas.PhaseSuccess,
		},
		{
			name: "hyphenated url slug does not match the success vocabulary",
			snapshot: &schemas.PageSnapshot{
				URL: "https://acme.test/checkout/thank-you",
			},
			expected: schemas.PhaseNavigation,
		},
		{
			name: "success word in leading element text",
			snapshot: &schemas.PageSnapshot{
				Elements: []schemas.PageElement{
					{Index: 0, Tag: "div", Text: "Thank you for your order!"},
				},
			},
			expected: schemas.PhaseSuccess,
		},
		{
			name: "email plus password means login",
			snapshot: &schemas.PageSnapshot{
				Elements: []schemas.PageElement{
					input(0, "email", "Email", false),
					input(1, "password", "Password", false),
				},
			},
			expected: schemas.PhaseLogin,
		},
		{
			name: "username text input plus password also means login",
			snapshot: &schemas.PageSnapshot{
				Elements: []schemas.PageElement{
					input(0, "text", "Username", false),
					input(1, "password", "Password", false),
				},
			},
			expected: schemas.PhaseLogin,
		},
		{
			name: "unfilled inputs without credentials means form fill",
			snapshot: &schemas.PageSnapshot{
				Elements: []schemas.PageElement{
					input(0, "text", "Full Name", false),
					input(1, "tel", "Phone", true),
				},
			},
			expected: schemas.PhaseFormFill,
		},
		{
			name: "all inputs filled means submit ready",
			snapshot: &schemas.PageSnapshot{
				Elements: []schemas.PageElement{
					input(0, "text", "Full Name", true),
					{Index: 1, Tag: "input", Locator: "#go", IsInput: true, InputType: "submit", Text: "Submit"},
				},
			},
			expected: schemas.PhaseSubmitReady,
		},
		{
			name: "no inputs at all means navigation",
			snapshot: &schemas.PageSnapshot{
				Elements: []schemas.PageElement{
					{Index: 0, Tag: "a", Text: "Pricing", Locator: "#pricing"},
				},
			},
			expected: schemas.PhaseNavigation,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, DetectPhase(tc.snapshot))
		})
	}
}

func TestDetectPhaseURLSuccess(t *testing.T) {
	snap := &schemas.PageSnapshot{URL: "https://acme.test/order/success"}
	assert.Equal(t, schemas.PhaseSuccess, DetectPhase(snap))
}

func TestHasSuccessSignalScanLimit(t *testing.T) {
	// The success word sits past the scan limit, so it must not count.
	snap := &schemas.PageSnapshot{}
	for i := 0; i < successScanLimit; i++ {
		snap.Elements = append(snap.Elements, schemas.PageElement{Index: i, Tag: "div", Text: "filler"})
	}
	snap.Elements = append(snap.Elements, schemas.PageElement{
		Index: successScanLimit, Tag: "div", Text: "Payment successful",
	})
	assert.False(t, hasSuccessSignal(snap))
}

func TestFieldClassification(t *testing.T) {
	t.Run("email by type", func(t *testing.T) {
		el := input(0, "email", "", false)
		assert.True(t, isEmailLike(&el))
	})
	t.Run("email by placeholder on text input", func(t *testing.T) {
		el := input(0, "text", "", false)
		el.Placeholder = "Your e-mail address"
		assert.True(t, isEmailLike(&el))
	})
	t.Run("tel input never email-like", func(t *testing.T) {
		el := input(0, "tel", "Email", false)
		assert.False(t, isEmailLike(&el))
	})
	t.Run("password by type", func(t *testing.T) {
		el := input(0, "password", "", false)
		assert.True(t, isPasswordLike(&el))
	})
	t.Run("submit input is not fillable", func(t *testing.T) {
		el := input(0, "submit", "", false)
		assert.True(t, isNonFillableInput(&el))
	})
}
