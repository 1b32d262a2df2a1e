package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStateClone(t *testing.T) {
	original := SessionState{
		ID:     "sess-1",
		Goal:   "book a table",
		Active: true,
		Step:   2,
		Current: &GuidanceStep{
			StepNumber:    2,
			Action:        ActionClick,
			TargetLocator: "#confirm",
		},
		History: []ActionRecord{
			{Step: 1, Action: ActionInput, TargetLocator: "#name"},
		},
	}

	clone := original.Clone()
	clone.Current.TargetLocator = "#tampered"
	clone.History[0].TargetLocator = "#tampered"
	clone.History = append(clone.History, ActionRecord{Step: 2})

	assert.Equal(t, "#confirm", original.Current.TargetLocator)
	assert.Equal(t, "#name", original.History[0].TargetLocator)
	assert.Len(t, original.History, 1)
}

func TestCloneWithoutCurrentStep(t *testing.T) {
	original := SessionState{ID: "sess-1"}
	clone := original.Clone()
	assert.Nil(t, clone.Current)
	assert.NotNil(t, clone.History)
}

func TestUsedLocators(t *testing.T) {
	state := SessionState{
		History: []ActionRecord{
			{Step: 1, TargetLocator: "#a"},
			{Step: 2, TargetLocator: "#b"},
			{Step: 3, TargetLocator: ""},
			{Step: 4, TargetLocator: "#a"},
		},
	}
	used := state.UsedLocators()
	assert.Len(t, used, 2)
	assert.True(t, used["#a"])
	assert.True(t, used["#b"])
}

func TestElementByIndex(t *testing.T) {
	snap := PageSnapshot{
		Elements: []PageElement{
			{Index: 0, Locator: "#zero"},
			{Index: 4, Locator: "#four"},
		},
	}

	el := snap.ElementByIndex(4)
	require.NotNil(t, el)
	assert.Equal(t, "#four", el.Locator)

	assert.Nil(t, snap.ElementByIndex(1))
	assert.Nil(t, snap.ElementByIndex(-1))
}

func TestLLMConfigReady(t *testing.T) {
	assert.False(t, LLMConfig{}.Ready())
	assert.False(t, LLMConfig{Provider: ProviderOpenAI, Model: "gpt-4o-mini"}.Ready())
	assert.True(t, LLMConfig{Provider: ProviderOpenAI, Model: "gpt-4o-mini", APIKey: "k"}.Ready())
	// Ollama runs locally and needs no key.
	assert.True(t, LLMConfig{Provider: ProviderOllama, Model: "llama3.2"}.Ready())
	assert.False(t, LLMConfig{Provider: ProviderOllama}.Ready())
}
