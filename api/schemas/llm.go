// File: api/schemas/llm.go

package schemas

// LLMProvider defines the supported language model providers.
type LLMProvider string

const (
	ProviderOpenAI    LLMProvider = "openai"
	ProviderAnthropic LLMProvider = "anthropic"
	ProviderGemini    LLMProvider = "gemini"
	ProviderOllama    LLMProvider = "ollama"
)

// LLMConfig is the opaque credential/config bundle for the language model
// planner. The engine never persists the key anywhere except the state
// store, and never logs it.
type LLMConfig struct {
	Provider LLMProvider `json:"provider"`
	Endpoint string      `json:"endpoint,omitempty"`
	APIKey   string      `json:"api_key,omitempty"`
	Model    string      `json:"model"`
}

// Ready reports whether the config is complete enough to attempt a call.
// Ollama runs locally and needs no key; every other provider does.
func (c LLMConfig) Ready() bool {
	if c.Provider == "" || c.Model == "" {
		return false
	}
	if c.Provider == ProviderOllama {
		return true
	}
	return c.APIKey != ""
}

// CompletionRequest encapsulates the inputs for a single LLM call.
// Exactly one HTTPS POST is issued per request; retries are the caller's
// concern.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
	// Stop sequences terminate generation; the planner uses the closing
	// action tag so the model cannot ramble past its single action call.
	Stop []string
}
