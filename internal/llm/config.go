// Package llm provides the text-generation client used for the batched
// answer call, abstracted so tests can substitute a scripted fake.
package llm

import "time"

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
	// ProviderOpenAI is the OpenAI provider (future)
	ProviderOpenAI Provider = "openai"
	// ProviderAnthropic is the Anthropic/Claude provider (future)
	ProviderAnthropic Provider = "anthropic"
)

// Config holds the model configuration for the batch answer call.
type Config struct {
	Provider Provider
	Model    string
	// Timeout bounds the single network call to the provider.
	Timeout time.Duration
}

// DefaultConfig returns the default configuration (currently Gemini).
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Model:    "gemini-2.5-flash",
		Timeout:  60 * time.Second,
	}
}
