package driven

import "context"

// LLMService synthesises answers from retrieved evidence.
//
// Implementations may include:
//   - OpenAI (gpt-4o-mini and friends)
//   - Ollama (local models)
type LLMService interface {
	// Complete runs a single-turn completion with a system and user
	// prompt. Timeout handling is the adapter's concern.
	Complete(ctx context.Context, system, user string, opts CompletionOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CompletionOptions configures completion behaviour.
type CompletionOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64
}
