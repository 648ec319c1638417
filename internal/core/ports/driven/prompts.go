package driven

// Prompt names understood by the PromptStore.
const (
	// PromptAnswerStrict instructs the model to answer only from the
	// provided context and refuse otherwise.
	PromptAnswerStrict = "answer_strict"

	// PromptAnswerTerse is a brief variant ending each grounded
	// sentence with a bracketed citation index.
	PromptAnswerTerse = "answer_terse"

	// PromptAnswerVerbose is a careful, hedging variant.
	PromptAnswerVerbose = "answer_verbose"
)

// PromptStore loads system prompt templates.
// Implementations fall back to embedded defaults for missing names.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)
}
