package domain

// User-facing messages.
const (
	// DefaultPromptMessage is the question the entry step asks.
	DefaultPromptMessage = "What is your question?"

	// LoadingMessage is the transient answer while a generation is pending.
	LoadingMessage = "Loading your answer... It might take up to 10 seconds"

	// FailureMessage replaces the answer whenever generation fails.
	// The underlying cause is logged, never shown.
	FailureMessage = "Sorry - Something went wrong. Please try again!"
)

// Step IDs of the default conversation graph.
const (
	StepIDPrompt    = "1"
	StepIDUserInput = "userInput"
	StepIDResponse  = "aiResponse"
)

// MaxHistory bounds the visited-step trail kept in a Snapshot.
// The graph is a cycle, so the trail would otherwise grow forever.
const MaxHistory = 64
