package domain

// StepKind defines the control flow behavior of a step.
type StepKind string

const (
	// StepPrompt displays a message and continues immediately (soft step).
	StepPrompt StepKind = "PROMPT"
	// StepUserInput halts until the user submits text, then generates an answer.
	StepUserInput StepKind = "USER_INPUT"
	// StepBotResponse displays the current answer and continues immediately.
	StepBotResponse StepKind = "BOT_RESPONSE"
)

// Valid reports whether k is one of the known kinds.
func (k StepKind) Valid() bool {
	switch k {
	case StepPrompt, StepUserInput, StepBotResponse:
		return true
	}
	return false
}

// Trigger decides which step follows the current one.
// It is either Fixed (a constant next ID) or Computed (a function of the captured input).
type Trigger struct {
	to      string
	compute func(input string) string
	routes  []string
}

// Fixed returns a trigger that always leads to next.
func Fixed(next string) Trigger {
	return Trigger{to: next}
}

// Computed returns a trigger that derives the next step from the captured input.
// Routes lists every ID fn may return; it is used for graph validation and export.
func Computed(fn func(input string) string, routes ...string) Trigger {
	return Trigger{compute: fn, routes: append([]string(nil), routes...)}
}

// IsComputed reports whether the trigger depends on input.
func (t Trigger) IsComputed() bool {
	return t.compute != nil
}

// IsZero reports whether no trigger was configured.
func (t Trigger) IsZero() bool {
	return t.to == "" && t.compute == nil
}

// Resolve evaluates the trigger for the given input.
func (t Trigger) Resolve(input string) string {
	if t.compute != nil {
		return t.compute(input)
	}
	return t.to
}

// Targets returns the step IDs this trigger can lead to.
func (t Trigger) Targets() []string {
	if t.compute != nil {
		return append([]string(nil), t.routes...)
	}
	if t.to == "" {
		return nil
	}
	return []string{t.to}
}

// Step is a node of the conversation graph. Steps are immutable once defined.
type Step struct {
	ID   string   `json:"id" yaml:"id"`
	Kind StepKind `json:"kind" yaml:"kind"`

	// Message is the text shown by a Prompt step.
	// BotResponse steps ignore it and render the current answer instead.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	Trigger Trigger `json:"-" yaml:"-"`
}

// Next returns the declared successors of the step.
func (s Step) Next() []string {
	return s.Trigger.Targets()
}

// StepView is what the presentation shell should display for a step.
type StepView struct {
	StepID string   `json:"step_id"`
	Kind   StepKind `json:"kind"`

	// Content is the prompt message, the captured question or the answer,
	// depending on Kind.
	Content string `json:"content,omitempty"`

	// AwaitingInput is true when the shell must collect text before continuing.
	AwaitingInput bool `json:"awaiting_input,omitempty"`

	// Generating mirrors ConversationState.IsGenerating at render time.
	Generating bool `json:"generating,omitempty"`
}
