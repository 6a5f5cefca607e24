package domain

import "strings"

// ConversationState holds what the presentation renders for one session.
// It is mutated only through its setters and cannot fail.
type ConversationState struct {
	question     string
	answer       string
	isGenerating bool
}

// ConversationRecord is the plain value form of a ConversationState,
// used for views and persistence.
type ConversationRecord struct {
	Question     string `json:"question"`
	Answer       string `json:"answer"`
	IsGenerating bool   `json:"is_generating"`
}

// RestoreConversation rebuilds a state from its record.
func RestoreConversation(rec ConversationRecord) ConversationState {
	return ConversationState{
		question:     rec.Question,
		answer:       rec.Answer,
		isGenerating: rec.IsGenerating,
	}
}

// Question returns the latest captured user input.
func (c *ConversationState) Question() string { return c.question }

// Answer returns the answer text, or the loading placeholder while generating.
func (c *ConversationState) Answer() string { return c.answer }

// IsGenerating reports whether an answer request is pending.
func (c *ConversationState) IsGenerating() bool { return c.isGenerating }

// SetQuestion records the latest captured user input.
func (c *ConversationState) SetQuestion(text string) {
	c.question = text
}

// BeginGenerating marks a request as pending and shows the loading placeholder.
// Calling it again before CompleteGenerating leaves the state unchanged.
func (c *ConversationState) BeginGenerating() {
	if c.isGenerating {
		return
	}
	c.isGenerating = true
	c.answer = LoadingMessage
}

// CompleteGenerating records the outcome of the pending request.
// Failures (and blank answers) become FailureMessage; the reason is never stored.
func (c *ConversationState) CompleteGenerating(result AnswerResult) {
	c.isGenerating = false
	if result.Err != nil || strings.TrimSpace(result.Text) == "" {
		c.answer = FailureMessage
		return
	}
	c.answer = result.Text
}

// Record returns a copy of the state as a plain value.
func (c *ConversationState) Record() ConversationRecord {
	return ConversationRecord{
		Question:     c.question,
		Answer:       c.answer,
		IsGenerating: c.isGenerating,
	}
}
