package domain

import "time"

// Snapshot is the persisted form of a conversation session.
type Snapshot struct {
	SessionID     string             `json:"session_id"`
	CurrentStepID string             `json:"current_step_id"`
	Conversation  ConversationRecord `json:"conversation"`

	// History is the trail of visited step IDs, capped at MaxHistory entries.
	History []string `json:"history,omitempty"`

	// Turns counts the answer requests made in this session.
	Turns int `json:"turns"`

	UpdatedAt time.Time `json:"updated_at"`

	// Sealed carries an encrypted copy of the whole snapshot. When set, the
	// other fields besides SessionID and UpdatedAt are empty.
	Sealed string `json:"sealed,omitempty"`
}

// NewSnapshot creates a clean snapshot positioned at the entry step.
func NewSnapshot(sessionID, entryStepID string) *Snapshot {
	return &Snapshot{
		SessionID:     sessionID,
		CurrentStepID: entryStepID,
		History:       []string{entryStepID},
	}
}

// Clone returns a deep copy, safe to mutate.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	next := *s
	next.History = append([]string(nil), s.History...)
	return &next
}

// AppendHistory records a visit, dropping the oldest entries beyond MaxHistory.
func AppendHistory(history []string, stepID string) []string {
	history = append(history, stepID)
	if over := len(history) - MaxHistory; over > 0 {
		history = append([]string(nil), history[over:]...)
	}
	return history
}
