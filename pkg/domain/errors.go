package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrGenerationInProgress is returned when input arrives while an answer is pending.
var ErrGenerationInProgress = errors.New("answer generation in progress")

// ErrNotAwaitingInput is returned when input arrives at a step that does not collect it.
var ErrNotAwaitingInput = errors.New("current step does not accept input")

// ErrUnknownStep is returned when a step ID is not part of the graph.
var ErrUnknownStep = errors.New("unknown step")

// ErrInvalidGraph is returned when a step graph fails validation.
var ErrInvalidGraph = errors.New("invalid step graph")

// ErrReadOnly is returned when driving a conversation that only views a snapshot.
var ErrReadOnly = errors.New("conversation is read-only")

// ErrEmptyAnswer is returned by providers when the service answered without text.
var ErrEmptyAnswer = errors.New("empty answer")

// ProviderError describes a network, timeout or malformed-response failure
// of the answer provider. It never reaches the user.
type ProviderError struct {
	Provider   string
	Op         string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s failed with status %d: %v", e.Provider, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s failed: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports a missing or invalid setting. It is fatal at startup.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Key, e.Reason)
}
