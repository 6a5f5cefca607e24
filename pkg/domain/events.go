package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepEnter      EventType = "step_enter"
	EventStepLeave      EventType = "step_leave"
	EventGenerateStart  EventType = "generate_start"
	EventGenerateFinish EventType = "generate_finish"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// StepEvent represents entry or exit from a step.
type StepEvent struct {
	EventBase
	StepID string   `json:"step_id"`
	Kind   StepKind `json:"kind"`
}

// GenerationEvent represents the start or the end of an answer request.
type GenerationEvent struct {
	EventBase
	StepID   string `json:"step_id"`
	Question string `json:"question"`

	// Answer is the loading placeholder on start and the final answer on finish.
	Answer string `json:"answer"`

	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// Failed reports whether the generation ended in a provider failure.
func (e *GenerationEvent) Failed() bool {
	return e.Err != nil
}

// LifecycleHooks defines callbacks for observability and re-rendering.
// Hooks run synchronously, outside the sequencer lock.
type LifecycleHooks struct {
	OnStepEnter      func(context.Context, *StepEvent)
	OnStepLeave      func(context.Context, *StepEvent)
	OnGenerateStart  func(context.Context, *GenerationEvent)
	OnGenerateFinish func(context.Context, *GenerationEvent)
}
