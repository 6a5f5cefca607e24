package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// errInterrupted marks a turn that was persisted while its answer was pending.
var errInterrupted = errors.New("generation interrupted before completion")

// Sequencer drives one conversation through its step graph.
// It owns the ConversationState and is safe for concurrent use; the internal
// lock is never held while the answer provider runs.
type Sequencer struct {
	graph    *Graph
	provider ports.AnswerProvider
	logger   *slog.Logger
	hooks    []domain.LifecycleHooks
	timeout  time.Duration
	now      func() time.Time

	sessionID string
	readOnly  bool

	mu      sync.Mutex
	current string
	conv    domain.ConversationState
	history []string
	turns   int
	updated time.Time
}

// SequencerOption configures a Sequencer.
type SequencerOption func(*Sequencer)

// WithLogger sets the structured logger. Provider failures are reported here.
func WithLogger(logger *slog.Logger) SequencerOption {
	return func(s *Sequencer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks. It may be given more
// than once; hook sets run in registration order.
func WithLifecycleHooks(hooks ...domain.LifecycleHooks) SequencerOption {
	return func(s *Sequencer) {
		s.hooks = append(s.hooks, hooks...)
	}
}

// WithRequestTimeout bounds every provider call. Zero disables the bound.
func WithRequestTimeout(d time.Duration) SequencerOption {
	return func(s *Sequencer) {
		s.timeout = d
	}
}

// WithSessionID labels events and snapshots.
func WithSessionID(id string) SequencerOption {
	return func(s *Sequencer) {
		s.sessionID = id
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) SequencerOption {
	return func(s *Sequencer) {
		if now != nil {
			s.now = now
		}
	}
}

func newSequencer(graph *Graph, provider ports.AnswerProvider, opts ...SequencerOption) (*Sequencer, error) {
	if provider == nil {
		return nil, &domain.ConfigurationError{Key: "provider", Reason: "an answer provider is required"}
	}
	if graph == nil {
		graph = DefaultGraph("")
	}

	s := &Sequencer{
		graph:    graph,
		provider: provider,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sessionID != "" {
		s.logger = s.logger.With("session_id", s.sessionID)
	}
	return s, nil
}

// NewSequencer creates a conversation positioned at the graph entry.
// A nil graph selects the default prompt/input/response cycle.
func NewSequencer(graph *Graph, provider ports.AnswerProvider, opts ...SequencerOption) (*Sequencer, error) {
	s, err := newSequencer(graph, provider, opts...)
	if err != nil {
		return nil, err
	}
	s.current = s.graph.Entry()
	s.history = []string{s.current}
	s.updated = s.now()
	return s, nil
}

// Restore rebuilds a conversation from a snapshot.
// A snapshot taken while an answer was pending cannot resume that request:
// the turn is completed as a failure and the graph advances, so the user sees
// the failure message and is asked again. Callers must own the session's
// turn lock, since the request may otherwise still be running elsewhere.
func Restore(graph *Graph, provider ports.AnswerProvider, snap *domain.Snapshot, opts ...SequencerOption) (*Sequencer, error) {
	s, err := rebuild(graph, provider, snap, opts...)
	if err != nil {
		return nil, err
	}

	if s.conv.IsGenerating() {
		step, _ := s.graph.Step(s.current)
		s.logger.Warn("completing interrupted generation", "step", step.ID)
		s.conv.CompleteGenerating(domain.AnswerErr(errInterrupted))
		if step.Kind == domain.StepUserInput {
			next := step.Trigger.Resolve(s.conv.Question())
			if _, ok := s.graph.Step(next); !ok {
				return nil, fmt.Errorf("restore session %s: %w: %q", snap.SessionID, domain.ErrUnknownStep, next)
			}
			s.moveTo(next)
		}
	}
	return s, nil
}

// View rebuilds a snapshot exactly as stored, pending answer included.
// The result is read-only: Enter and OnUserInput return domain.ErrReadOnly.
func View(graph *Graph, provider ports.AnswerProvider, snap *domain.Snapshot, opts ...SequencerOption) (*Sequencer, error) {
	s, err := rebuild(graph, provider, snap, opts...)
	if err != nil {
		return nil, err
	}
	s.readOnly = true
	return s, nil
}

func rebuild(graph *Graph, provider ports.AnswerProvider, snap *domain.Snapshot, opts ...SequencerOption) (*Sequencer, error) {
	if snap == nil {
		return nil, fmt.Errorf("restore: %w", domain.ErrSessionNotFound)
	}
	if snap.SessionID != "" {
		opts = append([]SequencerOption{WithSessionID(snap.SessionID)}, opts...)
	}
	s, err := newSequencer(graph, provider, opts...)
	if err != nil {
		return nil, err
	}

	step, ok := s.graph.Step(snap.CurrentStepID)
	if !ok {
		return nil, fmt.Errorf("restore session %s: %w: %q", snap.SessionID, domain.ErrUnknownStep, snap.CurrentStepID)
	}

	s.current = step.ID
	s.conv = domain.RestoreConversation(snap.Conversation)
	s.history = append([]string(nil), snap.History...)
	if len(s.history) == 0 {
		s.history = []string{step.ID}
	}
	s.turns = snap.Turns
	s.updated = snap.UpdatedAt
	return s, nil
}

// Start announces the current step to the lifecycle hooks.
// It is called once when a conversation is created, not on restore.
func (s *Sequencer) Start(ctx context.Context) {
	s.mu.Lock()
	step, _ := s.graph.Step(s.current)
	s.mu.Unlock()
	s.emitStepEnter(ctx, step)
}

// ReadOnly reports whether the conversation was built by View.
func (s *Sequencer) ReadOnly() bool {
	return s.readOnly
}

// ID returns the session identifier, if any.
func (s *Sequencer) ID() string {
	return s.sessionID
}

// Graph returns the step graph driving this conversation.
func (s *Sequencer) Graph() *Graph {
	return s.graph
}

// Current returns the step the conversation is positioned at.
func (s *Sequencer) Current() domain.Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	step, _ := s.graph.Step(s.current)
	return step
}

// State returns a copy of the conversation state.
func (s *Sequencer) State() domain.ConversationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Record()
}

// Snapshot captures the persistable state of the conversation.
func (s *Sequencer) Snapshot() *domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &domain.Snapshot{
		SessionID:     s.sessionID,
		CurrentStepID: s.current,
		Conversation:  s.conv.Record(),
		History:       append([]string(nil), s.history...),
		Turns:         s.turns,
		UpdatedAt:     s.updated,
	}
}

// moveTo transitions to the given step. Caller must hold s.mu.
func (s *Sequencer) moveTo(stepID string) {
	s.current = stepID
	s.history = domain.AppendHistory(s.history, stepID)
	s.updated = s.now()
}
