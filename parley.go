package parley

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/parley/internal/runtime"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// DefaultRequestTimeout bounds a single answer request unless overridden.
const DefaultRequestTimeout = 30 * time.Second

// Engine is the high-level entry point for the Parley library.
// It holds the step graph and the answer provider shared by all conversations.
type Engine struct {
	graph    *runtime.Graph
	provider ports.AnswerProvider
	hooks    []domain.LifecycleHooks
	logger   *slog.Logger
	timeout  time.Duration
	prompt   string
	entry    string
	steps    []domain.Step
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks for every conversation.
// It may be given more than once.
func WithLifecycleHooks(hooks ...domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = append(e.hooks, hooks...)
	}
}

// ConversationOption configures a single conversation.
type ConversationOption func(*conversationConfig)

type conversationConfig struct {
	hooks []domain.LifecycleHooks
}

// WithConversationHooks adds hooks that only fire for this conversation,
// after the engine-wide ones.
func WithConversationHooks(hooks ...domain.LifecycleHooks) ConversationOption {
	return func(c *conversationConfig) {
		c.hooks = append(c.hooks, hooks...)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRequestTimeout bounds each answer request (default: 30s). Zero waits forever.
func WithRequestTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithPromptMessage replaces the text of the default prompt step.
func WithPromptMessage(msg string) Option {
	return func(e *Engine) {
		e.prompt = msg
	}
}

// WithSteps replaces the default cycle with a custom graph.
func WithSteps(entry string, steps ...domain.Step) Option {
	return func(e *Engine) {
		e.entry = entry
		e.steps = steps
	}
}

// New initializes a Parley Engine around the given answer provider.
func New(provider ports.AnswerProvider, opts ...Option) (*Engine, error) {
	if provider == nil {
		return nil, &domain.ConfigurationError{Key: "provider", Reason: "an answer provider is required"}
	}

	eng := &Engine{
		provider: provider,
		timeout:  DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if len(eng.steps) > 0 {
		g, err := runtime.NewGraph(eng.entry, eng.steps...)
		if err != nil {
			return nil, err
		}
		eng.graph = g
	} else {
		eng.graph = runtime.DefaultGraph(eng.prompt)
	}

	return eng, nil
}

// Start creates a fresh conversation positioned at the entry step and
// triggers the enter hook for it.
func (e *Engine) Start(ctx context.Context, sessionID string, opts ...ConversationOption) (*Conversation, error) {
	seq, err := runtime.NewSequencer(e.graph, e.provider, e.sequencerOptions(sessionID, opts)...)
	if err != nil {
		return nil, err
	}
	seq.Start(ctx)
	return &Conversation{seq: seq}, nil
}

// Resume rebuilds a conversation from a snapshot.
// An answer that was pending when the snapshot was taken is reported as failed.
func (e *Engine) Resume(snap *domain.Snapshot, opts ...ConversationOption) (*Conversation, error) {
	id := ""
	if snap != nil {
		id = snap.SessionID
	}
	seq, err := runtime.Restore(e.graph, e.provider, snap, e.sequencerOptions(id, opts)...)
	if err != nil {
		return nil, err
	}
	return &Conversation{seq: seq}, nil
}

// View rebuilds a snapshot as stored, without completing a pending answer.
// The returned conversation is read-only; use Resume to drive it.
func (e *Engine) View(snap *domain.Snapshot) (*Conversation, error) {
	id := ""
	if snap != nil {
		id = snap.SessionID
	}
	seq, err := runtime.View(e.graph, e.provider, snap, e.sequencerOptions(id, nil)...)
	if err != nil {
		return nil, err
	}
	return &Conversation{seq: seq}, nil
}

// Inspect returns the step graph for visualization or introspection tools.
func (e *Engine) Inspect() []domain.Step {
	return e.graph.Steps()
}

// Entry returns the ID of the first step.
func (e *Engine) Entry() string {
	return e.graph.Entry()
}

func (e *Engine) sequencerOptions(sessionID string, opts []ConversationOption) []runtime.SequencerOption {
	var cfg conversationConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return []runtime.SequencerOption{
		runtime.WithLogger(e.logger),
		runtime.WithLifecycleHooks(e.hooks...),
		runtime.WithLifecycleHooks(cfg.hooks...),
		runtime.WithRequestTimeout(e.timeout),
		runtime.WithSessionID(sessionID),
	}
}
