package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// Runner handles the read-submit-render loop of a single conversation.
type Runner struct {
	// Handler is the strategy for IO. If nil, a TextHandler over Input and
	// Output is used.
	Handler IOHandler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	// Store persists the conversation after every turn.
	// If nil, sessions are ephemeral.
	Store     ports.SessionStore
	SessionID string

	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer
	Banner   string

	hooks []domain.LifecycleHooks
}

// NewRunner creates a Runner over Stdin/Stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Input:  os.Stdin,
		Output: os.Stdout,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run opens (or resumes) the conversation and loops until the user leaves,
// input ends or ctx is cancelled. Ending the session is not an error.
func (r *Runner) Run(ctx context.Context, engine *parley.Engine) error {
	handler := r.resolveHandler()

	conv, err := r.open(ctx, engine, handler)
	if err != nil {
		return err
	}

	views, err := conv.Advance(ctx)
	if err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	if err := r.save(ctx, conv); err != nil {
		return err
	}

	for {
		awaiting, err := handler.Output(ctx, views)
		if err != nil {
			return fmt.Errorf("output error: %w", err)
		}
		if !awaiting {
			return fmt.Errorf("conversation %q stopped at step %q without awaiting input", conv.ID(), conv.Current().ID)
		}

		text, err := r.readQuestion(ctx, handler)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				r.Logger.Debug("runner: session ended", "session_id", conv.ID(), "reason", err)
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		// The provider call is detached from ctx, so an interrupt here still
		// lets the answer settle before the loop exits.
		views, err = conv.Exchange(ctx, text)
		if err != nil {
			return fmt.Errorf("exchange error: %w", err)
		}
		if err := r.save(context.WithoutCancel(ctx), conv); err != nil {
			return fmt.Errorf("critical persistence error: %w", err)
		}
	}
}

// readQuestion re-prompts on blank lines and maps exit/quit to io.EOF.
func (r *Runner) readQuestion(ctx context.Context, handler IOHandler) (string, error) {
	for {
		val, err := handler.Input(ctx)
		if err != nil {
			return "", err
		}
		text := strings.TrimSpace(val)
		switch strings.ToLower(text) {
		case "":
			continue
		case "exit", "quit":
			return "", io.EOF
		}
		return text, nil
	}
}

func (r *Runner) open(ctx context.Context, engine *parley.Engine, handler IOHandler) (*parley.Conversation, error) {
	hooks := append([]domain.LifecycleHooks{}, r.hooks...)
	if !r.Headless {
		hooks = append(hooks, LoadingHooks(handler))
	}
	opt := parley.WithConversationHooks(hooks...)

	if r.Store != nil && r.SessionID != "" {
		snap, err := r.Store.Load(ctx, r.SessionID)
		switch {
		case err == nil:
			r.Logger.Debug("runner: resuming session", "session_id", r.SessionID, "step_id", snap.CurrentStepID)
			return engine.Resume(snap, opt)
		case !errors.Is(err, domain.ErrSessionNotFound):
			return nil, fmt.Errorf("failed to load session %s: %w", r.SessionID, err)
		}
	}

	conv, err := engine.Start(ctx, r.SessionID, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to start conversation: %w", err)
	}
	return conv, nil
}

func (r *Runner) save(ctx context.Context, conv *parley.Conversation) error {
	if r.Store == nil || r.SessionID == "" {
		return nil
	}
	snap := conv.Snapshot()
	if err := r.Store.Save(ctx, r.SessionID, snap); err != nil {
		return err
	}
	r.Logger.Debug("state saved", "session_id", r.SessionID, "step_id", snap.CurrentStepID)
	return nil
}

// resolveHandler ensures a valid IOHandler is set.
func (r *Runner) resolveHandler() IOHandler {
	if r.Handler != nil {
		return r.Handler
	}
	th := NewTextHandler(r.Input, r.Output, WithTextHandlerRenderer(r.Renderer))
	if !r.Headless && r.Output != nil && r.Banner != "" {
		fmt.Fprintln(r.Output, r.Banner)
	}
	// Memoize so repeated Run calls share one input pump.
	r.Handler = th
	return th
}
