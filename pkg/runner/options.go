package runner

import (
	"log/slog"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithStore persists a snapshot after every turn and resumes from it on Run.
func WithStore(store ports.SessionStore) Option {
	return func(r *Runner) {
		r.Store = store
	}
}

// WithSessionID sets the session ID. Required for WithStore to have effect.
func WithSessionID(id string) Option {
	return func(r *Runner) {
		r.SessionID = id
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.Logger = logger
		}
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithHeadless suppresses the banner and the loading indicator.
func WithHeadless(headless bool) Option {
	return func(r *Runner) {
		r.Headless = headless
	}
}

// WithRenderer configures the answer renderer used by the default TextHandler.
func WithRenderer(renderer ContentRenderer) Option {
	return func(r *Runner) {
		r.Renderer = renderer
	}
}

// WithBanner prints text once before the first prompt.
func WithBanner(banner string) Option {
	return func(r *Runner) {
		r.Banner = banner
	}
}

// WithHooks adds lifecycle hooks to the conversations the runner opens.
func WithHooks(hooks ...domain.LifecycleHooks) Option {
	return func(r *Runner) {
		r.hooks = append(r.hooks, hooks...)
	}
}
