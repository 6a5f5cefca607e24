package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/internal/presentation/tui"
	"github.com/aretw0/parley/pkg/runner"
)

// ChatOptions are the flags of the chat command.
type ChatOptions struct {
	SessionID string
	Fresh     bool
	JSON      bool
	Headless  bool
	Debug     bool

	// In and Out default to Stdin/Stdout.
	In  io.Reader
	Out io.Writer
}

// RunChat runs an interactive conversation until the user leaves or a
// signal arrives.
func RunChat(ctx context.Context, cfg *config.Config, opts ChatOptions) error {
	in, out := opts.In, opts.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	// Logs would interleave with the conversation; keep them off unless asked.
	logger := logging.NewNop()
	if opts.Debug {
		var err error
		if logger, err = NewLogger(cfg.Log, true); err != nil {
			return err
		}
	}

	provider, err := NewProvider(ctx, cfg, logger)
	if err != nil {
		return err
	}
	engine, err := NewEngine(provider, cfg, logger)
	if err != nil {
		return fmt.Errorf("error initializing parley: %w", err)
	}

	backend, err := NewBackend(ctx, chatStore(cfg.Store, opts))
	if err != nil {
		return err
	}
	defer backend.Close()

	if opts.Fresh && opts.SessionID != "" {
		if err := backend.Store.Delete(ctx, opts.SessionID); err != nil {
			logger.Warn("failed to reset session", "session_id", opts.SessionID, "err", err)
		}
	}

	sigCtx := NewSignalContext(ctx)
	defer sigCtx.Cancel()

	r := runner.NewRunner(chatRunnerOptions(cfg, opts, logger, in, out, backend)...)
	if !opts.JSON && !opts.Headless {
		if f, ok := out.(*os.File); ok && tui.IsTerminal(f) {
			tui.PrintBanner(out, parley.Version)
		}
	}

	if err := r.Run(sigCtx, engine); err != nil {
		return err
	}
	if sig := sigCtx.Signal(); sig != nil && !opts.JSON {
		fmt.Fprintf(out, "\n>>> Interrupted (%v).\n", sig)
	}
	return nil
}

// chatStore keeps named sessions across runs.
func chatStore(cfg config.StoreConfig, opts ChatOptions) config.StoreConfig {
	if opts.SessionID == "" {
		return cfg
	}
	return PersistentStore(cfg)
}

func chatRunnerOptions(cfg *config.Config, opts ChatOptions, logger *slog.Logger, in io.Reader, out io.Writer, backend *Backend) []runner.Option {
	ropts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithHeadless(opts.Headless || opts.JSON),
	}
	if opts.SessionID != "" {
		ropts = append(ropts, runner.WithSessionID(opts.SessionID), runner.WithStore(backend.Store))
	}

	switch {
	case opts.JSON:
		ropts = append(ropts, runner.WithInputHandler(runner.NewJSONHandler(in, out)))
	default:
		var render runner.ContentRenderer
		if f, ok := out.(*os.File); ok && tui.IsTerminal(f) && !opts.Headless {
			if r, err := tui.NewRenderer(tui.Width(f)); err == nil {
				render = r
			} else {
				logger.Warn("markdown renderer unavailable", "err", err)
			}
		}
		ropts = append(ropts, runner.WithInputHandler(
			runner.NewTextHandler(in, out, runner.WithTextHandlerRenderer(render)),
		))
	}
	return ropts
}
