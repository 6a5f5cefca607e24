package cli

import (
	"context"
	"log/slog"

	"github.com/aretw0/parley/internal/config"
	mcpAdapter "github.com/aretw0/parley/pkg/adapters/mcp"
	"github.com/aretw0/parley/pkg/session"
)

// MCPOptions are the flags of the mcp command.
type MCPOptions struct {
	// Transport is "stdio" or "sse".
	Transport string
	Port      int
}

// ServeMCP exposes the ask tool over stdio or SSE.
func ServeMCP(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts MCPOptions) error {
	backend, err := NewBackend(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer backend.Close()

	provider, err := NewProvider(ctx, cfg, logger)
	if err != nil {
		return err
	}
	engine, err := NewEngine(provider, cfg, logger)
	if err != nil {
		return err
	}

	mgrOpts := []session.Option{session.WithLogger(logger)}
	if backend.Locker != nil {
		mgrOpts = append(mgrOpts, session.WithLocker(backend.Locker))
	}
	srv := mcpAdapter.NewServer(session.NewManager(engine, backend.Store, mgrOpts...), engine.Inspect(),
		mcpAdapter.WithLogger(logger),
	)

	if opts.Transport == "sse" {
		return srv.ServeSSE(ctx, opts.Port)
	}
	return srv.ServeStdio()
}
