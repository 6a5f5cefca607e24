package runner

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

// LoadingHooks turns generation events into handler signals, which the
// handlers render as a loading indicator.
func LoadingHooks(handler IOHandler) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnGenerateStart: func(ctx context.Context, e *domain.GenerationEvent) {
			_ = handler.Signal(ctx, SignalGenerating, map[string]any{
				"message": e.Answer,
			})
		},
		OnGenerateFinish: func(ctx context.Context, e *domain.GenerationEvent) {
			_ = handler.Signal(ctx, SignalGenerated, map[string]any{
				"duration_ms": e.Duration.Milliseconds(),
				"failed":      e.Failed(),
			})
		},
	}
}
