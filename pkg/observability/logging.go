package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/parley/pkg/domain"
)

// LoggingHooks logs every lifecycle event. Step events are Debug; finished
// generations are Info, or Warn when they failed.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_enter", "session_id", e.SessionID, "step_id", e.StepID, "kind", e.Kind)
		},
		OnStepLeave: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_leave", "session_id", e.SessionID, "step_id", e.StepID)
		},
		OnGenerateStart: func(ctx context.Context, e *domain.GenerationEvent) {
			logger.DebugContext(ctx, "generate_start", "session_id", e.SessionID, "question_len", len(e.Question))
		},
		OnGenerateFinish: func(ctx context.Context, e *domain.GenerationEvent) {
			if e.Failed() {
				logger.WarnContext(ctx, "generate_finish", "session_id", e.SessionID, "duration", e.Duration, "err", e.Err)
				return
			}
			logger.InfoContext(ctx, "generate_finish", "session_id", e.SessionID, "duration", e.Duration, "answer_len", len(e.Answer))
		},
	}
}
