package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/parley/pkg/domain"
)

// generate performs the single provider call of a turn.
// The call is detached from the caller's cancellation and bounded only by the
// request timeout. Panics and timeouts become failed results.
func (s *Sequencer) generate(ctx context.Context, req domain.AnswerRequest) domain.AnswerResult {
	callCtx := context.WithoutCancel(ctx)
	cancel := context.CancelFunc(func() {})
	if s.timeout > 0 {
		callCtx, cancel = context.WithTimeout(callCtx, s.timeout)
	}
	defer cancel()

	done := make(chan domain.AnswerResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- domain.AnswerErr(&domain.ProviderError{
					Provider: "sequencer",
					Op:       "generate",
					Err:      fmt.Errorf("provider panic: %v", r),
				})
			}
		}()
		done <- s.provider.Generate(callCtx, req)
	}()

	select {
	case res := <-done:
		return res
	case <-callCtx.Done():
		return domain.AnswerErr(&domain.ProviderError{
			Provider: "sequencer",
			Op:       "generate",
			Err:      callCtx.Err(),
		})
	}
}

func (s *Sequencer) stamp(t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: s.now(),
		Type:      t,
		SessionID: s.sessionID,
	}
}

func (s *Sequencer) emitStepEnter(ctx context.Context, step domain.Step) {
	for _, h := range s.hooks {
		if h.OnStepEnter != nil {
			h.OnStepEnter(ctx, &domain.StepEvent{
				EventBase: s.stamp(domain.EventStepEnter),
				StepID:    step.ID,
				Kind:      step.Kind,
			})
		}
	}
}

func (s *Sequencer) emitStepLeave(ctx context.Context, step domain.Step) {
	for _, h := range s.hooks {
		if h.OnStepLeave != nil {
			h.OnStepLeave(ctx, &domain.StepEvent{
				EventBase: s.stamp(domain.EventStepLeave),
				StepID:    step.ID,
				Kind:      step.Kind,
			})
		}
	}
}

func (s *Sequencer) emitGenerateStart(ctx context.Context, ev *domain.GenerationEvent) {
	ev.EventBase = s.stamp(domain.EventGenerateStart)
	for _, h := range s.hooks {
		if h.OnGenerateStart != nil {
			h.OnGenerateStart(ctx, ev)
		}
	}
}

func (s *Sequencer) emitGenerateFinish(ctx context.Context, ev *domain.GenerationEvent) {
	ev.EventBase = s.stamp(domain.EventGenerateFinish)
	for _, h := range s.hooks {
		if h.OnGenerateFinish != nil {
			h.OnGenerateFinish(ctx, ev)
		}
	}
}
