package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
)

// Enter renders the current step. Display-only steps (prompt and response)
// fire their trigger immediately, so the returned view is the one to show and
// the conversation is already positioned at the following step.
// The input step is never left here; see OnUserInput.
func (s *Sequencer) Enter(ctx context.Context) (domain.StepView, error) {
	if s.readOnly {
		return domain.StepView{}, domain.ErrReadOnly
	}
	s.mu.Lock()
	step, ok := s.graph.Step(s.current)
	if !ok {
		s.mu.Unlock()
		return domain.StepView{}, fmt.Errorf("enter: %w: %q", domain.ErrUnknownStep, s.current)
	}
	view := s.renderStep(step)

	if step.Kind == domain.StepUserInput {
		s.mu.Unlock()
		return view, nil
	}

	nextID := step.Trigger.Resolve(s.conv.Question())
	next, ok := s.graph.Step(nextID)
	if !ok {
		s.mu.Unlock()
		return view, fmt.Errorf("enter %s: %w: %q", step.ID, domain.ErrUnknownStep, nextID)
	}
	s.moveTo(next.ID)
	s.mu.Unlock()

	s.logger.Debug("step advanced", "from", step.ID, "to", next.ID)
	s.emitStepLeave(ctx, step)
	s.emitStepEnter(ctx, next)
	return view, nil
}

// OnUserInput handles text captured at the input step. In order it records the
// question, shows the loading placeholder, waits for the provider, stores the
// outcome and advances along the step trigger. Provider failures are logged
// and turned into the failure message; they are not returned.
//
// Input while a request is pending yields domain.ErrGenerationInProgress.
// Input at any other step yields domain.ErrNotAwaitingInput.
func (s *Sequencer) OnUserInput(ctx context.Context, text string) error {
	if s.readOnly {
		return domain.ErrReadOnly
	}
	s.mu.Lock()
	if s.conv.IsGenerating() {
		s.mu.Unlock()
		return domain.ErrGenerationInProgress
	}
	step, _ := s.graph.Step(s.current)
	if step.Kind != domain.StepUserInput {
		s.mu.Unlock()
		return fmt.Errorf("%w: positioned at %s (%s)", domain.ErrNotAwaitingInput, step.ID, step.Kind)
	}

	s.conv.SetQuestion(text)
	s.conv.BeginGenerating()
	s.turns++
	s.updated = s.now()
	placeholder := s.conv.Answer()
	s.mu.Unlock()

	started := s.now()
	s.emitGenerateStart(ctx, &domain.GenerationEvent{
		StepID:   step.ID,
		Question: text,
		Answer:   placeholder,
	})

	result := s.generate(ctx, domain.AnswerRequest{Question: text})
	if result.IsOk() && strings.TrimSpace(result.Text) == "" {
		result = domain.AnswerErr(domain.ErrEmptyAnswer)
	}
	if !result.IsOk() {
		s.logger.Warn("answer generation failed", "step", step.ID, "err", result.Err)
	}

	s.mu.Lock()
	s.conv.CompleteGenerating(result)
	answer := s.conv.Answer()
	nextID := step.Trigger.Resolve(text)
	next, ok := s.graph.Step(nextID)
	if ok {
		s.moveTo(next.ID)
	} else {
		s.updated = s.now()
	}
	s.mu.Unlock()

	s.emitGenerateFinish(ctx, &domain.GenerationEvent{
		StepID:   step.ID,
		Question: text,
		Answer:   answer,
		Duration: s.now().Sub(started),
		Err:      result.Err,
	})

	if !ok {
		return fmt.Errorf("advance from %s: %w: %q", step.ID, domain.ErrUnknownStep, nextID)
	}

	s.logger.Debug("step advanced", "from", step.ID, "to", next.ID)
	s.emitStepLeave(ctx, step)
	s.emitStepEnter(ctx, next)
	return nil
}
