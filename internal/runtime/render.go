package runtime

import (
	"fmt"

	"github.com/aretw0/parley/pkg/domain"
)

// Render projects the conversation state onto the given step without
// transitioning. It has no side effects.
func (s *Sequencer) Render(stepID string) (domain.StepView, error) {
	step, ok := s.graph.Step(stepID)
	if !ok {
		return domain.StepView{}, fmt.Errorf("render: %w: %q", domain.ErrUnknownStep, stepID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderStep(step), nil
}

// renderStep builds the view of a step. Caller must hold s.mu.
func (s *Sequencer) renderStep(step domain.Step) domain.StepView {
	view := domain.StepView{
		StepID:     step.ID,
		Kind:       step.Kind,
		Generating: s.conv.IsGenerating(),
	}

	switch step.Kind {
	case domain.StepPrompt:
		view.Content = step.Message
	case domain.StepUserInput:
		view.Content = s.conv.Question()
		view.AwaitingInput = step.ID == s.current && !s.conv.IsGenerating()
	case domain.StepBotResponse:
		// Always the live answer: the loading placeholder while pending,
		// the failure message after an error.
		view.Content = s.conv.Answer()
	}
	return view
}
