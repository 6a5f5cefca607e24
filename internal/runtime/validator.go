package runtime

import (
	"fmt"

	"github.com/aretw0/parley/pkg/domain"
)

// Graph is an immutable, validated set of steps with an entry point.
type Graph struct {
	entry string
	order []string
	steps map[string]domain.Step
}

// NewGraph validates the steps and builds a Graph starting at entry.
func NewGraph(entry string, steps ...domain.Step) (*Graph, error) {
	g := &Graph{
		entry: entry,
		steps: make(map[string]domain.Step, len(steps)),
	}

	for _, step := range steps {
		if step.ID == "" {
			return nil, fmt.Errorf("%w: step with empty id", domain.ErrInvalidGraph)
		}
		if _, dup := g.steps[step.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate step id %q", domain.ErrInvalidGraph, step.ID)
		}
		g.steps[step.ID] = step
		g.order = append(g.order, step.ID)
	}

	if _, ok := g.steps[entry]; !ok {
		return nil, fmt.Errorf("%w: entry step %q not defined", domain.ErrInvalidGraph, entry)
	}

	for _, id := range g.order {
		if err := g.validateStep(g.steps[id]); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// validateStep checks if the step configuration is logically sound.
func (g *Graph) validateStep(step domain.Step) error {
	if !step.Kind.Valid() {
		return fmt.Errorf("%w: step %s has unknown kind %q", domain.ErrInvalidGraph, step.ID, step.Kind)
	}

	// The conversation never ends on its own, so every step must lead somewhere.
	if step.Trigger.IsZero() {
		return fmt.Errorf("%w: step %s has no trigger", domain.ErrInvalidGraph, step.ID)
	}

	targets := step.Trigger.Targets()
	if step.Trigger.IsComputed() && len(targets) == 0 {
		return fmt.Errorf("%w: step %s has a computed trigger without routes", domain.ErrInvalidGraph, step.ID)
	}
	for _, to := range targets {
		if _, ok := g.steps[to]; !ok {
			return fmt.Errorf("%w: step %s leads to undefined step %q", domain.ErrInvalidGraph, step.ID, to)
		}
	}

	if step.Kind == domain.StepPrompt && step.Message == "" {
		return fmt.Errorf("%w: prompt step %s has no message", domain.ErrInvalidGraph, step.ID)
	}
	return nil
}

// DefaultSteps returns the question → answer → loop cycle.
// The input step always routes to the response step once the answer settles.
func DefaultSteps(prompt string) []domain.Step {
	if prompt == "" {
		prompt = domain.DefaultPromptMessage
	}
	return []domain.Step{
		{
			ID:      domain.StepIDPrompt,
			Kind:    domain.StepPrompt,
			Message: prompt,
			Trigger: domain.Fixed(domain.StepIDUserInput),
		},
		{
			ID:   domain.StepIDUserInput,
			Kind: domain.StepUserInput,
			Trigger: domain.Computed(func(string) string {
				return domain.StepIDResponse
			}, domain.StepIDResponse),
		},
		{
			ID:      domain.StepIDResponse,
			Kind:    domain.StepBotResponse,
			Trigger: domain.Fixed(domain.StepIDPrompt),
		},
	}
}

// DefaultGraph builds the validated default cycle.
func DefaultGraph(prompt string) *Graph {
	g, err := NewGraph(domain.StepIDPrompt, DefaultSteps(prompt)...)
	if err != nil {
		panic(err) // static definition
	}
	return g
}

// Entry returns the initial step ID.
func (g *Graph) Entry() string {
	return g.entry
}

// Step looks up a step by ID.
func (g *Graph) Step(id string) (domain.Step, bool) {
	s, ok := g.steps[id]
	return s, ok
}

// Steps returns the steps in definition order.
func (g *Graph) Steps() []domain.Step {
	out := make([]domain.Step, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.steps[id])
	}
	return out
}
