package parley

import (
	"context"

	"github.com/aretw0/parley/internal/runtime"
	"github.com/aretw0/parley/pkg/domain"
)

// Conversation is one running question/answer session.
// It is safe for concurrent use; overlapping input is rejected.
type Conversation struct {
	seq *runtime.Sequencer
}

// ID returns the session identifier.
func (c *Conversation) ID() string { return c.seq.ID() }

// Current returns the step the conversation is positioned at.
func (c *Conversation) Current() domain.Step { return c.seq.Current() }

// ReadOnly reports whether the conversation only views a snapshot (see Engine.View).
func (c *Conversation) ReadOnly() bool { return c.seq.ReadOnly() }

// State returns a copy of the conversation state.
func (c *Conversation) State() domain.ConversationRecord { return c.seq.State() }

// Render projects the current state onto a step without transitioning.
func (c *Conversation) Render(stepID string) (domain.StepView, error) {
	return c.seq.Render(stepID)
}

// Enter renders the current step and fires the trigger of display-only steps.
func (c *Conversation) Enter(ctx context.Context) (domain.StepView, error) {
	return c.seq.Enter(ctx)
}

// OnUserInput submits text captured at the input step and blocks until the
// answer settles. Provider failures are not returned; they show up as the
// failure message in the response step.
func (c *Conversation) OnUserInput(ctx context.Context, text string) error {
	return c.seq.OnUserInput(ctx, text)
}

// Snapshot captures the persistable state of the conversation.
func (c *Conversation) Snapshot() *domain.Snapshot { return c.seq.Snapshot() }

// Advance enters steps until one awaits input, returning every view shown on
// the way. It stops early if the conversation is generating.
func (c *Conversation) Advance(ctx context.Context) ([]domain.StepView, error) {
	var views []domain.StepView
	// Bounded so a graph without an input step cannot spin forever.
	for i := 0; i <= domain.MaxHistory; i++ {
		view, err := c.seq.Enter(ctx)
		if err != nil {
			return views, err
		}
		views = append(views, view)
		if view.Kind == domain.StepUserInput {
			return views, nil
		}
	}
	return views, nil
}

// Exchange submits text and advances to the next input step, returning the
// views produced after the input (typically the answer and the next prompt).
func (c *Conversation) Exchange(ctx context.Context, text string) ([]domain.StepView, error) {
	if err := c.seq.OnUserInput(ctx, text); err != nil {
		return nil, err
	}
	return c.Advance(ctx)
}
