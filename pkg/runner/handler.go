package runner

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

// Signal names passed to IOHandler.Signal.
const (
	SignalGenerating = "generating"
	SignalGenerated  = "generated"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents the views to the user.
	// Returns true if the last view awaits input.
	Output(ctx context.Context, views []domain.StepView) (bool, error)

	// Input reads a response from the user.
	Input(ctx context.Context) (string, error)

	// Signal notifies the handler of transient feedback, such as the loading
	// indicator while an answer is pending.
	Signal(ctx context.Context, name string, args map[string]any) error

	// SystemOutput presents a meta-message (status, warnings) distinct from
	// conversation content.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms answer text before it is printed, for example
// markdown to ANSI.
type ContentRenderer func(string) (string, error)

func needsInput(views []domain.StepView) bool {
	return len(views) > 0 && views[len(views)-1].AwaitingInput
}
