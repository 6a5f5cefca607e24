package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/runner"
)

// Ask runs a single turn and returns the answer. A provider failure yields
// domain.FailureMessage with a nil error, exactly as in a chat.
func Ask(ctx context.Context, engine *parley.Engine, question string) (string, error) {
	clean, err := runner.SanitizeInput(question)
	if err != nil {
		return "", err
	}
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return "", errors.New("question is empty")
	}

	conv, err := engine.Start(ctx, "")
	if err != nil {
		return "", err
	}
	if _, err := conv.Advance(ctx); err != nil {
		return "", fmt.Errorf("render error: %w", err)
	}
	views, err := conv.Exchange(ctx, clean)
	if err != nil {
		return "", err
	}
	for _, v := range views {
		if v.Kind == domain.StepBotResponse {
			return v.Content, nil
		}
	}
	return conv.State().Answer, nil
}
