package runtime_test

import (
	"testing"

	"github.com/aretw0/parley/internal/runtime"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultGraph(t *testing.T) {
	g := runtime.DefaultGraph("")
	assert.Equal(t, domain.StepIDPrompt, g.Entry())

	steps := g.Steps()
	require.Len(t, steps, 3)
	assert.Equal(t, domain.StepPrompt, steps[0].Kind)
	assert.Equal(t, domain.DefaultPromptMessage, steps[0].Message)
	assert.Equal(t, []string{domain.StepIDUserInput}, steps[0].Next())
	assert.Equal(t, domain.StepUserInput, steps[1].Kind)
	assert.True(t, steps[1].Trigger.IsComputed())
	assert.Equal(t, []string{domain.StepIDResponse}, steps[1].Next())
	assert.Equal(t, domain.StepBotResponse, steps[2].Kind)
	assert.Equal(t, []string{domain.StepIDPrompt}, steps[2].Next())
}

func TestDefaultGraph_CustomPrompt(t *testing.T) {
	g := runtime.DefaultGraph("Ask me anything")
	step, ok := g.Step(domain.StepIDPrompt)
	require.True(t, ok)
	assert.Equal(t, "Ask me anything", step.Message)
}

func TestNewGraph_Validation(t *testing.T) {
	prompt := domain.Step{ID: "p", Kind: domain.StepPrompt, Message: "hi", Trigger: domain.Fixed("in")}
	input := domain.Step{ID: "in", Kind: domain.StepUserInput, Trigger: domain.Fixed("p")}

	tests := []struct {
		name  string
		entry string
		steps []domain.Step
	}{
		{"empty id", "p", []domain.Step{prompt, {Kind: domain.StepPrompt, Message: "x", Trigger: domain.Fixed("p")}}},
		{"duplicate id", "p", []domain.Step{prompt, input, prompt}},
		{"missing entry", "start", []domain.Step{prompt, input}},
		{"undefined target", "p", []domain.Step{prompt}},
		{"no trigger", "p", []domain.Step{prompt, {ID: "in", Kind: domain.StepUserInput}}},
		{"unknown kind", "p", []domain.Step{prompt, {ID: "in", Kind: "MENU", Trigger: domain.Fixed("p")}}},
		{"prompt without message", "p", []domain.Step{{ID: "p", Kind: domain.StepPrompt, Trigger: domain.Fixed("in")}, input}},
		{"computed without routes", "p", []domain.Step{prompt, {ID: "in", Kind: domain.StepUserInput, Trigger: domain.Computed(func(string) string { return "p" })}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runtime.NewGraph(tt.entry, tt.steps...)
			assert.ErrorIs(t, err, domain.ErrInvalidGraph)
		})
	}

	t.Run("valid", func(t *testing.T) {
		g, err := runtime.NewGraph("p", prompt, input)
		require.NoError(t, err)
		assert.Len(t, g.Steps(), 2)
	})
}
