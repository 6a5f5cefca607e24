package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/aretw0/parley/pkg/adapters/file"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "parley version ")
}

func TestGraphCommand_NoAPIKeyNeeded(t *testing.T) {
	t.Setenv("PARLEY_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	out, err := execute(t, "graph")
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, "userInput")
}

func TestGraphCommand_UnknownFormat(t *testing.T) {
	_, err := execute(t, "graph", "--format", "dot")
	assert.ErrorContains(t, err, "unknown format")
}

func TestAskCommand_Echo(t *testing.T) {
	out, err := execute(t, "ask", "--driver", "echo", "why", "is", "the", "sky", "blue?")
	require.NoError(t, err)
	assert.Equal(t, "You asked: why is the sky blue?\n", out)
}

func TestSessionCommands(t *testing.T) {
	dir := t.TempDir()
	snap := domain.NewSnapshot("s1", domain.StepIDPrompt)
	snap.Conversation = domain.ConversationRecord{Question: "first", Answer: "You asked: first"}
	require.NoError(t, file.New(dir).Save(context.Background(), "s1", snap))

	out, err := execute(t, "session", "ls", "--store-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "- s1")

	out, err = execute(t, "session", "inspect", "s1", "--store-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, `"question": "first"`)

	_, err = execute(t, "session", "inspect", "missing", "--store-dir", dir)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = execute(t, "session", "rm", "--store-dir", dir)
	assert.ErrorContains(t, err, "--all")

	out, err = execute(t, "session", "rm", "s1", "--store-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed session 's1'")

	out, err = execute(t, "session", "ls", "--store-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No saved sessions found.")
}
