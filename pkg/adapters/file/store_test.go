package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/parley/pkg/adapters/file"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.SessionStore = (*file.Store)(nil)

func TestFileStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_SurvivesNewInstance(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	snap := domain.NewSnapshot("s1", domain.StepIDPrompt)
	snap.CurrentStepID = domain.StepIDUserInput
	snap.Conversation = domain.ConversationRecord{Question: "first", Answer: "You asked: first"}
	snap.Turns = 1
	require.NoError(t, file.New(dir).Save(ctx, "s1", snap))

	_, err := os.Stat(filepath.Join(dir, "s1.json"))
	require.NoError(t, err)

	loaded, err := file.New(dir).Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, snap.Conversation, loaded.Conversation)
	assert.Equal(t, 1, loaded.Turns)
}

func TestFileStore_OverwriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		snap := domain.NewSnapshot("s1", domain.StepIDPrompt)
		snap.Turns = i
		require.NoError(t, store.Save(ctx, "s1", snap))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "s1.json", entries[0].Name())

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Turns)
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "absent"))
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFileStore_RejectsPathLikeIDs(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{"", "..", "../escape", `a\b`, "tmp-x"} {
		err := store.Save(ctx, id, domain.NewSnapshot(id, domain.StepIDPrompt))
		assert.ErrorIs(t, err, file.ErrInvalidSessionID, id)
	}
	_, err := store.Load(ctx, "../escape")
	assert.ErrorIs(t, err, file.ErrInvalidSessionID)
}

func TestFileStore_Delete(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	assert.NoError(t, store.Delete(ctx, "never-saved"))

	require.NoError(t, store.Save(ctx, "gone", domain.NewSnapshot("gone", domain.StepIDPrompt)))
	require.NoError(t, store.Delete(ctx, "gone"))
	_, err := store.Load(ctx, "gone")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
