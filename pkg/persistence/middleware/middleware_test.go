package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/persistence/middleware"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, middleware.KeySize)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func encrypted(t *testing.T, next ports.SessionStore, cfg middleware.EncryptionConfig) ports.SessionStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return middleware.Chain(next, mw)
}

func sampleSnapshot(id string) *domain.Snapshot {
	snap := domain.NewSnapshot(id, domain.StepIDPrompt)
	snap.CurrentStepID = domain.StepIDResponse
	snap.Conversation = domain.ConversationRecord{Question: "What is my card 4111-1111-1111-1111?", Answer: "A card."}
	snap.Turns = 2
	return snap
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	store := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ctx := context.Background()

	original := sampleSnapshot("s1")
	require.NoError(t, store.Save(ctx, "s1", original))

	raw, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.NotEmpty(t, raw.Sealed)
	assert.Empty(t, raw.Conversation.Question)
	assert.Empty(t, raw.CurrentStepID)
	assert.Equal(t, "s1", raw.SessionID)

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, original.Conversation, loaded.Conversation)
	assert.Equal(t, domain.StepIDResponse, loaded.CurrentStepID)
	assert.Equal(t, 2, loaded.Turns)
	assert.Empty(t, loaded.Sealed)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)
	oldStore := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey})
	newStore := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: newKey, FallbackKeys: [][]byte{oldKey}})
	ctx := context.Background()

	require.NoError(t, oldStore.Save(ctx, "s1", sampleSnapshot("s1")))

	loaded, err := newStore.Load(ctx, "s1")
	require.NoError(t, err, "fallback key must decrypt old data")

	loaded.Turns = 3
	require.NoError(t, newStore.Save(ctx, "s1", loaded))

	_, err = oldStore.Load(ctx, "s1")
	assert.Error(t, err, "old key alone cannot read data sealed with the new key")
}

func TestEncryptionMiddleware_RejectsPlainSnapshot(t *testing.T) {
	underlying := memory.NewStore()
	store := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ctx := context.Background()

	require.NoError(t, underlying.Save(ctx, "plain", sampleSnapshot("plain")))
	_, err := store.Load(ctx, "plain")
	assert.ErrorIs(t, err, middleware.ErrNotSealed)

	_, err = store.Load(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.Error(t, err)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.Error(t, err)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, encrypted(t, memory.NewStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)}))
}

func TestRedactionMiddleware(t *testing.T) {
	underlying := memory.NewStore()
	mw, err := middleware.NewRedactionMiddleware([]string{`\d{4}-\d{4}-\d{4}-\d{4}`})
	require.NoError(t, err)
	store := middleware.Chain(underlying, mw)
	ctx := context.Background()

	original := sampleSnapshot("s1")
	require.NoError(t, store.Save(ctx, "s1", original))
	assert.Contains(t, original.Conversation.Question, "4111", "caller's snapshot is untouched")

	raw, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "What is my card ***?", raw.Conversation.Question)
	assert.Equal(t, "A card.", raw.Conversation.Answer)
}

func TestRedactionMiddleware_KeepsPlaceholders(t *testing.T) {
	underlying := memory.NewStore()
	mw, err := middleware.NewRedactionMiddleware([]string{`(?i)sorry`, `(?i)loading`})
	require.NoError(t, err)
	store := middleware.Chain(underlying, mw)
	ctx := context.Background()

	snap := domain.NewSnapshot("s1", domain.StepIDUserInput)
	snap.Conversation = domain.ConversationRecord{Question: "q", Answer: domain.LoadingMessage, IsGenerating: true}
	require.NoError(t, store.Save(ctx, "s1", snap))

	raw, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.LoadingMessage, raw.Conversation.Answer)
}

func TestRedactionMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewRedactionMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestChain_RedactThenEncrypt(t *testing.T) {
	underlying := memory.NewStore()
	redact, err := middleware.NewRedactionMiddleware([]string{`secret`})
	require.NoError(t, err)
	seal, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	store := middleware.Chain(underlying, redact, seal)
	ctx := context.Background()

	snap := domain.NewSnapshot("s1", domain.StepIDPrompt)
	snap.Conversation.Question = "my secret"
	require.NoError(t, store.Save(ctx, "s1", snap))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "my ***", loaded.Conversation.Question)
}
