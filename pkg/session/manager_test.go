package session_test

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/adapters/redis"
	"github.com/aretw0/parley/pkg/adapters/static"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/session"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, provider ports.AnswerProvider, store ports.SessionStore, opts ...session.Option) *session.Manager {
	t.Helper()
	engine, err := parley.New(provider)
	require.NoError(t, err)
	opts = append([]session.Option{session.WithIDGenerator(func() string { return "fixed-id" })}, opts...)
	return session.NewManager(engine, store, opts...)
}

func TestManager_StartAndSubmit(t *testing.T) {
	store := memory.NewStore()
	mgr := newManager(t, static.NewCanned("Chlorophyll is a green pigment."), store)
	ctx := context.Background()

	id, views, err := mgr.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", id)
	require.Len(t, views, 2)
	assert.Equal(t, domain.DefaultPromptMessage, views[0].Content)
	assert.True(t, views[1].AwaitingInput)

	snap, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StepIDUserInput, snap.CurrentStepID)

	views, err = mgr.Submit(ctx, id, "What is chlorophyll?")
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, "Chlorophyll is a green pigment.", views[0].Content)
	assert.Equal(t, domain.StepPrompt, views[1].Kind)
	assert.True(t, views[2].AwaitingInput)

	snap, err = store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Turns)
	assert.Equal(t, "Chlorophyll is a green pigment.", snap.Conversation.Answer)
	assert.False(t, snap.Conversation.IsGenerating)

	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, ids)
}

func TestManager_SubmitUnknownSession(t *testing.T) {
	mgr := newManager(t, static.NewEcho(""), memory.NewStore())
	_, err := mgr.Submit(context.Background(), "nope", "hi")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = mgr.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_OverlappingSubmitAndCheckpoint(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	provider := static.Func(func(context.Context, domain.AnswerRequest) domain.AnswerResult {
		close(started)
		<-release
		return domain.AnswerOk("done")
	})

	store := memory.NewStore()
	mgr := newManager(t, provider, store)
	ctx := context.Background()
	id, _, err := mgr.Start(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := mgr.Submit(ctx, id, "first")
		assert.NoError(t, err)
	}()
	<-started

	_, err = mgr.Submit(ctx, id, "second")
	assert.ErrorIs(t, err, domain.ErrGenerationInProgress)

	// Checkpointed when the request started.
	snap, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.True(t, snap.Conversation.IsGenerating)
	assert.Equal(t, domain.LoadingMessage, snap.Conversation.Answer)

	conv, err := mgr.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, conv.State().IsGenerating)

	close(release)
	wg.Wait()

	snap, err = store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "done", snap.Conversation.Answer)
}

func TestManager_ResumeInterruptedSession(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	crashed := domain.NewSnapshot("crashed", domain.StepIDUserInput)
	crashed.Conversation = domain.ConversationRecord{Question: "lost?", Answer: domain.LoadingMessage, IsGenerating: true}
	crashed.Turns = 1
	require.NoError(t, store.Save(ctx, "crashed", crashed))

	mgr := newManager(t, static.NewCanned("recovered"), store)

	conv, err := mgr.Get(ctx, "crashed")
	require.NoError(t, err)
	assert.Equal(t, domain.FailureMessage, conv.State().Answer)

	snap, err := store.Load(ctx, "crashed")
	require.NoError(t, err)
	assert.False(t, snap.Conversation.IsGenerating, "recovered turn is persisted")

	views, err := mgr.Submit(ctx, "crashed", "again")
	require.NoError(t, err)
	require.Len(t, views, 6)
	assert.Equal(t, domain.FailureMessage, views[0].Content)
	assert.Equal(t, domain.StepPrompt, views[1].Kind)
	assert.Equal(t, domain.StepUserInput, views[2].Kind)
	assert.Equal(t, "recovered", views[3].Content)
}

func TestManager_Delete(t *testing.T) {
	store := memory.NewStore()
	mgr := newManager(t, static.NewEcho(""), store)
	ctx := context.Background()

	id, _, err := mgr.Start(ctx)
	require.NoError(t, err)
	require.NoError(t, mgr.Delete(ctx, id))

	_, err = mgr.Get(ctx, id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_RedisWithLocker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := redis.NewFromClient(client)
	locker := redis.NewLocker(client, store.Prefix())
	ctx := context.Background()

	replicaA := newManager(t, static.NewEcho("A: "), store, session.WithLocker(locker))
	replicaB := newManager(t, static.NewEcho("B: "), store, session.WithLocker(locker))

	id, _, err := replicaA.Start(ctx)
	require.NoError(t, err)

	views, err := replicaB.Submit(ctx, id, "one")
	require.NoError(t, err)
	assert.Equal(t, "B: one", views[0].Content)

	views, err = replicaA.Submit(ctx, id, "two")
	require.NoError(t, err)
	assert.Equal(t, "A: two", views[0].Content)

	snap, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Turns, "replica A must see replica B's turn")
	assert.False(t, mr.Exists(store.Prefix()+"lock:"+id), "lock released")
}

func TestManager_RedisPendingAnswerOnOtherReplica(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := redis.NewFromClient(client)
	locker := redis.NewLocker(client, store.Prefix())
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	slow := static.Func(func(context.Context, domain.AnswerRequest) domain.AnswerResult {
		close(started)
		<-release
		return domain.AnswerOk("from A")
	})

	replicaA := newManager(t, slow, store, session.WithLocker(locker))
	replicaB := newManager(t, static.NewEcho("B: "), store, session.WithLocker(locker))

	id, _, err := replicaA.Start(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := replicaA.Submit(ctx, id, "slow question")
		assert.NoError(t, err)
	}()
	<-started

	conv, err := replicaB.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, conv.ReadOnly())
	state := conv.State()
	assert.True(t, state.IsGenerating)
	assert.Equal(t, domain.LoadingMessage, state.Answer)
	assert.Equal(t, "slow question", state.Question)
	assert.Equal(t, domain.StepIDUserInput, conv.Current().ID)

	snap, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.True(t, snap.Conversation.IsGenerating, "replica B must not complete A's turn")

	_, err = replicaB.Submit(ctx, id, "impatient")
	assert.ErrorIs(t, err, domain.ErrGenerationInProgress)

	close(release)
	wg.Wait()

	conv, err = replicaB.Get(ctx, id)
	require.NoError(t, err)
	state = conv.State()
	assert.False(t, state.IsGenerating)
	assert.Equal(t, "from A", state.Answer)
	assert.Equal(t, 1, conv.Snapshot().Turns)
}
