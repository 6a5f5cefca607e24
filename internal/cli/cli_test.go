package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/adapters/file"
	"github.com/aretw0/parley/pkg/adapters/gemini"
	"github.com/aretw0/parley/pkg/adapters/static"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoConfig() *config.Config {
	return &config.Config{
		Prompt: domain.DefaultPromptMessage,
		Provider: config.ProviderConfig{
			Driver:  config.DriverEcho,
			Model:   gemini.DefaultModel,
			BaseURL: gemini.DefaultBaseURL,
			Timeout: time.Second,
		},
		Store:  config.StoreConfig{Driver: config.StoreMemory},
		Server: config.ServerConfig{Port: 8080},
		Log:    config.LogConfig{Level: "info", Format: "text"},
	}
}

func TestNewProvider(t *testing.T) {
	cfg := echoConfig()
	p, err := NewProvider(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &static.Echo{}, p)

	cfg.Provider.Driver = config.DriverREST
	cfg.APIKey = "k"
	temp := float32(0.3)
	cfg.Provider.Temperature = &temp
	p, err = NewProvider(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	client, ok := p.(*gemini.Client)
	require.True(t, ok)
	assert.Equal(t, gemini.DefaultModel, client.Model())

	cfg.Provider.Driver = "bogus"
	_, err = NewProvider(context.Background(), cfg, logging.NewNop())
	var cfgErr *domain.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestNewLogger(t *testing.T) {
	_, err := NewLogger(config.LogConfig{Level: "loud"}, false)
	var cfgErr *domain.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "log.level", cfgErr.Key)

	logger, err := NewLogger(config.LogConfig{Level: "error"}, true)
	require.NoError(t, err)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug), "debug flag must force debug level")
}

func TestNewBackend(t *testing.T) {
	b, err := NewBackend(context.Background(), config.StoreConfig{Driver: config.StoreMemory})
	require.NoError(t, err)
	assert.Nil(t, b.Locker)
	assert.NoError(t, b.Close())

	mr := miniredis.RunT(t)
	b, err = NewBackend(context.Background(), config.StoreConfig{Driver: config.StoreRedis, RedisAddr: mr.Addr(), Prefix: "test:"})
	require.NoError(t, err)
	defer b.Close()
	assert.NotNil(t, b.Locker)

	snap := domain.NewSnapshot("s1", domain.StepIDPrompt)
	require.NoError(t, b.Store.Save(context.Background(), "s1", snap))
	assert.True(t, mr.Exists("test:s1"))
}

func TestNewBackend_Encrypted(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.StoreConfig{
		Driver:         config.StoreRedis,
		RedisAddr:      mr.Addr(),
		Prefix:         "test:",
		EncryptionKey:  base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{1}, 32)),
		RedactPatterns: []string{`secret`},
	}
	b, err := NewBackend(context.Background(), cfg)
	require.NoError(t, err)
	defer b.Close()

	snap := domain.NewSnapshot("s1", domain.StepIDPrompt)
	snap.Conversation.Question = "my secret question"
	require.NoError(t, b.Store.Save(context.Background(), "s1", snap))

	raw, err := mr.Get("test:s1")
	require.NoError(t, err)
	assert.NotContains(t, raw, "my ***")
	assert.Contains(t, raw, `"sealed"`)

	loaded, err := b.Store.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "my *** question", loaded.Conversation.Question)

	_, err = NewBackend(context.Background(), config.StoreConfig{Driver: config.StoreMemory, RedactPatterns: []string{"("}})
	assert.Error(t, err)
}

func TestNewBackend_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewBackend(ctx, config.StoreConfig{Driver: config.StoreRedis, RedisAddr: addr})
	assert.Error(t, err)
}

func TestAsk(t *testing.T) {
	cfg := echoConfig()
	provider, err := NewProvider(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	engine, err := NewEngine(provider, cfg, logging.NewNop())
	require.NoError(t, err)

	answer, err := Ask(context.Background(), engine, "  What is chlorophyll?\n")
	require.NoError(t, err)
	assert.Equal(t, EchoPrefix+"What is chlorophyll?", answer)

	_, err = Ask(context.Background(), engine, "   ")
	assert.Error(t, err)
}

func TestRunChat(t *testing.T) {
	out := &bytes.Buffer{}
	err := RunChat(context.Background(), echoConfig(), ChatOptions{
		In:  strings.NewReader("hello\nquit\n"),
		Out: out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), domain.DefaultPromptMessage)
	assert.Contains(t, out.String(), EchoPrefix+"hello")
}

func TestRunChat_JSON(t *testing.T) {
	out := &bytes.Buffer{}
	err := RunChat(context.Background(), echoConfig(), ChatOptions{
		JSON: true,
		In:   strings.NewReader(`{"input":"hi"}` + "\n"),
		Out:  out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"content":"You asked: hi"`)
	assert.NotContains(t, out.String(), `"signal"`, "json mode has no loading indicator")
}

func TestRunChat_ResumesNamedSession(t *testing.T) {
	cfg := echoConfig()
	cfg.Store.Dir = t.TempDir()
	ctx := context.Background()

	out := &bytes.Buffer{}
	require.NoError(t, RunChat(ctx, cfg, ChatOptions{
		SessionID: "s1",
		JSON:      true,
		In:        strings.NewReader(`{"input":"first"}` + "\n"),
		Out:       out,
	}))
	assert.Contains(t, out.String(), `"content":"You asked: first"`)

	out.Reset()
	require.NoError(t, RunChat(ctx, cfg, ChatOptions{
		SessionID: "s1",
		JSON:      true,
		In:        strings.NewReader(`{"input":"second"}` + "\n"),
		Out:       out,
	}))
	assert.Contains(t, out.String(), `"content":"first"`, "resumed at the previous question")
	assert.Contains(t, out.String(), `"content":"You asked: second"`)

	snap, err := file.New(cfg.Store.Dir).Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Turns)
	assert.Equal(t, "second", snap.Conversation.Question)
}

func TestRunChat_FreshDiscardsSession(t *testing.T) {
	cfg := echoConfig()
	cfg.Store.Dir = t.TempDir()
	ctx := context.Background()

	require.NoError(t, RunChat(ctx, cfg, ChatOptions{
		SessionID: "s1",
		JSON:      true,
		In:        strings.NewReader(`{"input":"first"}` + "\n"),
		Out:       &bytes.Buffer{},
	}))

	out := &bytes.Buffer{}
	require.NoError(t, RunChat(ctx, cfg, ChatOptions{
		SessionID: "s1",
		Fresh:     true,
		JSON:      true,
		In:        strings.NewReader(""),
		Out:       out,
	}))
	assert.NotContains(t, out.String(), `"content":"first"`)

	snap, err := file.New(cfg.Store.Dir).Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Turns)
}

func TestNewBackend_File(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewBackend(context.Background(), config.StoreConfig{Driver: config.StoreFile, Dir: dir})
	require.NoError(t, err)
	defer backend.Close()
	assert.IsType(t, &file.Store{}, backend.Store)
	assert.Nil(t, backend.Locker)
}

func TestNewServerHandler(t *testing.T) {
	backend, err := NewBackend(context.Background(), config.StoreConfig{Driver: config.StoreMemory})
	require.NoError(t, err)
	handler, err := NewServerHandler(context.Background(), echoConfig(), logging.NewNop(), backend)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/sessions", nil))
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "parley_step_visits_total")
}
