package observability_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/adapters/static"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	provider := static.NewCanned("ok").Push(domain.AnswerErr(errors.New("down")))
	engine, err := parley.New(provider, parley.WithLifecycleHooks(metrics.Hooks()))
	require.NoError(t, err)

	ctx := context.Background()
	conv, err := engine.Start(ctx, "metrics")
	require.NoError(t, err)
	_, err = conv.Advance(ctx)
	require.NoError(t, err)
	_, err = conv.Exchange(ctx, "one")
	require.NoError(t, err)
	_, err = conv.Exchange(ctx, "two")
	require.NoError(t, err)

	expected := `
# HELP parley_generations_total Answer requests by outcome
# TYPE parley_generations_total counter
parley_generations_total{outcome="failure"} 1
parley_generations_total{outcome="ok"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, bytes.NewBufferString(expected), "parley_generations_total"))

	// one series per step
	n, err := testutil.GatherAndCount(reg, "parley_step_visits_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `parley_step_visits_total{kind="PROMPT",step_id="1"} 3`)
	assert.Contains(t, string(body), "parley_generations_in_flight 0")
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	_, err = observability.NewMetrics(reg)
	assert.Error(t, err)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	engine, err := parley.New(static.NewCanned().Push(domain.AnswerErr(errors.New("down"))),
		parley.WithLifecycleHooks(observability.LoggingHooks(logger)))
	require.NoError(t, err)

	ctx := context.Background()
	conv, _ := engine.Start(ctx, "logged")
	_, _ = conv.Advance(ctx)
	_, _ = conv.Exchange(ctx, "q")

	out := buf.String()
	assert.Contains(t, out, "msg=step_enter")
	assert.Contains(t, out, "session_id=logged")
	assert.Contains(t, out, "level=WARN msg=generate_finish")
	assert.Contains(t, out, "err=down")
}
