package parley_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/adapters/static"
	"github.com/aretw0/parley/pkg/domain"
)

func TestFacade_Chlorophyll(t *testing.T) {
	provider := static.NewCanned("Chlorophyll is a green pigment.")
	engine, err := parley.New(provider)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx := context.Background()
	conv, err := engine.Start(ctx, "chlorophyll")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	views, err := conv.Advance(ctx)
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected prompt and input views, got %d", len(views))
	}
	if views[0].Content != "What is your question?" {
		t.Errorf("unexpected prompt %q", views[0].Content)
	}
	if !views[1].AwaitingInput {
		t.Error("expected input step to await input")
	}

	views, err = conv.Exchange(ctx, "What is chlorophyll?")
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}
	if len(views) != 3 {
		t.Fatalf("expected answer, prompt and input views, got %d", len(views))
	}
	if views[0].Kind != domain.StepBotResponse || views[0].Content != "Chlorophyll is a green pigment." {
		t.Errorf("unexpected answer view %+v", views[0])
	}
	if views[1].Content != "What is your question?" {
		t.Errorf("expected loop back to prompt, got %+v", views[1])
	}

	calls := provider.Calls()
	if len(calls) != 1 || calls[0].Question != "What is chlorophyll?" {
		t.Errorf("provider received %+v", calls)
	}

	state := conv.State()
	if state.Question != "What is chlorophyll?" || state.IsGenerating {
		t.Errorf("unexpected final state %+v", state)
	}
}

func TestFacade_FailureKeepsLooping(t *testing.T) {
	provider := static.NewCanned().
		Push(domain.AnswerErr(errors.New("network down"))).
		Push(domain.AnswerOk("back online"))

	engine, err := parley.New(provider)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	conv, _ := engine.Start(ctx, "")
	if _, err := conv.Advance(ctx); err != nil {
		t.Fatal(err)
	}

	views, err := conv.Exchange(ctx, "first")
	if err != nil {
		t.Fatal(err)
	}
	if views[0].Content != domain.FailureMessage {
		t.Errorf("expected failure message, got %q", views[0].Content)
	}

	views, err = conv.Exchange(ctx, "second")
	if err != nil {
		t.Fatal(err)
	}
	if views[0].Content != "back online" {
		t.Errorf("expected recovery, got %q", views[0].Content)
	}
}

func TestFacade_Timeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	slow := static.Func(func(context.Context, domain.AnswerRequest) domain.AnswerResult {
		<-block
		return domain.AnswerOk("never shown")
	})

	engine, err := parley.New(slow, parley.WithRequestTimeout(10*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	conv, _ := engine.Start(ctx, "slow")
	_, _ = conv.Advance(ctx)

	views, err := conv.Exchange(ctx, "hello?")
	if err != nil {
		t.Fatal(err)
	}
	if views[0].Content != domain.FailureMessage {
		t.Errorf("expected timeout to show failure message, got %q", views[0].Content)
	}
}

func TestFacade_NilProvider(t *testing.T) {
	_, err := parley.New(nil)
	var cfgErr *domain.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestFacade_CustomPromptAndInspect(t *testing.T) {
	engine, err := parley.New(static.NewEcho(""), parley.WithPromptMessage("Ask away"))
	if err != nil {
		t.Fatal(err)
	}
	steps := engine.Inspect()
	if len(steps) != 3 || steps[0].Message != "Ask away" {
		t.Errorf("unexpected steps %+v", steps)
	}
	if engine.Entry() != domain.StepIDPrompt {
		t.Errorf("unexpected entry %q", engine.Entry())
	}
}

func TestFacade_InvalidSteps(t *testing.T) {
	_, err := parley.New(static.NewEcho(""), parley.WithSteps("missing",
		domain.Step{ID: "a", Kind: domain.StepPrompt, Message: "hi", Trigger: domain.Fixed("a")},
	))
	if !errors.Is(err, domain.ErrInvalidGraph) {
		t.Fatalf("expected ErrInvalidGraph, got %v", err)
	}
}

func TestFacade_Resume(t *testing.T) {
	engine, _ := parley.New(static.NewEcho("echo: "))
	ctx := context.Background()

	conv, _ := engine.Start(ctx, "persisted")
	_, _ = conv.Advance(ctx)
	if _, err := conv.Exchange(ctx, "one"); err != nil {
		t.Fatal(err)
	}

	resumed, err := engine.Resume(conv.Snapshot())
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if resumed.ID() != "persisted" {
		t.Errorf("expected session id to survive, got %q", resumed.ID())
	}
	views, err := resumed.Exchange(ctx, "two")
	if err != nil {
		t.Fatal(err)
	}
	if views[0].Content != "echo: two" {
		t.Errorf("unexpected answer %q", views[0].Content)
	}
	if got := resumed.Snapshot().Turns; got != 2 {
		t.Errorf("expected 2 turns, got %d", got)
	}
}
