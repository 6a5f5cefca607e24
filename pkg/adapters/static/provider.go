// Package static provides answer providers that never leave the process.
// They back the "echo" driver and are handy as test doubles.
package static

import (
	"context"
	"sync"

	"github.com/aretw0/parley/pkg/domain"
)

// Func adapts a plain function to ports.AnswerProvider.
type Func func(ctx context.Context, req domain.AnswerRequest) domain.AnswerResult

// Generate calls f.
func (f Func) Generate(ctx context.Context, req domain.AnswerRequest) domain.AnswerResult {
	return f(ctx, req)
}

// Echo answers with the question itself, optionally prefixed.
type Echo struct {
	Prefix string
}

// NewEcho creates an Echo provider.
func NewEcho(prefix string) *Echo {
	return &Echo{Prefix: prefix}
}

// Generate returns Prefix + question.
func (e *Echo) Generate(_ context.Context, req domain.AnswerRequest) domain.AnswerResult {
	return domain.AnswerOk(e.Prefix + req.Question)
}

// Canned replays a fixed list of results in order, repeating the last one.
type Canned struct {
	mu      sync.Mutex
	results []domain.AnswerResult
	calls   []domain.AnswerRequest
}

// NewCanned creates a provider answering with texts in order.
func NewCanned(texts ...string) *Canned {
	c := &Canned{}
	for _, t := range texts {
		c.results = append(c.results, domain.AnswerOk(t))
	}
	return c
}

// Push appends a result to the queue.
func (c *Canned) Push(result domain.AnswerResult) *Canned {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, result)
	return c
}

// Generate pops the next result.
func (c *Canned) Generate(_ context.Context, req domain.AnswerRequest) domain.AnswerResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, req)

	if len(c.results) == 0 {
		return domain.AnswerErr(domain.ErrEmptyAnswer)
	}
	res := c.results[0]
	if len(c.results) > 1 {
		c.results = c.results[1:]
	}
	return res
}

// Calls returns the requests received so far.
func (c *Canned) Calls() []domain.AnswerRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.AnswerRequest(nil), c.calls...)
}
