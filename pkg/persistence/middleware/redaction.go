package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// Mask replaces redacted text.
const Mask = "***"

type redactionMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware masks every match of the patterns in the stored
// question and answer. The live conversation is not modified.
func NewRedactionMiddleware(patterns []string) (Middleware, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &redactionMiddleware{next: next, patterns: compiled}
	}, nil
}

func (m *redactionMiddleware) Save(ctx context.Context, sessionID string, snapshot *domain.Snapshot) error {
	cloned := snapshot.Clone()
	cloned.Conversation.Question = m.mask(cloned.Conversation.Question)
	// The placeholders are fixed strings and must survive a restore intact.
	if !cloned.Conversation.IsGenerating && cloned.Conversation.Answer != domain.FailureMessage {
		cloned.Conversation.Answer = m.mask(cloned.Conversation.Answer)
	}
	return m.next.Save(ctx, sessionID, cloned)
}

func (m *redactionMiddleware) mask(s string) string {
	for _, re := range m.patterns {
		s = re.ReplaceAllString(s, Mask)
	}
	return s
}

func (m *redactionMiddleware) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *redactionMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *redactionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
