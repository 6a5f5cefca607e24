package ports

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

// AnswerProvider translates a question into an answer via a remote service.
// Implementations must not panic: every transport or decode failure is returned
// as domain.AnswerErr. A single attempt is made per call, bounded by ctx.
type AnswerProvider interface {
	Generate(ctx context.Context, req domain.AnswerRequest) domain.AnswerResult
}
