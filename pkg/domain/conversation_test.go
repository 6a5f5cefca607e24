package domain_test

import (
	"errors"
	"testing"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestConversationState_BeginGenerating(t *testing.T) {
	var c domain.ConversationState
	c.SetQuestion("What is chlorophyll?")
	c.BeginGenerating()

	assert.True(t, c.IsGenerating())
	assert.Equal(t, domain.LoadingMessage, c.Answer())
	assert.Equal(t, "What is chlorophyll?", c.Question())
}

func TestConversationState_BeginGeneratingIsIdempotent(t *testing.T) {
	var c domain.ConversationState
	c.SetQuestion("q")
	c.BeginGenerating()
	first := c.Record()

	c.BeginGenerating()
	assert.Equal(t, first, c.Record())
}

func TestConversationState_CompleteGenerating(t *testing.T) {
	tests := []struct {
		name   string
		result domain.AnswerResult
		want   string
	}{
		{"Ok", domain.AnswerOk("42"), "42"},
		{"Err hides reason", domain.AnswerErr(errors.New("dial tcp: connection refused")), domain.FailureMessage},
		{"Blank answer", domain.AnswerOk("   "), domain.FailureMessage},
		{"Err without reason", domain.AnswerErr(nil), domain.FailureMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c domain.ConversationState
			c.SetQuestion("q")
			c.BeginGenerating()
			c.CompleteGenerating(tt.result)

			assert.False(t, c.IsGenerating())
			assert.Equal(t, tt.want, c.Answer())
			assert.NotContains(t, c.Answer(), "connection refused")
		})
	}
}

func TestRestoreConversation(t *testing.T) {
	rec := domain.ConversationRecord{Question: "q", Answer: "a"}
	c := domain.RestoreConversation(rec)
	assert.Equal(t, rec, c.Record())
}
