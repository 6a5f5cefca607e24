package domain

// AnswerRequest carries the raw question of one user turn.
type AnswerRequest struct {
	Question string `json:"question"`
}

// AnswerResult is either Ok (Text set, Err nil) or Err (Err set).
type AnswerResult struct {
	Text string
	Err  error
}

// AnswerOk builds a successful result.
func AnswerOk(text string) AnswerResult {
	return AnswerResult{Text: text}
}

// AnswerErr builds a failed result.
func AnswerErr(reason error) AnswerResult {
	if reason == nil {
		reason = ErrEmptyAnswer
	}
	return AnswerResult{Err: reason}
}

// IsOk reports whether the provider produced an answer.
func (r AnswerResult) IsOk() bool {
	return r.Err == nil
}
