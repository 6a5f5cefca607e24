// Package gemini implements ports.AnswerProvider on top of the Gemini
// generateContent API. Client speaks the REST endpoint directly; SDKClient
// goes through google.golang.org/genai.
//
// Both send exactly one request per question and never retry. Transport,
// status and decoding failures are returned as *domain.ProviderError inside
// an Err result. The API key never appears in those errors.
package gemini
