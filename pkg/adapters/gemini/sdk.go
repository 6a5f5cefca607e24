package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"google.golang.org/genai"
)

// SDKClient answers through the official genai SDK.
type SDKClient struct {
	client *genai.Client
	key    string
	settings
}

// NewSDKClient creates a genai-backed provider for the Gemini API backend.
func NewSDKClient(ctx context.Context, apiKey string, opts ...Option) (*SDKClient, error) {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: s.httpClient,
	}
	if s.baseURL != DefaultBaseURL {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: s.baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &SDKClient{client: client, key: apiKey, settings: s}, nil
}

// Model returns the configured model name.
func (c *SDKClient) Model() string {
	return c.model
}

// Generate sends the question and returns the concatenated text parts of the
// first candidate.
func (c *SDKClient) Generate(ctx context.Context, req domain.AnswerRequest) domain.AnswerResult {
	start := time.Now()

	var config *genai.GenerateContentConfig
	if c.temperature != nil {
		config = &genai.GenerateContentConfig{Temperature: c.temperature}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.Question), config)
	if err != nil {
		c.logger.Debug("genai request failed", "model", c.model, "duration", time.Since(start), "err", err)
		return domain.AnswerErr(&domain.ProviderError{
			Provider:   providerName,
			Op:         "generateContent",
			StatusCode: statusOf(err),
			Err:        errors.New(c.scrub(err.Error())),
		})
	}

	text := candidateText(resp)
	if strings.TrimSpace(text) == "" {
		return domain.AnswerErr(&domain.ProviderError{
			Provider: providerName,
			Op:       "generateContent",
			Err:      domain.ErrEmptyAnswer,
		})
	}
	c.logger.Debug("genai request completed", "model", c.model, "duration", time.Since(start))
	return domain.AnswerOk(text)
}

func candidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

func statusOf(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

func (c *SDKClient) scrub(s string) string {
	if c.key == "" {
		return s
	}
	return strings.ReplaceAll(s, c.key, "REDACTED")
}
