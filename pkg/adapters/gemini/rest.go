package gemini

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/bytedance/sonic"
)

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature *float32 `json:"temperature,omitempty"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
}

type apiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Client calls the generateContent REST endpoint.
type Client struct {
	apiKey string
	settings
}

// NewClient creates a REST provider. The key is passed explicitly; nothing
// is read from the environment here.
func NewClient(apiKey string, opts ...Option) *Client {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return &Client{apiKey: apiKey, settings: s}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Generate sends the question as a single user turn and returns the first
// text part of the first candidate.
func (c *Client) Generate(ctx context.Context, req domain.AnswerRequest) domain.AnswerResult {
	start := time.Now()
	text, status, err := c.generate(ctx, req.Question)
	if err != nil {
		c.logger.Debug("gemini request failed", "model", c.model, "status", status, "duration", time.Since(start), "err", err)
		return domain.AnswerErr(&domain.ProviderError{
			Provider:   providerName,
			Op:         "generateContent",
			StatusCode: status,
			Err:        err,
		})
	}
	c.logger.Debug("gemini request completed", "model", c.model, "duration", time.Since(start))
	return domain.AnswerOk(text)
}

func (c *Client) generate(ctx context.Context, question string) (string, int, error) {
	body := generateRequest{
		Contents: []content{{Parts: []part{{Text: question}}}},
	}
	if c.temperature != nil {
		body.GenerationConfig = &generationConfig{Temperature: c.temperature}
	}

	payload, err := sonic.Marshal(body)
	if err != nil {
		return "", 0, fmt.Errorf("encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimRight(c.baseURL, "/"), url.PathEscape(c.model), url.QueryEscape(c.apiKey))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", 0, c.redact(fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", 0, c.redact(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiErrorBody
		if sonic.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", resp.StatusCode, fmt.Errorf("%s: %s", apiErr.Error.Status, c.scrub(apiErr.Error.Message))
		}
		return "", resp.StatusCode, errors.New(http.StatusText(resp.StatusCode))
	}

	var out generateResponse
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return "", resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", resp.StatusCode, fmt.Errorf("response has no candidate text: %w", domain.ErrEmptyAnswer)
	}

	text := out.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", resp.StatusCode, domain.ErrEmptyAnswer
	}
	return text, resp.StatusCode, nil
}

// redact strips the request URL (which carries the key) from transport errors.
func (c *Client) redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s %s: %w", urlErr.Op, c.safeEndpoint(), urlErr.Err)
	}
	return errors.New(c.scrub(err.Error()))
}

func (c *Client) safeEndpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(c.baseURL, "/"), c.model)
}

func (c *Client) scrub(s string) string {
	if c.apiKey == "" {
		return s
	}
	s = strings.ReplaceAll(s, url.QueryEscape(c.apiKey), "REDACTED")
	return strings.ReplaceAll(s, c.apiKey, "REDACTED")
}
