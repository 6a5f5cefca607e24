package gemini

import (
	"io"
	"log/slog"
	"net/http"
)

const (
	// DefaultBaseURL is the public Gemini API root.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	// DefaultModel is requested when no model is configured.
	DefaultModel = "gemini-pro"

	providerName = "gemini"

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 4 << 20
)

type settings struct {
	model       string
	baseURL     string
	httpClient  *http.Client
	logger      *slog.Logger
	temperature *float32
}

func defaultSettings() settings {
	return settings{
		model:      DefaultModel,
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Option configures a Gemini client.
type Option func(*settings)

// WithModel selects the model name (default: gemini-pro).
func WithModel(model string) Option {
	return func(s *settings) {
		if model != "" {
			s.model = model
		}
	}
}

// WithBaseURL overrides the API root, mostly for tests and proxies.
func WithBaseURL(url string) Option {
	return func(s *settings) {
		if url != "" {
			s.baseURL = url
		}
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) {
		if c != nil {
			s.httpClient = c
		}
	}
}

// WithLogger sets a structured logger for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTemperature sets the sampling temperature. Unset leaves the model default.
func WithTemperature(t float32) Option {
	return func(s *settings) {
		s.temperature = &t
	}
}
