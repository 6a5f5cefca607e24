// Package http exposes conversation sessions over a small JSON API.
package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/runner"
	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodyBytes bounds request bodies; input itself is limited by the sanitizer.
const maxBodyBytes = 1 << 20

// Sessions is the session lifecycle the API drives (see session.Manager).
type Sessions interface {
	Start(ctx context.Context) (string, []domain.StepView, error)
	Get(ctx context.Context, sessionID string) (*parley.Conversation, error)
	Submit(ctx context.Context, sessionID, text string) ([]domain.StepView, error)
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]string, error)
}

// Server holds the handlers' dependencies.
type Server struct {
	Sessions Sessions
	Steps    []domain.Step
	Streams  *StreamManager
	Metrics  http.Handler
	Logger   *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithSteps publishes the step graph on GET /steps.
func WithSteps(steps []domain.Step) Option {
	return func(s *Server) {
		s.Steps = steps
	}
}

// WithStreams enables GET /sessions/{id}/events. The same StreamManager's
// Hooks must be registered on the engine.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithMetricsHandler mounts a Prometheus handler on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.Logger = logger
		}
	}
}

// NewHandler creates the HTTP handler.
func NewHandler(sessions Sessions, opts ...Option) http.Handler {
	s := &Server{
		Sessions: sessions,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/steps", s.GetSteps)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.StartSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/input", s.SubmitInput)
			if s.Streams != nil {
				r.Get("/events", s.SubscribeEvents)
			}
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionResponse is the body returned by session endpoints.
type SessionResponse struct {
	SessionID     string                    `json:"session_id"`
	CurrentStepID string                    `json:"current_step_id,omitempty"`
	Conversation  domain.ConversationRecord `json:"conversation"`
	Turns         int                       `json:"turns"`

	// Views lists what the client should display, in order, ending at the
	// next input step.
	Views []domain.StepView `json:"views,omitempty"`
}

// InputRequest is the body of POST /sessions/{id}/input.
type InputRequest struct {
	Input string `json:"input"`
}

// StepResponse is one node of GET /steps.
type StepResponse struct {
	ID      string          `json:"id"`
	Kind    domain.StepKind `json:"kind"`
	Message string          `json:"message,omitempty"`
	Next    []string        `json:"next"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "parley-http",
		"version": strings.TrimSpace(parley.Version),
	})
}

// GetSteps handles GET /steps.
func (s *Server) GetSteps(w http.ResponseWriter, r *http.Request) {
	resp := make([]StepResponse, 0, len(s.Steps))
	for _, st := range s.Steps {
		resp = append(resp, StepResponse{ID: st.ID, Kind: st.Kind, Message: st.Message, Next: st.Next()})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// StartSession handles POST /sessions.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	id, views, err := s.Sessions.Start(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondSession(w, r, http.StatusCreated, id, views)
}

// GetSession handles GET /sessions/{id}. It reports the loading placeholder
// while an answer is pending.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	s.respondSession(w, r, http.StatusOK, chi.URLParam(r, "sessionID"), nil)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubmitInput handles POST /sessions/{id}/input. It blocks until the answer
// settles and returns the answer view followed by the next prompt.
func (s *Server) SubmitInput(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var body InputRequest
	if err := sonic.ConfigDefault.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body); err != nil {
		s.Logger.Warn("SubmitInput: invalid request body", "err", err)
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	clean, err := runner.SanitizeInput(body.Input)
	if err != nil {
		s.Logger.Warn("SubmitInput: input rejected", "err", err, "size", len(body.Input))
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if strings.TrimSpace(clean) == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "input is empty"})
		return
	}

	views, err := s.Sessions.Submit(r.Context(), sessionID, clean)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondSession(w, r, http.StatusOK, sessionID, views)
}

func (s *Server) respondSession(w http.ResponseWriter, r *http.Request, status int, sessionID string, views []domain.StepView) {
	conv, err := s.Sessions.Get(r.Context(), sessionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	snap := conv.Snapshot()
	s.writeJSON(w, status, SessionResponse{
		SessionID:     sessionID,
		CurrentStepID: snap.CurrentStepID,
		Conversation:  snap.Conversation,
		Turns:         snap.Turns,
		Views:         views,
	})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrGenerationInProgress), errors.Is(err, domain.ErrNotAwaitingInput), errors.Is(err, domain.ErrReadOnly):
		return http.StatusConflict
	case errors.Is(err, context.Canceled):
		return 499
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "err", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := sonic.ConfigDefault.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "err", err)
	}
}
