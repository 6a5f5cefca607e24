// Package mcp exposes parley conversations as Model Context Protocol tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/runner"
	"github.com/bytedance/sonic"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// StepsURI is the resource exposing the step graph.
const StepsURI = "parley://steps"

// Sessions is the subset of session.Manager the MCP server needs.
type Sessions interface {
	Start(ctx context.Context) (string, []domain.StepView, error)
	Get(ctx context.Context, sessionID string) (*parley.Conversation, error)
	Submit(ctx context.Context, sessionID, text string) ([]domain.StepView, error)
}

// AskArgs are the arguments of the ask tool.
type AskArgs struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}

// AskResponse is the structured result of the ask tool.
type AskResponse struct {
	SessionID string `json:"session_id" jsonschema_description:"Session to pass back for follow-up questions"`
	Question  string `json:"question"`
	Answer    string `json:"answer" jsonschema_description:"The answer, or a generic failure message"`
	Failed    bool   `json:"failed" jsonschema_description:"True when the answer could not be generated"`
	Turns     int    `json:"turns"`
}

// StepInfo describes one node of the step graph.
type StepInfo struct {
	ID      string          `json:"id"`
	Kind    domain.StepKind `json:"kind"`
	Message string          `json:"message,omitempty"`
	Next    []string        `json:"next"`
}

// Server wraps a session manager and exposes it as an MCP Server.
type Server struct {
	sessions  Sessions
	steps     []StepInfo
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions Sessions, steps []domain.Step, opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		mcpServer: server.NewMCPServer("parley-mcp", strings.TrimSpace(parley.Version), server.WithToolCapabilities(false)),
	}
	for _, st := range steps {
		s.steps = append(s.steps, StepInfo{ID: st.ID, Kind: st.Kind, Message: st.Message, Next: st.Next()})
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP SSE transport on port until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	askTool := mcp.NewTool("ask",
		mcp.WithDescription("Ask a question and wait for the answer. Pass session_id to continue an earlier conversation."),
		mcp.WithString("question", mcp.Required(), mcp.Description("The question to ask")),
		mcp.WithString("session_id", mcp.Description("Session returned by a previous call (optional)")),
		mcp.WithOutputSchema[AskResponse](),
	)
	s.mcpServer.AddTool(askTool, mcp.NewStructuredToolHandler(s.handleAsk))

	s.mcpServer.AddTool(mcp.NewTool("get_steps",
		mcp.WithDescription("Get the conversation step graph for introspection."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := sonic.MarshalString(s.steps)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
		}
		return mcp.NewToolResultText(text), nil
	})
}

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest, args AskArgs) (AskResponse, error) {
	question, err := runner.SanitizeInput(args.Question)
	if err != nil {
		s.logger.Warn("MCP ask: input rejected", "err", err, "size", len(args.Question))
		return AskResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return AskResponse{}, errors.New("question is empty")
	}

	sessionID := args.SessionID
	if sessionID == "" {
		if sessionID, _, err = s.sessions.Start(ctx); err != nil {
			return AskResponse{}, fmt.Errorf("start session: %w", err)
		}
	}

	if _, err := s.sessions.Submit(ctx, sessionID, question); err != nil {
		return AskResponse{}, err
	}
	conv, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return AskResponse{}, err
	}
	snap := conv.Snapshot()
	return AskResponse{
		SessionID: sessionID,
		Question:  snap.Conversation.Question,
		Answer:    snap.Conversation.Answer,
		Failed:    snap.Conversation.Answer == domain.FailureMessage,
		Turns:     snap.Turns,
	}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(StepsURI, "Conversation Steps",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		text, err := sonic.MarshalString(s.steps)
		if err != nil {
			return nil, fmt.Errorf("failed to encode steps: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      StepsURI,
				MIMEType: "application/json",
				Text:     text,
			},
		}, nil
	})
}
