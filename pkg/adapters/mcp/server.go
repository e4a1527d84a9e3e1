package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/fullform"
	"github.com/aretw0/fullform/internal/logging"
	"github.com/aretw0/fullform/pkg/domain"
	"github.com/aretw0/fullform/pkg/formui"
	"github.com/aretw0/fullform/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SessionsURI is the resource listing every known session.
const SessionsURI = "fullform://sessions"

// TreeResponse is the structured result of tree-returning tools.
type TreeResponse struct {
	SessionID string              `json:"session_id" jsonschema_description:"The session the tree belongs to"`
	SeqID     int                 `json:"seq_id" jsonschema_description:"Sequence number of the last applied server response"`
	Title     string              `json:"title,omitempty"`
	Tree      []domain.Descriptor `json:"tree" jsonschema_description:"Current form tree"`
	Errors    map[string]string   `json:"errors,omitempty" jsonschema_description:"Server errors by question index"`
	Valid     bool                `json:"valid" jsonschema_description:"Whether every question currently passes validation"`
}

// Server exposes a session manager as an MCP Server.
type Server struct {
	sessions  *session.Manager
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the MCP server.
type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("fullform-mcp", strings.TrimSpace(fullform.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
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
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List the IDs of every live or persisted form session."),
	), s.handleListSessions)

	s.mcpServer.AddTool(mcp.NewTool("get_tree",
		mcp.WithDescription("Get the current form tree of a session, with server errors and overall validity."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[TreeResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetTree))

	s.mcpServer.AddTool(mcp.NewTool("answer_question",
		mcp.WithDescription("Answer a question. The answer is forwarded to the form server after the throttle interval."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("ix", mcp.Required(), mcp.Description("Index path of the question, e.g. 0 or 1_0,2")),
		mcp.WithString("answer", mcp.Description("Answer text. Multiselect answers are comma separated, geo answers are 'lat lon'. Omit to clear.")),
	), s.handleAnswerQuestion)

	s.mcpServer.AddTool(mcp.NewTool("apply_response",
		mcp.WithDescription("Apply a form server response (new tree or validation errors) to a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("response", mcp.Required(), mcp.Description("JSON object of the server response")),
		mcp.WithString("ix", mcp.Description("Index of the question the response answers (routes constraint errors)")),
		mcp.WithOutputSchema[TreeResponse](),
	), mcp.NewStructuredToolHandler(s.handleApplyResponse))
}

func (s *Server) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := s.sessions.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(ids)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleGetTree(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TreeResponse, error) {
	id, _ := args["session_id"].(string)
	form, err := s.sessions.Get(ctx, id)
	if err != nil {
		return TreeResponse{}, fmt.Errorf("get tree failed: %w", err)
	}
	return treeOf(form), nil
}

func (s *Server) handleAnswerQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetString("session_id", "")
	ix := request.GetString("ix", "")
	if id == "" || ix == "" {
		return mcp.NewToolResultError("session_id and ix are required"), nil
	}

	form, err := s.sessions.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	q, err := form.Question(ix)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("question %s: %v", ix, err)), nil
	}

	answer := fullform.ParseAnswer(q.Datatype(), strings.TrimSpace(request.GetString("answer", "")))
	if err := s.sessions.Answer(ctx, id, ix, answer); err != nil {
		s.logger.Warn("MCP answer rejected", "session_id", id, "ix", ix, "err", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := q.Validate(); err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("answer recorded for %s but invalid: %v", ix, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("answer recorded for %s", ix)), nil
}

func (s *Server) handleApplyResponse(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TreeResponse, error) {
	id, _ := args["session_id"].(string)
	raw, _ := args["response"].(string)
	ix, _ := args["ix"].(string)

	stats, err := s.sessions.Reconcile(ctx, id, []byte(raw), ix)
	if err != nil {
		if errors.Is(err, formui.ErrServerResponse) {
			s.logger.Debug("MCP apply_response: server reported an error", "session_id", id, "err", err)
		}
		return TreeResponse{}, fmt.Errorf("apply response failed: %w", err)
	}
	s.logger.Debug("MCP apply_response", "session_id", id, "added", stats.Added, "removed", stats.Removed, "updated", stats.Updated)

	form, err := s.sessions.Get(ctx, id)
	if err != nil {
		return TreeResponse{}, err
	}
	return treeOf(form), nil
}

func treeOf(form *formui.Form) TreeResponse {
	p := form.Payload()
	res := TreeResponse{
		SessionID: p.SessionID,
		SeqID:     p.SeqID,
		Title:     p.Title,
		Tree:      p.Tree,
		Valid:     true,
	}
	if res.Tree == nil {
		res.Tree = []domain.Descriptor{}
	}
	for _, q := range form.Questions() {
		if msg := q.ServerError(); msg != "" {
			if res.Errors == nil {
				res.Errors = make(map[string]string)
			}
			res.Errors[q.Ix()] = msg
		}
		if !q.IsValid() {
			res.Valid = false
		}
	}
	return res
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(SessionsURI, "Form Sessions",
		mcp.WithResourceDescription("Every session with its title and sequence number"),
		mcp.WithMIMEType("application/json"),
	), s.readSessions)
}

type sessionSummary struct {
	SessionID string `json:"session_id"`
	Title     string `json:"title,omitempty"`
	SeqID     int    `json:"seq_id"`
	Questions int    `json:"questions"`
}

func (s *Server) readSessions(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	ids, err := s.sessions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	out := make([]sessionSummary, 0, len(ids))
	for _, id := range ids {
		form, err := s.sessions.Get(ctx, id)
		if err != nil {
			s.logger.Warn("MCP resource: skipping session", "session_id", id, "err", err)
			continue
		}
		out = append(out, sessionSummary{
			SessionID: id,
			Title:     form.Title(),
			SeqID:     form.SeqID(),
			Questions: len(form.Questions()),
		})
	}
	jsonBytes, _ := json.Marshal(out)

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      SessionsURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
