// Package mcpserver exposes local tools over the MCP streamable HTTP transport.
package mcpserver

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentcore/tools"
	"github.com/effective-security/xlog"
	"github.com/go-chi/chi/v5"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentcore", "mcpserver")

// Defaults
const (
	DefaultName     = "agentcore-tools"
	DefaultVersion  = "1.0.0"
	DefaultEndpoint = "/mcp"
)

// Option configures the Server.
type Option func(*Server)

// WithName sets the server name and version reported on initialize.
func WithName(name, version string) Option {
	return func(s *Server) {
		s.name = name
		s.version = version
	}
}

// WithBearerToken requires the token in the Authorization header.
func WithBearerToken(token string) Option {
	return func(s *Server) {
		s.token = token
	}
}

// WithPaginationLimit sets the page size of tools/list.
func WithPaginationLimit(limit int) Option {
	return func(s *Server) {
		s.pageSize = limit
	}
}

// Server serves the tools over MCP.
type Server struct {
	name     string
	version  string
	token    string
	pageSize int
	tools    []tools.ITool

	mcp *server.MCPServer
}

// New returns the Server for the tools.
func New(list []tools.ITool, opts ...Option) (*Server, error) {
	s := &Server{
		name:    DefaultName,
		version: DefaultVersion,
		tools:   list,
	}
	for _, opt := range opts {
		opt(s)
	}

	sopts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if s.pageSize > 0 {
		sopts = append(sopts, server.WithPaginationLimit(s.pageSize))
	}
	s.mcp = server.NewMCPServer(s.name, s.version, sopts...)

	for _, t := range list {
		raw, err := json.Marshal(t.Parameters())
		if err != nil {
			return nil, errors.Wrapf(err, "failed to marshal schema of tool %s", t.Name())
		}
		s.mcp.AddTool(mcp.NewToolWithRawSchema(t.Name(), t.Description(), raw), toolHandler(t))
	}
	return s, nil
}

// Tools returns the served tools.
func (s *Server) Tools() []tools.ITool {
	return s.tools
}

func toolHandler(t tools.ITool) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		input := "{}"
		if args := req.GetRawArguments(); args != nil {
			js, err := json.Marshal(args)
			if err != nil {
				return mcp.NewToolResultError("invalid arguments"), nil
			}
			input = string(js)
		}

		out, err := t.Call(ctx, input)
		if err != nil {
			logger.ContextKV(ctx, xlog.WARNING,
				"status", "tool_failed",
				"tool", t.Name(),
				"err", err.Error(),
			)
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(out), nil
	}
}

// Handler returns the HTTP handler with the MCP endpoint mounted on DefaultEndpoint.
func (s *Server) Handler() http.Handler {
	h := server.NewStreamableHTTPServer(s.mcp)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		if s.token != "" {
			r.Use(s.authorize)
		}
		r.Handle(DefaultEndpoint, h)
	})
	return r
}

func (s *Server) authorize(next http.Handler) http.Handler {
	expected := []byte("Bearer " + s.token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if subtle.ConstantTimeCompare([]byte(r.Header.Get("Authorization")), expected) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListenAndServe serves the Handler until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		logger.KV(xlog.INFO,
			"status", "listening",
			"addr", addr,
			"endpoint", DefaultEndpoint,
			"tools", len(s.tools),
		)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "failed to serve")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
