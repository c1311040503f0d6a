package runtime

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentcore/agent"
	"github.com/effective-security/agentcore/pkg/metricskey"
	"github.com/effective-security/xlog"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DefaultPrompt is used when the payload has no prompt.
const DefaultPrompt = "Hello! How can I help you today?"

// Routes
const (
	PathInvocations = "/invocations"
	PathPing        = "/ping"
)

// Payload is the request of an invocation.
type Payload struct {
	Prompt string `json:"prompt,omitempty"`
}

// Response is the result of an invocation.
type Response struct {
	Result string `json:"result"`
}

// Invoker is the agent served by the App.
type Invoker interface {
	Name() string
	Invoke(ctx context.Context, prompt string, opts ...agent.InvokeOption) (*agent.Result, error)
}

// App is the runtime entrypoint.
type App struct {
	agent  Invoker
	closer CloseFunc
}

// NewApp returns the App for the agent,
// closer is called by Close and may be nil.
func NewApp(a Invoker, closer CloseFunc) *App {
	if closer == nil {
		closer = noopClose
	}
	return &App{
		agent:  a,
		closer: closer,
	}
}

// Invoke runs the agent with the payload prompt.
func (app *App) Invoke(ctx context.Context, payload *Payload) (*Response, error) {
	prompt := DefaultPrompt
	if payload != nil && strings.TrimSpace(payload.Prompt) != "" {
		prompt = payload.Prompt
	}

	started := time.Now()
	defer metricskey.PerfInvocation.MeasureSince(started, app.agent.Name())

	res, err := app.agent.Invoke(ctx, prompt)
	if err != nil {
		metricskey.StatsInvocations.IncrCounter(1, "failed")
		return nil, err
	}
	metricskey.StatsInvocations.IncrCounter(1, "succeeded")
	return &Response{Result: res.Output}, nil
}

// Handler returns the HTTP surface of the App:
// POST /invocations and GET /ping
func (app *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware)

	r.Post(PathInvocations, app.handleInvocations)
	r.Get(PathPing, handlePing)
	return r
}

// ListenAndServe serves the Handler until the context is cancelled.
func (app *App) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		logger.KV(xlog.INFO, "status", "listening", "addr", addr)
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
		logger.KV(xlog.INFO, "status", "shutting_down", "addr", addr)
		return srv.Shutdown(shutdownCtx)
	}
}

// Close releases the agent tools.
func (app *App) Close() error {
	return app.closer()
}

func (app *App) handleInvocations(w http.ResponseWriter, r *http.Request) {
	payload := &Payload{}
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read request"})
		return
	}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err = json.Unmarshal(body, payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON payload"})
			return
		}
	}

	res, err := app.Invoke(r.Context(), payload)
	if err != nil {
		logger.ContextKV(r.Context(), xlog.ERROR,
			"status", "invocation_failed",
			"request_id", middleware.GetReqID(r.Context()),
			"err", err.Error(),
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func handlePing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "Healthy"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.ContextKV(r.Context(), xlog.DEBUG,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(started).String(),
		)
	})
}
