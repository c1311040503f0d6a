// Package swarm runs a team of agents that collaborate on a task
// by handing off control to each other.
package swarm

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentcore/agent"
	"github.com/effective-security/agentcore/pkg/llmutils"
	"github.com/effective-security/agentcore/pkg/metricskey"
	"github.com/effective-security/agentcore/telemetry"
	"github.com/effective-security/xlog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentcore", "swarm")

const tracerName = "github.com/effective-security/agentcore/swarm"

// Status of a swarm run.
type Status string

// Statuses
const (
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// NodeResult is the result of one agent execution.
type NodeResult struct {
	Agent    string        `json:"agent"`
	Input    string        `json:"input"`
	Output   string        `json:"output"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Result is the outcome of a swarm run.
type Result struct {
	Status Status `json:"status"`
	// NodeHistory is the names of the executed agents, in order.
	NodeHistory []string `json:"node_history"`
	// Results are the agent executions, in order.
	Results []*NodeResult `json:"results"`
	// Output is the output of the last agent.
	Output        string        `json:"output"`
	Handoffs      int           `json:"handoffs"`
	ExecutionTime time.Duration `json:"execution_time"`
	InputTokens   int           `json:"input_tokens"`
	OutputTokens  int           `json:"output_tokens"`
	// Error is the reason of the failure.
	Error string `json:"error,omitempty"`
}

func (r *Result) String() string {
	if r.Status == StatusFailed {
		return fmt.Sprintf("Status: %s\nError: %s", r.Status, r.Error)
	}
	return fmt.Sprintf("Status: %s\n%s", r.Status, r.Output)
}

// Swarm is a set of agents with unique names.
type Swarm struct {
	agents     []*agent.Agent
	entryPoint string
	opts       Options
	tracer     trace.Tracer
}

// New returns the swarm of the agents.
func New(agents []*agent.Agent, opts ...Option) (*Swarm, error) {
	if len(agents) == 0 {
		return nil, errors.New("swarm requires at least one agent")
	}
	s := &Swarm{
		agents: agents,
		opts:   DefaultOptions(),
	}

	seen := map[string]bool{}
	for _, a := range agents {
		if seen[a.Name()] {
			return nil, errors.Newf("duplicate agent name: %s", a.Name())
		}
		seen[a.Name()] = true
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.entryPoint == "" {
		s.entryPoint = agents[0].Name()
	} else if !seen[s.entryPoint] {
		return nil, errors.Newf("entry point agent not found: %s", s.entryPoint)
	}
	if s.tracer == nil {
		s.tracer = otel.GetTracerProvider().Tracer(tracerName)
	}
	return s, nil
}

// Options returns the limits.
func (s *Swarm) Options() Options {
	return s.opts
}

func (s *Swarm) find(name string) *agent.Agent {
	for _, a := range s.agents {
		if a.Name() == name {
			return a
		}
	}
	return nil
}

// Run executes the task starting with the entry point agent,
// following the handoffs until an agent completes without handing off
// or a limit is reached.
// A run stopped by a limit or an agent failure is returned with StatusFailed.
func (s *Swarm) Run(ctx context.Context, task string) (*Result, error) {
	started := time.Now()

	if s.opts.ExecutionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ExecutionTimeout)
		defer cancel()
	}

	ctx, span := s.tracer.Start(ctx, "invoke_swarm",
		trace.WithAttributes(
			telemetry.SpanKindChain.Attribute(),
			telemetry.AttrInputValue.String(task),
		),
	)
	defer span.End()

	state := newRunState()
	res := &Result{
		Status: StatusCompleted,
	}

	fail := func(format string, args ...any) {
		res.Status = StatusFailed
		res.Error = fmt.Sprintf(format, args...)
	}

	current := s.find(s.entryPoint)
	var last *handoff
	for {
		if len(res.NodeHistory) >= s.opts.MaxIterations {
			fail("max iterations reached: %d", s.opts.MaxIterations)
			break
		}
		if ctx.Err() != nil {
			fail("execution timed out after %s", time.Since(started).Round(time.Millisecond))
			break
		}

		input := s.buildInput(task, current.Name(), last, res.NodeHistory, state.sharedContext())
		node, out, err := s.execute(ctx, current, state, input)
		res.NodeHistory = append(res.NodeHistory, current.Name())
		res.Results = append(res.Results, node)
		if out != nil {
			res.InputTokens += out.InputTokens
			res.OutputTokens += out.OutputTokens
		}
		if err != nil {
			fail("agent %s failed: %s", current.Name(), err.Error())
			break
		}
		res.Output = node.Output

		h := state.take()
		if h == nil {
			break
		}

		if res.Handoffs >= s.opts.MaxHandoffs {
			fail("max handoffs reached: %d", s.opts.MaxHandoffs)
			break
		}
		res.Handoffs++
		metricskey.StatsSwarmHandoffs.IncrCounter(1, h.from, h.to)
		logger.ContextKV(ctx, xlog.DEBUG,
			"status", "handoff",
			"from", h.from,
			"to", h.to,
		)

		if s.isRepetitive(res.NodeHistory) {
			fail("repetitive handoff: fewer than %d unique agents in the last %d executions",
				s.opts.RepetitiveHandoffMinUniqueAgents, s.opts.RepetitiveHandoffDetectionWindow)
			break
		}

		current = s.find(h.to)
		last = h
	}

	res.ExecutionTime = time.Since(started)
	metricskey.StatsSwarmRuns.IncrCounter(1, string(res.Status))
	if res.Status == StatusFailed {
		span.SetStatus(codes.Error, res.Error)
		logger.ContextKV(ctx, xlog.WARNING,
			"status", "swarm_failed",
			"reason", res.Error,
			"history", strings.Join(res.NodeHistory, ","),
		)
	} else {
		span.SetAttributes(telemetry.AttrOutputValue.String(res.Output))
		logger.ContextKV(ctx, xlog.DEBUG,
			"status", "swarm_completed",
			"history", strings.Join(res.NodeHistory, ","),
			"duration", res.ExecutionTime.String(),
		)
	}
	return res, nil
}

func (s *Swarm) execute(ctx context.Context, a *agent.Agent, state *runState, input string) (*NodeResult, *agent.Result, error) {
	started := time.Now()
	if s.opts.NodeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.NodeTimeout)
		defer cancel()
	}

	node := &NodeResult{
		Agent: a.Name(),
		Input: input,
	}
	out, err := a.Invoke(ctx, input,
		agent.WithStateless(),
		agent.WithExtraTools(newHandoffTool(s, state, a.Name())),
	)
	node.Duration = time.Since(started)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = errors.Wrapf(err, "timed out after %s", node.Duration.Round(time.Millisecond))
		}
		node.Error = err.Error()
		return node, out, err
	}
	node.Output = out.Output
	return node, out, nil
}

// isRepetitive returns true when the last window executions
// have fewer than the minimum unique agents.
func (s *Swarm) isRepetitive(history []string) bool {
	window := s.opts.RepetitiveHandoffDetectionWindow
	if window <= 0 || len(history) < window {
		return false
	}
	unique := map[string]bool{}
	for _, name := range history[len(history)-window:] {
		unique[name] = true
	}
	return len(unique) < s.opts.RepetitiveHandoffMinUniqueAgents
}

func (s *Swarm) buildInput(task, current string, last *handoff, history []string, shared map[string]map[string]any) string {
	var b strings.Builder
	if last != nil {
		fmt.Fprintf(&b, "Handoff Message: %s\n\n", last.message)
	}
	fmt.Fprintf(&b, "User Request: %s\n\n", task)

	if len(history) > 0 {
		fmt.Fprintf(&b, "Previous agents who worked on this: %s\n\n", strings.Join(history, " → "))
	}

	if len(shared) > 0 {
		names := make([]string, 0, len(shared))
		for name := range shared {
			names = append(names, name)
		}
		sort.Strings(names)
		b.WriteString("Shared knowledge from previous agents:\n")
		for _, name := range names {
			fmt.Fprintf(&b, "• %s: %s\n", name, llmutils.ToJSON(shared[name]))
		}
		b.WriteString("\n")
	}

	if len(s.agents) > 1 {
		b.WriteString("Other agents available for collaboration:\n")
		for _, a := range s.agents {
			if a.Name() == current {
				continue
			}
			fmt.Fprintf(&b, "Agent name: %s. Agent description: %s\n", a.Name(), a.Description())
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "You have access to the %s tool if you need help from other agents. "+
		"If you don't hand off to another agent, the swarm will consider the task complete.", HandoffToolName)
	return b.String()
}
