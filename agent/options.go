package agent

import (
	"github.com/effective-security/agentcore/pkg/llms"
	"github.com/effective-security/agentcore/telemetry"
	"github.com/effective-security/agentcore/tools"
	"go.opentelemetry.io/otel/trace"
)

// Defaults
const (
	DefaultName          = "agent"
	DefaultDescription   = "An AI assistant that can perform various tasks."
	DefaultMaxIterations = 20
	DefaultMaxToolCalls  = 100
	DefaultMaxRetries    = 3
	// DefaultMaxNotFound is the number of consecutive iterations
	// with unknown tool names before the run fails.
	DefaultMaxNotFound = 3
)

// Option configures the Agent.
type Option func(*Agent)

// WithName sets the name of the Agent, when used in a prompt of another Agents or LLMs.
func WithName(name string) Option {
	return func(a *Agent) {
		a.name = name
	}
}

// WithDescription sets the description of the Agent, to be used in the prompt of other Agents or LLMs.
func WithDescription(description string) Option {
	return func(a *Agent) {
		a.description = description
	}
}

// WithSystemPrompt sets the system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) {
		a.systemPrompt = prompt
	}
}

// WithTools adds the tools, a tool with an existing name is ignored.
func WithTools(list ...tools.ITool) Option {
	return func(a *Agent) {
		a.addTools(list...)
	}
}

// WithCallOptions sets the options for every model call.
func WithCallOptions(opts ...llms.CallOption) Option {
	return func(a *Agent) {
		a.callOptions = append(a.callOptions, opts...)
	}
}

// WithMaxIterations limits the number of model calls in one invocation.
func WithMaxIterations(n int) Option {
	return func(a *Agent) {
		a.maxIterations = n
	}
}

// WithMaxToolCalls limits the number of tool calls in one invocation.
func WithMaxToolCalls(n int) Option {
	return func(a *Agent) {
		a.maxToolCalls = n
	}
}

// WithCallback sets the tool events callback.
func WithCallback(cb tools.Callback) Option {
	return func(a *Agent) {
		a.callback = cb
	}
}

// WithTraceAttributes sets the attributes attached to the agent spans,
// such as session.id and user.id
func WithTraceAttributes(attrs map[string]string) Option {
	return func(a *Agent) {
		a.traceAttrs = telemetry.TraceAttributes(attrs).KeyValues()
	}
}

// WithTracerProvider sets the tracer provider,
// the global provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(a *Agent) {
		a.tracer = tp.Tracer(tracerName)
	}
}

// InvokeOption configures a single invocation.
type InvokeOption func(*invokeConfig)

type invokeConfig struct {
	extraTools []tools.ITool
	stateless  bool
}

// WithExtraTools makes the tools available for this invocation only.
func WithExtraTools(list ...tools.ITool) InvokeOption {
	return func(c *invokeConfig) {
		c.extraTools = append(c.extraTools, list...)
	}
}

// WithStateless runs the invocation without the conversation history,
// and does not record it.
func WithStateless() InvokeOption {
	return func(c *invokeConfig) {
		c.stateless = true
	}
}
