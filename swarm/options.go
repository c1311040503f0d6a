package swarm

import (
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Defaults
const (
	DefaultMaxHandoffs                      = 20
	DefaultMaxIterations                    = 20
	DefaultExecutionTimeout                 = 15 * time.Minute
	DefaultNodeTimeout                      = 5 * time.Minute
	DefaultRepetitiveHandoffDetectionWindow = 8
	DefaultRepetitiveHandoffMinUniqueAgents = 3
)

// Options are the limits of a swarm run.
type Options struct {
	// MaxHandoffs is the maximum number of handoffs between agents.
	MaxHandoffs int `json:"max_handoffs" yaml:"max_handoffs"`
	// MaxIterations is the maximum number of agent executions.
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`
	// ExecutionTimeout is the total time limit of a run.
	ExecutionTimeout time.Duration `json:"execution_timeout" yaml:"execution_timeout"`
	// NodeTimeout is the time limit of one agent execution.
	NodeTimeout time.Duration `json:"node_timeout" yaml:"node_timeout"`
	// RepetitiveHandoffDetectionWindow is the number of recent executions checked
	// for ping-pong between agents, 0 disables the check.
	RepetitiveHandoffDetectionWindow int `json:"repetitive_handoff_detection_window" yaml:"repetitive_handoff_detection_window"`
	// RepetitiveHandoffMinUniqueAgents is the minimum number of distinct agents
	// within the detection window.
	RepetitiveHandoffMinUniqueAgents int `json:"repetitive_handoff_min_unique_agents" yaml:"repetitive_handoff_min_unique_agents"`
}

// DefaultOptions returns the default limits.
func DefaultOptions() Options {
	return Options{
		MaxHandoffs:                      DefaultMaxHandoffs,
		MaxIterations:                    DefaultMaxIterations,
		ExecutionTimeout:                 DefaultExecutionTimeout,
		NodeTimeout:                      DefaultNodeTimeout,
		RepetitiveHandoffDetectionWindow: DefaultRepetitiveHandoffDetectionWindow,
		RepetitiveHandoffMinUniqueAgents: DefaultRepetitiveHandoffMinUniqueAgents,
	}
}

// Option configures the Swarm.
type Option func(*Swarm)

// WithOptions replaces the limits.
func WithOptions(o Options) Option {
	return func(s *Swarm) {
		s.opts = o
	}
}

// WithMaxHandoffs sets the maximum number of handoffs.
func WithMaxHandoffs(n int) Option {
	return func(s *Swarm) {
		s.opts.MaxHandoffs = n
	}
}

// WithMaxIterations sets the maximum number of agent executions.
func WithMaxIterations(n int) Option {
	return func(s *Swarm) {
		s.opts.MaxIterations = n
	}
}

// WithExecutionTimeout sets the time limit of a run.
func WithExecutionTimeout(d time.Duration) Option {
	return func(s *Swarm) {
		s.opts.ExecutionTimeout = d
	}
}

// WithNodeTimeout sets the time limit of one agent execution.
func WithNodeTimeout(d time.Duration) Option {
	return func(s *Swarm) {
		s.opts.NodeTimeout = d
	}
}

// WithRepetitiveHandoffDetection sets the ping-pong detection:
// at least minUnique agents must appear in the last window executions.
func WithRepetitiveHandoffDetection(window, minUnique int) Option {
	return func(s *Swarm) {
		s.opts.RepetitiveHandoffDetectionWindow = window
		s.opts.RepetitiveHandoffMinUniqueAgents = minUnique
	}
}

// WithEntryPoint sets the first agent, by default the first agent in the list.
func WithEntryPoint(name string) Option {
	return func(s *Swarm) {
		s.entryPoint = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Swarm) {
		s.tracer = tp.Tracer(tracerName)
	}
}
