package metricskey

import "github.com/effective-security/metrics"

// Stats
var (
	// StatsResourcesCreated is base for counter metric for gateway resources created
	StatsResourcesCreated = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_resources_created",
		Help:         "stats_resources_created provides total gateway resources created",
		RequiredTags: []string{"kind"},
	}

	StatsResourcesFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_resources_failed",
		Help:         "stats_resources_failed provides total gateway resources failed to create",
		RequiredTags: []string{"kind"},
	}

	StatsLLMMessagesSent = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_messages_sent",
		Help:         "stats_llm_messages_sent provides total messages sent to LLM",
		RequiredTags: []string{"agent", "model"},
	}

	StatsLLMInputTokens = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_input_tokens",
		Help:         "stats_llm_input_tokens provides total input tokens sent to LLM",
		RequiredTags: []string{"agent", "model"},
	}

	StatsLLMOutputTokens = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_output_tokens",
		Help:         "stats_llm_output_tokens provides total output tokens received from LLM",
		RequiredTags: []string{"agent", "model"},
	}

	StatsAgentCallsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_agent_calls_succeeded",
		Help:         "stats_agent_calls_succeeded provides total agent calls succeeded",
		RequiredTags: []string{"agent"},
	}

	StatsAgentCallsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_agent_calls_failed",
		Help:         "stats_agent_calls_failed provides total agent calls failed",
		RequiredTags: []string{"agent"},
	}

	StatsToolCallsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_succeeded",
		Help:         "stats_tool_calls_succeeded provides total tool calls succeeded",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_failed",
		Help:         "stats_tool_calls_failed provides total tool calls failed",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsNotFound = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_not_found",
		Help:         "stats_tool_calls_not_found provides total tool calls not found",
		RequiredTags: []string{"tool"},
	}

	StatsSwarmHandoffs = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_swarm_handoffs",
		Help:         "stats_swarm_handoffs provides total handoffs between swarm agents",
		RequiredTags: []string{"from", "to"},
	}

	StatsSwarmRuns = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_swarm_runs",
		Help:         "stats_swarm_runs provides total swarm runs by status",
		RequiredTags: []string{"status"},
	}

	StatsInvocations = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_invocations",
		Help:         "stats_invocations provides total runtime invocations by status",
		RequiredTags: []string{"status"},
	}
)

// Perf
var (
	PerfAgentCall = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_agent_call",
		Help:         "perf_agent_call provides duration of agent call",
		RequiredTags: []string{"agent"},
	}

	PerfToolCall = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_tool_call",
		Help:         "perf_tool_call provides duration of tool call",
		RequiredTags: []string{"tool"},
	}

	PerfInvocation = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_invocation",
		Help:         "perf_invocation provides duration of runtime invocation",
		RequiredTags: []string{"agent"},
	}
)

// Metrics returns slice of metrics from this repo
// keep sorted by name
var Metrics = []*metrics.Describe{
	&PerfAgentCall,
	&PerfInvocation,
	&PerfToolCall,
	&StatsAgentCallsFailed,
	&StatsAgentCallsSucceeded,
	&StatsInvocations,
	&StatsLLMInputTokens,
	&StatsLLMMessagesSent,
	&StatsLLMOutputTokens,
	&StatsResourcesCreated,
	&StatsResourcesFailed,
	&StatsSwarmHandoffs,
	&StatsSwarmRuns,
	&StatsToolCallsFailed,
	&StatsToolCallsNotFound,
	&StatsToolCallsSucceeded,
}
