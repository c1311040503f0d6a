package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentcore/pkg/llms"
	"github.com/effective-security/agentcore/pkg/llmutils"
	"github.com/effective-security/agentcore/pkg/metricskey"
	"github.com/effective-security/agentcore/telemetry"
	"github.com/effective-security/agentcore/tools"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentcore", "agent")

const tracerName = "github.com/effective-security/agentcore/agent"

var (
	// ErrMaxIterations is returned when the model keeps calling tools
	// after the iterations limit.
	ErrMaxIterations = errors.New("max iterations exceeded")
	// ErrMaxToolCalls is returned when the tool calls limit is exceeded.
	ErrMaxToolCalls = errors.New("max tool calls exceeded")
)

// Result is the outcome of an invocation.
type Result struct {
	// Output is the final text of the model.
	Output string `json:"output"`
	// StopReason is the reason the model stopped.
	StopReason string `json:"stop_reason,omitempty"`
	// Messages are the messages added during the invocation,
	// starting with the prompt.
	Messages []llms.Message `json:"-"`
	// Iterations is the number of model calls.
	Iterations int `json:"iterations"`
	// ToolCalls is the number of executed tool calls.
	ToolCalls    int `json:"tool_calls"`
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

func (r *Result) String() string {
	return r.Output
}

// Agent is a model with a system prompt and tools.
// The conversation history is kept across invocations,
// unless the invocation is stateless.
type Agent struct {
	model         llms.Model
	name          string
	description   string
	systemPrompt  string
	callOptions   []llms.CallOption
	maxIterations int
	maxToolCalls  int
	callback      tools.Callback
	traceAttrs    []attribute.KeyValue
	tracer        trace.Tracer

	tools []tools.ITool

	lock     sync.Mutex
	messages []llms.Message
}

// New returns an Agent for the model.
func New(model llms.Model, opts ...Option) *Agent {
	a := &Agent{
		model:         model,
		name:          DefaultName,
		description:   DefaultDescription,
		maxIterations: DefaultMaxIterations,
		maxToolCalls:  DefaultMaxToolCalls,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.tracer == nil {
		a.tracer = otel.GetTracerProvider().Tracer(tracerName)
	}
	return a
}

// Name returns the name of the Agent.
func (a *Agent) Name() string {
	return a.name
}

// Description returns the description of the Agent.
func (a *Agent) Description() string {
	return a.description
}

// SystemPrompt returns the system prompt.
func (a *Agent) SystemPrompt() string {
	return a.systemPrompt
}

// Model returns the model.
func (a *Agent) Model() llms.Model {
	return a.model
}

// Tools returns the tools.
func (a *Agent) Tools() []tools.ITool {
	return a.tools
}

// Messages returns a copy of the conversation history.
func (a *Agent) Messages() []llms.Message {
	a.lock.Lock()
	defer a.lock.Unlock()
	return append([]llms.Message(nil), a.messages...)
}

// Reset clears the conversation history.
func (a *Agent) Reset() {
	a.lock.Lock()
	a.messages = nil
	a.lock.Unlock()
}

func (a *Agent) addTools(list ...tools.ITool) {
	for _, t := range list {
		if tools.Find(a.tools, t.Name()) == nil {
			a.tools = append(a.tools, t)
		}
	}
}

// Invoke sends the prompt to the model and executes the requested tools
// until the model returns a final answer.
func (a *Agent) Invoke(ctx context.Context, prompt string, opts ...InvokeOption) (*Result, error) {
	cfg := &invokeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	started := time.Now()
	defer metricskey.PerfAgentCall.MeasureSince(started, a.name)

	ctx, span := a.tracer.Start(ctx, "invoke_agent "+a.name,
		trace.WithAttributes(
			telemetry.SpanKindAgent.Attribute(),
			telemetry.AttrAgentName.String(a.name),
			telemetry.AttrInputValue.String(prompt),
		),
		trace.WithAttributes(a.traceAttrs...),
	)
	defer span.End()

	var history []llms.Message
	if !cfg.stateless {
		a.lock.Lock()
		defer a.lock.Unlock()
		history = a.messages
	}

	res, err := a.run(ctx, history, prompt, newToolset(a.tools, cfg.extraTools))
	if err != nil {
		metricskey.StatsAgentCallsFailed.IncrCounter(1, a.name)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.ContextKV(ctx, xlog.ERROR,
			"agent", a.name,
			"status", "invoke_failed",
			"input", slices.StringUpto(prompt, 64),
			"err", err.Error(),
		)
		return nil, err
	}
	metricskey.StatsAgentCallsSucceeded.IncrCounter(1, a.name)
	span.SetAttributes(telemetry.AttrOutputValue.String(res.Output))

	if !cfg.stateless {
		a.messages = append(a.messages, res.Messages...)
	}
	return res, nil
}

func (a *Agent) run(ctx context.Context, history []llms.Message, prompt string, ts *toolset) (*Result, error) {
	userMessage := llms.MessageFromTextParts(llms.RoleHuman, prompt)
	res := &Result{
		Messages: []llms.Message{userMessage},
	}

	var messages []llms.Message
	if a.systemPrompt != "" {
		messages = append(messages, llms.MessageFromTextParts(llms.RoleSystem, a.systemPrompt))
	}
	messages = append(messages, history...)
	messages = append(messages, userMessage)

	callOpts := a.callOptions
	if len(ts.defs) > 0 {
		if !a.model.GetProviderType().Supports(llms.CapabilityFunctionCalling) {
			return nil, errors.Newf("agent %s: the LLM does not support function calling", a.name)
		}
		callOpts = append(append([]llms.CallOption(nil), a.callOptions...), llms.WithTools(ts.defs))
	}

	retries := 0
	notFound := 0
	for {
		if res.Iterations >= a.maxIterations {
			return nil, errors.Mark(errors.Newf("agent %s: the iterations limit %d is exceeded", a.name, a.maxIterations), ErrMaxIterations)
		}
		res.Iterations++

		resp, err := a.generate(ctx, messages, callOpts)
		if err != nil {
			return nil, err
		}
		in, out := llmutils.CountTokens(resp)
		res.InputTokens += in
		res.OutputTokens += out

		if len(resp.Choices) == 0 {
			retries++
			if retries >= DefaultMaxRetries {
				return nil, errors.Newf("agent %s: LLM returned empty response after %d retries", a.name, retries)
			}
			logger.ContextKV(ctx, xlog.WARNING,
				"agent", a.name,
				"status", "retrying_empty_response",
				"retry_count", retries,
			)
			continue
		}

		choice := resp.Choices[0]
		aiMessage := llms.MessageFromChoice(choice)
		messages = append(messages, aiMessage)
		res.Messages = append(res.Messages, aiMessage)

		if len(choice.ToolCalls) == 0 {
			res.Output = choice.Content
			res.StopReason = choice.StopReason
			break
		}

		if res.ToolCalls+len(choice.ToolCalls) > a.maxToolCalls {
			return nil, errors.Mark(errors.Newf("agent %s: the tool calls limit %d is exceeded", a.name, a.maxToolCalls), ErrMaxToolCalls)
		}

		responses, missing := a.executeToolCalls(ctx, ts, choice.ToolCalls)
		res.ToolCalls += len(responses)

		if missing == len(responses) {
			notFound++
			if notFound >= DefaultMaxNotFound {
				return nil, errors.Newf("agent %s: the number of not found tools is exceeded", a.name)
			}
		} else {
			notFound = 0
		}

		toolMessage := llms.MessageFromToolResponses(responses...)
		messages = append(messages, toolMessage)
		res.Messages = append(res.Messages, toolMessage)
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"agent", a.name,
		"status", "completed",
		"iterations", res.Iterations,
		"tool_calls", res.ToolCalls,
		"input_tokens", res.InputTokens,
		"output_tokens", res.OutputTokens,
	)
	return res, nil
}

func (a *Agent) generate(ctx context.Context, messages []llms.Message, callOpts []llms.CallOption) (*llms.ContentResponse, error) {
	modelName := a.model.GetName()
	ctx, span := a.tracer.Start(ctx, "chat "+modelName,
		trace.WithAttributes(
			telemetry.SpanKindLLM.Attribute(),
			telemetry.AttrLLMModelName.String(modelName),
			telemetry.AttrInputValue.String(llmutils.FindLastUserQuestion(messages)),
		),
		trace.WithAttributes(a.traceAttrs...),
	)
	defer span.End()

	metricskey.StatsLLMMessagesSent.IncrCounter(float64(len(messages)), a.name, modelName)

	resp, err := a.model.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, errors.Wrapf(err, "failed to generate content from LLM")
	}

	in, out := llmutils.CountTokens(resp)
	metricskey.StatsLLMInputTokens.IncrCounter(float64(in), a.name, modelName)
	metricskey.StatsLLMOutputTokens.IncrCounter(float64(out), a.name, modelName)
	span.SetAttributes(
		telemetry.AttrLLMPromptTokens.Int(in),
		telemetry.AttrLLMOutputTokens.Int(out),
	)
	if len(resp.Choices) > 0 {
		span.SetAttributes(telemetry.AttrOutputValue.String(resp.Choices[0].Content))
	}
	return resp, nil
}

// executeToolCalls runs the tool calls in parallel and returns the responses
// in the order of the calls, and the number of calls to unknown tools.
func (a *Agent) executeToolCalls(ctx context.Context, ts *toolset, calls []llms.ToolCall) ([]llms.ToolCallResponse, int) {
	responses := make([]llms.ToolCallResponse, len(calls))
	missing := make([]bool, len(calls))

	var wg sync.WaitGroup
	for i, tc := range calls {
		if tc.FunctionCall == nil {
			responses[i] = llms.ToolCallResponse{
				ToolCallID: tc.ID,
				Content:    "Tool call has no function",
				IsError:    true,
			}
			missing[i] = true
			continue
		}
		if tc.ID == "" {
			tc.ID = fmt.Sprintf("%s_%d", tc.FunctionCall.Name, i)
		}

		tool := ts.find(tc.FunctionCall.Name)
		if tool == nil {
			missing[i] = true
			responses[i] = a.toolNotFound(ctx, ts, tc)
			continue
		}

		wg.Add(1)
		go func(index int, tc llms.ToolCall) {
			defer wg.Done()
			responses[index] = a.callTool(ctx, tool, tc)
		}(i, tc)
	}
	wg.Wait()

	count := 0
	for _, m := range missing {
		if m {
			count++
		}
	}
	return responses, count
}

func (a *Agent) toolNotFound(ctx context.Context, ts *toolset, tc llms.ToolCall) llms.ToolCallResponse {
	toolName := tc.FunctionCall.Name
	metricskey.StatsToolCallsNotFound.IncrCounter(1, toolName)

	available := strings.Join(ts.names, ", ")
	logger.ContextKV(ctx, xlog.WARNING,
		"agent", a.name,
		"status", "tool_not_found",
		"tool_name", toolName,
		"available_tools", available,
	)
	return llms.ToolCallResponse{
		ToolCallID: tc.ID,
		Name:       toolName,
		Content:    fmt.Sprintf("Tool `%s` not found. Please check the tool name and try again with exact match. Available tools: %s", toolName, available),
		IsError:    true,
	}
}

func (a *Agent) callTool(ctx context.Context, tool tools.ITool, tc llms.ToolCall) llms.ToolCallResponse {
	toolName := tool.Name()
	args := tc.FunctionCall.Arguments

	ctx, span := a.tracer.Start(ctx, "execute_tool "+toolName,
		trace.WithAttributes(
			telemetry.SpanKindTool.Attribute(),
			telemetry.AttrToolName.String(toolName),
			telemetry.AttrToolParameters.String(args),
			telemetry.AttrInputValue.String(args),
		),
		trace.WithAttributes(a.traceAttrs...),
	)
	defer span.End()

	if a.callback != nil {
		a.callback.OnToolStart(ctx, tool, args)
	}

	started := time.Now()
	content, err := tool.Call(ctx, args)
	metricskey.PerfToolCall.MeasureSince(started, toolName)

	resp := llms.ToolCallResponse{
		ToolCallID: tc.ID,
		Name:       toolName,
	}
	if err != nil {
		metricskey.StatsToolCallsFailed.IncrCounter(1, toolName)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if a.callback != nil {
			a.callback.OnToolError(ctx, tool, args, err)
		}
		logger.ContextKV(ctx, xlog.WARNING,
			"agent", a.name,
			"status", "tool_call_failed",
			"tool", toolName,
			"err", err.Error(),
		)

		resp.IsError = true
		if errors.Is(err, tools.ErrFailedUnmarshalInput) {
			resp.Content = "Failed to unmarshal input, check the JSON schema and try again."
		} else {
			resp.Content = fmt.Sprintf("Tool call failed: %s", err.Error())
		}
		return resp
	}

	metricskey.StatsToolCallsSucceeded.IncrCounter(1, toolName)
	span.SetAttributes(telemetry.AttrOutputValue.String(content))
	if a.callback != nil {
		a.callback.OnToolEnd(ctx, tool, args, content)
	}

	resp.Content = values.StringsCoalesce(content, "(empty)")
	return resp
}

type toolset struct {
	byName map[string]tools.ITool
	names  []string
	defs   []llms.Tool
}

func newToolset(lists ...[]tools.ITool) *toolset {
	ts := &toolset{
		byName: make(map[string]tools.ITool),
	}
	for _, list := range lists {
		for _, t := range list {
			// use lowercase for the key
			key := strings.ToLower(t.Name())
			if ts.byName[key] != nil {
				continue
			}
			ts.byName[key] = t
			ts.names = append(ts.names, t.Name())
			ts.defs = append(ts.defs, tools.ToLLMTools([]tools.ITool{t})...)
		}
	}
	return ts
}

func (ts *toolset) find(name string) tools.ITool {
	return ts.byName[strings.ToLower(name)]
}
