package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/effective-security/agentcore/pkg/schema"
	"github.com/effective-security/agentcore/tools"
	"github.com/effective-security/xlog"
	"github.com/invopop/jsonschema"
)

// ToolRequest is the input of an agent used as a tool.
type ToolRequest struct {
	Query string `json:"query" jsonschema:"title=query,description=The question or task for the agent."`
}

// Tool exposes an Agent as a tool of another Agent.
// Every call is a stateless invocation.
type Tool struct {
	agent       *Agent
	name        string
	description string
	params      *jsonschema.Schema
	queryFormat string
	errorsText  bool
}

// Texts returned by a tool created WithErrorsAsText.
const (
	NoAnswerText    = "I apologize, but I couldn't properly analyze your question. Could you please rephrase or provide more context?"
	ErrorTextPrefix = "Error processing your query: "
)

var _ tools.Tool[ToolRequest, Result] = (*Tool)(nil)

// AsTool returns the agent as a tool,
// named and described as the agent.
func AsTool(a *Agent) *Tool {
	return &Tool{
		agent:       a,
		name:        a.Name(),
		description: a.Description(),
		params:      schema.For[ToolRequest](),
	}
}

// WithName overrides the tool name.
func (t *Tool) WithName(name string) *Tool {
	t.name = name
	return t
}

// WithDescription overrides the tool description.
func (t *Tool) WithDescription(description string) *Tool {
	t.description = description
	return t
}

// WithQueryFormat wraps the query in the format, which has a single %s verb,
// before the agent is invoked.
func (t *Tool) WithQueryFormat(format string) *Tool {
	t.queryFormat = format
	return t
}

// WithErrorsAsText returns the invocation failures and empty answers
// as the tool output, so the calling agent can answer without them.
func (t *Tool) WithErrorsAsText() *Tool {
	t.errorsText = true
	return t
}

// Name returns the name of the tool.
func (t *Tool) Name() string {
	return t.name
}

// Description returns the description of the tool.
func (t *Tool) Description() string {
	return t.description
}

// Parameters returns the JSON schema of ToolRequest.
func (t *Tool) Parameters() *jsonschema.Schema {
	return t.params
}

// Run invokes the agent with the query.
func (t *Tool) Run(ctx context.Context, req *ToolRequest) (*Result, error) {
	query := req.Query
	if t.queryFormat != "" {
		query = fmt.Sprintf(t.queryFormat, query)
	}
	return t.agent.Invoke(ctx, query, WithStateless())
}

// Call invokes the agent and returns its output.
func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	req, err := tools.DecodeInput[ToolRequest](input)
	if err != nil {
		return "", err
	}
	res, err := t.Run(ctx, req)
	if !t.errorsText {
		if err != nil {
			return "", err
		}
		return res.Output, nil
	}

	if err != nil {
		logger.ContextKV(ctx, xlog.WARNING, "status", "agent_tool_failed", "tool", t.name, "err", err.Error())
		return ErrorTextPrefix + err.Error(), nil
	}
	if strings.TrimSpace(res.Output) == "" {
		return NoAnswerText, nil
	}
	return res.Output, nil
}
