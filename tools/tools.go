package tools

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentcore/pkg/llms"
	"github.com/effective-security/agentcore/pkg/llmutils"
	"github.com/effective-security/agentcore/pkg/schema"
	"github.com/invopop/jsonschema"
)

//go:generate mockgen -source=tools.go -destination=../mocks/mocktools/tools_mock.gen.go -package mocktools

// ErrFailedUnmarshalInput is returned when the tool input does not match
// the parameters schema.
var ErrFailedUnmarshalInput = errors.New("failed to unmarshal input: check the schema and try again")

// ITool is a tool for the llm agent to interact with different applications.
type ITool interface {
	// Name returns the name of the Tool.
	Name() string
	// Description returns the description of the tool, to be used in the prompt.
	// Should not exceed LLM model limit.
	Description() string
	// Parameters returns the JSON schema of the tool input.
	Parameters() *jsonschema.Schema

	// Call executes the tool with the given input and returns the result.
	// If the tool fails to parse the input, it should return ErrFailedUnmarshalInput error.
	Call(context.Context, string) (string, error)
}

// Tool is a typed tool.
type Tool[I any, O any] interface {
	ITool
	Run(context.Context, *I) (*O, error)
}

// Callback receives the tool events.
type Callback interface {
	OnToolStart(context.Context, ITool, string)
	OnToolEnd(context.Context, ITool, string, string)
	OnToolError(context.Context, ITool, string, error)
}

// DecodeInput parses the tool input as JSON,
// the input is cleaned from the text the LLM may add around it.
func DecodeInput[I any](input string) (*I, error) {
	var req I
	if err := json.Unmarshal(llmutils.CleanJSON([]byte(input)), &req); err != nil {
		return nil, errors.WithStack(ErrFailedUnmarshalInput)
	}
	return &req, nil
}

// EncodeOutput returns the tool result as a string for the LLM,
// strings are returned as is.
func EncodeOutput(out any) (string, error) {
	switch s := out.(type) {
	case string:
		return s, nil
	case *string:
		return *s, nil
	}
	bs, err := json.Marshal(out)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal output")
	}
	return string(bs), nil
}

// ToLLMTools returns the function definitions of the tools.
func ToLLMTools(list []ITool) []llms.Tool {
	res := make([]llms.Tool, 0, len(list))
	for _, t := range list {
		res = append(res, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return res
}

// Find returns the tool by name, or nil if not found.
func Find(list []ITool, name string) ITool {
	for _, t := range list {
		if t.Name() == name {
			return t
		}
	}
	return nil
}

type funcTool[I any, O any] struct {
	name        string
	description string
	params      *jsonschema.Schema
	fn          func(context.Context, *I) (*O, error)
}

// NewFunc returns a tool that calls fn,
// the parameters schema is reflected from I.
func NewFunc[I any, O any](name, description string, fn func(context.Context, *I) (*O, error)) Tool[I, O] {
	return &funcTool[I, O]{
		name:        name,
		description: description,
		params:      schema.For[I](),
		fn:          fn,
	}
}

func (t *funcTool[I, O]) Name() string {
	return t.name
}

func (t *funcTool[I, O]) Description() string {
	return t.description
}

func (t *funcTool[I, O]) Parameters() *jsonschema.Schema {
	return t.params
}

func (t *funcTool[I, O]) Run(ctx context.Context, req *I) (*O, error) {
	return t.fn(ctx, req)
}

func (t *funcTool[I, O]) Call(ctx context.Context, input string) (string, error) {
	req, err := DecodeInput[I](input)
	if err != nil {
		return "", err
	}
	out, err := t.fn(ctx, req)
	if err != nil {
		return "", err
	}
	return EncodeOutput(out)
}

type toolDescription struct {
	Name        string `json:"Name" yaml:"Name"`
	Description string `json:"Description" yaml:"Description"`
}

type toolsDescription struct {
	Tools []toolDescription `json:"Tools" yaml:"Tools"`
}

// GetDescriptions returns the names and descriptions of the tools
// as JSON in backticks, to be used in a prompt.
func GetDescriptions(list ...ITool) string {
	var d toolsDescription
	for _, tool := range list {
		d.Tools = append(d.Tools, toolDescription{
			Name:        tool.Name(),
			Description: tool.Description(),
		})
	}
	return llmutils.BackticksJSON(llmutils.ToJSONIndent(d))
}
