package anthropic

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentcore/pkg/llms"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentcore/pkg/llms", "anthropic")

var (
	// ErrEmptyResponse is returned when the API returns no content.
	ErrEmptyResponse = errors.New("anthropic: no response")
	// ErrMissingToken is returned when the API key is not configured.
	ErrMissingToken = errors.New("anthropic: missing API key, set it in the ANTHROPIC_API_KEY environment variable")
	// ErrInvalidContentType is returned for a message part not allowed for its role.
	ErrInvalidContentType = errors.New("anthropic: invalid content type")
)

// LLM is an Anthropic Messages API model.
type LLM struct {
	client      anthropic.Client
	model       string
	temperature float64
	maxTokens   int
}

var _ llms.Model = (*LLM)(nil)

// New returns the Anthropic LLM.
func New(opts ...Option) (*LLM, error) {
	o := &options{
		token:      os.Getenv(TokenEnvVarName),
		maxRetries: 2,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.token == "" {
		return nil, ErrMissingToken
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(o.token),
		option.WithBaseURL(values.StringsCoalesce(o.baseURL, DefaultBaseURL)),
		option.WithMaxRetries(o.maxRetries),
		option.WithRequestTimeout(5 * time.Minute),
	}
	if o.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(o.httpClient))
	}
	if o.betaHeader != "" {
		reqOpts = append(reqOpts, option.WithHeader("anthropic-beta", o.betaHeader))
	}

	return &LLM{
		client:      anthropic.NewClient(reqOpts...),
		model:       values.StringsCoalesce(o.model, DefaultChatModel),
		temperature: o.temperature,
		maxTokens:   o.maxTokens,
	}, nil
}

// GetName implements the Model interface.
func (o *LLM) GetName() string {
	return o.model
}

// GetProviderType implements the Model interface.
func (o *LLM) GetProviderType() llms.ProviderType {
	return llms.ProviderAnthropic
}

// GenerateContent implements the Model interface.
// The text and tool use blocks of the reply are returned as one choice.
func (o *LLM) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := &llms.CallOptions{
		Model:       o.model,
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	}
	for _, opt := range options {
		opt(opts)
	}

	params, err := buildRequest(messages, opts)
	if err != nil {
		return nil, err
	}

	logger.ContextKV(ctx, xlog.DEBUG, "model", opts.Model, "messages", len(params.Messages), "tools", len(params.Tools))

	result, err := o.client.Messages.New(ctx, *params)
	if err != nil {
		return nil, errors.WithMessage(err, "anthropic: failed to create message")
	}
	if len(result.Content) == 0 {
		return nil, ErrEmptyResponse
	}

	choice := &llms.ContentChoice{
		StopReason: string(result.StopReason),
		GenerationInfo: map[string]any{
			llms.GenInfoInputTokens:  result.Usage.InputTokens,
			llms.GenInfoOutputTokens: result.Usage.OutputTokens,
			llms.GenInfoTotalTokens:  result.Usage.InputTokens + result.Usage.OutputTokens,
		},
	}
	var text []string
	for _, block := range result.Content {
		switch block.Type {
		case "text":
			text = append(text, block.Text)
		case "tool_use":
			args := string(block.Input)
			if args == "" {
				args = "{}"
			}
			choice.ToolCalls = append(choice.ToolCalls, llms.ToolCall{
				ID:   block.ID,
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      block.Name,
					Arguments: args,
				},
			})
		default:
			logger.ContextKV(ctx, xlog.DEBUG, "status", "skipped_block", "type", block.Type)
		}
	}
	choice.Content = strings.Join(text, "\n")

	return &llms.ContentResponse{Choices: []*llms.ContentChoice{choice}}, nil
}

func buildRequest(messages []llms.Message, opts *llms.CallOptions) (*anthropic.MessageNewParams, error) {
	msgs, system, err := convertMessages(messages)
	if err != nil {
		return nil, err
	}

	params := &anthropic.MessageNewParams{
		Model:     anthropic.Model(opts.Model),
		Messages:  msgs,
		MaxTokens: int64(values.NumbersCoalesce(opts.MaxTokens, DefaultMaxTokens)),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if opts.Temperature > 0 {
		params.Temperature = anthropic.Float(opts.Temperature)
	}
	if opts.TopP > 0 {
		params.TopP = anthropic.Float(opts.TopP)
	}
	if len(opts.StopWords) > 0 {
		params.StopSequences = opts.StopWords
	}

	for _, t := range opts.Tools {
		tool, err := toolFromTool(t)
		if err != nil {
			return nil, err
		}
		params.Tools = append(params.Tools, tool)
	}
	if len(params.Tools) > 0 {
		switch opts.ToolChoice {
		case nil, "", "auto":
		case "required", "any":
			params.ToolChoice = anthropic.ToolChoiceUnionParam{OfAny: &anthropic.ToolChoiceAnyParam{}}
		case "none":
			params.ToolChoice = anthropic.ToolChoiceUnionParam{OfNone: &anthropic.ToolChoiceNoneParam{}}
		default:
			return nil, errors.Errorf("anthropic: unsupported tool choice %v", opts.ToolChoice)
		}
	}
	if uid, ok := opts.Metadata[llms.MetadataUserID].(string); ok && uid != "" {
		params.Metadata = anthropic.MetadataParam{UserID: anthropic.String(uid)}
	}
	return params, nil
}

// convertMessages returns the conversation and the joined system prompt.
// Tool responses are sent as user messages with tool result blocks.
func convertMessages(messages []llms.Message) ([]anthropic.MessageParam, string, error) {
	var res []anthropic.MessageParam
	var system []string

	for _, mc := range messages {
		if len(mc.Parts) == 0 {
			continue
		}
		var blocks []anthropic.ContentBlockParamUnion

		switch mc.Role {
		case llms.RoleSystem:
			system = append(system, textOf(mc))
			continue
		case llms.RoleHuman:
			for _, p := range mc.Parts {
				tc, ok := p.(llms.TextContent)
				if !ok {
					return nil, "", errors.WithMessagef(ErrInvalidContentType, "human message part %T", p)
				}
				blocks = append(blocks, anthropic.NewTextBlock(tc.Text))
			}
			res = append(res, anthropic.NewUserMessage(blocks...))
		case llms.RoleAI:
			for _, p := range mc.Parts {
				switch part := p.(type) {
				case llms.TextContent:
					if part.Text != "" {
						blocks = append(blocks, anthropic.NewTextBlock(part.Text))
					}
				case llms.ToolCall:
					args := json.RawMessage("{}")
					if part.FunctionCall.Arguments != "" {
						if !json.Valid([]byte(part.FunctionCall.Arguments)) {
							return nil, "", errors.Newf("anthropic: invalid arguments of tool call %s", part.ID)
						}
						args = json.RawMessage(part.FunctionCall.Arguments)
					}
					blocks = append(blocks, anthropic.NewToolUseBlock(part.ID, args, part.FunctionCall.Name))
				default:
					return nil, "", errors.WithMessagef(ErrInvalidContentType, "AI message part %T", p)
				}
			}
			res = append(res, anthropic.NewAssistantMessage(blocks...))
		case llms.RoleTool:
			for _, p := range mc.Parts {
				r, ok := p.(llms.ToolCallResponse)
				if !ok {
					return nil, "", errors.WithMessagef(ErrInvalidContentType, "tool message part %T", p)
				}
				blocks = append(blocks, anthropic.NewToolResultBlock(r.ToolCallID, r.Content, r.IsError))
			}
			res = append(res, anthropic.NewUserMessage(blocks...))
		default:
			return nil, "", errors.Wrapf(llms.ErrUnexpectedRole, "anthropic: role %q", mc.Role)
		}
	}
	return res, strings.Join(system, "\n"), nil
}

// toolFromTool converts an llms.Tool to the tool parameter.
func toolFromTool(t llms.Tool) (anthropic.ToolUnionParam, error) {
	if t.Type != "function" || t.Function == nil {
		return anthropic.ToolUnionParam{}, errors.Errorf("anthropic: tool type %v not supported", t.Type)
	}

	schema := anthropic.ToolInputSchemaParam{}
	if p := t.Function.Parameters; p != nil {
		if p.Properties != nil {
			props := make(map[string]any, p.Properties.Len())
			for pair := p.Properties.Oldest(); pair != nil; pair = pair.Next() {
				props[pair.Key] = pair.Value
			}
			schema.Properties = props
		}
		schema.Required = p.Required
	}

	tool := &anthropic.ToolParam{
		Name:        t.Function.Name,
		InputSchema: schema,
	}
	if t.Function.Description != "" {
		tool.Description = anthropic.String(t.Function.Description)
	}
	return anthropic.ToolUnionParam{OfTool: tool}, nil
}

func textOf(mc llms.Message) string {
	var parts []string
	for _, p := range mc.Parts {
		if tc, ok := p.(llms.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
