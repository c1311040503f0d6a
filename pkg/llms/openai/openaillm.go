package openai

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentcore/pkg/llms"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentcore/pkg/llms", "openai")

// ErrEmptyResponse is returned when the OpenAI API returns an empty response.
var ErrEmptyResponse = errors.New("empty response")

// LLM is an OpenAI chat completions model.
type LLM struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int
}

var _ llms.Model = (*LLM)(nil)

// New returns a new OpenAI LLM.
func New(opts ...Option) (*LLM, error) {
	o := &options{
		maxRetries: 2,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.token == "" {
		return nil, errors.New("openai: API key is required")
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(o.token),
		option.WithBaseURL(values.StringsCoalesce(o.baseURL, DefaultBaseURL)),
		option.WithMaxRetries(o.maxRetries),
	}
	if o.organization != "" {
		reqOpts = append(reqOpts, option.WithOrganization(o.organization))
	}
	if o.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(o.httpClient))
	}

	return &LLM{
		client:      openai.NewClient(reqOpts...),
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
	return llms.ProviderOpenAI
}

// GenerateContent implements the Model interface.
func (o *LLM) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := &llms.CallOptions{
		Model:       o.model,
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	}
	for _, opt := range options {
		opt(opts)
	}

	req, err := buildRequest(messages, opts)
	if err != nil {
		return nil, err
	}

	logger.ContextKV(ctx, xlog.DEBUG, "model", opts.Model, "messages", len(req.Messages), "tools", len(req.Tools))

	result, err := o.client.Chat.Completions.New(ctx, *req)
	if err != nil {
		return nil, errors.WithMessage(err, "openai: chat completion failed")
	}
	if len(result.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	choices := make([]*llms.ContentChoice, len(result.Choices))
	for i, c := range result.Choices {
		choices[i] = &llms.ContentChoice{
			Content:    c.Message.Content,
			StopReason: string(c.FinishReason),
			GenerationInfo: map[string]any{
				llms.GenInfoInputTokens:  result.Usage.PromptTokens,
				llms.GenInfoOutputTokens: result.Usage.CompletionTokens,
				llms.GenInfoTotalTokens:  result.Usage.TotalTokens,
			},
		}
		for _, tool := range c.Message.ToolCalls {
			choices[i].ToolCalls = append(choices[i].ToolCalls, llms.ToolCall{
				ID:   tool.ID,
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      tool.Function.Name,
					Arguments: tool.Function.Arguments,
				},
			})
		}
	}
	return &llms.ContentResponse{Choices: choices}, nil
}

func buildRequest(messages []llms.Message, opts *llms.CallOptions) (*openai.ChatCompletionNewParams, error) {
	req := &openai.ChatCompletionNewParams{
		Model: shared.ChatModel(opts.Model),
	}

	for _, mc := range messages {
		msgs, err := convertMessage(mc)
		if err != nil {
			return nil, err
		}
		req.Messages = append(req.Messages, msgs...)
	}

	if opts.Temperature > 0 {
		req.Temperature = openai.Float(opts.Temperature)
	}
	if opts.TopP > 0 {
		req.TopP = openai.Float(opts.TopP)
	}
	if opts.MaxTokens > 0 {
		req.MaxCompletionTokens = openai.Int(int64(opts.MaxTokens))
	}
	if len(opts.StopWords) > 0 {
		req.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: opts.StopWords}
	}

	for _, t := range opts.Tools {
		tool, err := toolFromTool(t)
		if err != nil {
			return nil, errors.Wrap(err, "failed to convert llms tool to openai tool")
		}
		req.Tools = append(req.Tools, tool)
	}

	switch c := opts.ToolChoice.(type) {
	case nil:
	case string:
		if c != "" && len(req.Tools) > 0 {
			req.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openai.String(c)}
		}
	default:
		return nil, errors.Errorf("openai: unsupported tool choice %v", opts.ToolChoice)
	}
	return req, nil
}

// convertMessage returns the chat messages for the message.
// Tool responses become one tool message per response.
func convertMessage(mc llms.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	switch mc.Role {
	case llms.RoleSystem:
		return []openai.ChatCompletionMessageParamUnion{openai.SystemMessage(textOf(mc))}, nil
	case llms.RoleHuman:
		return []openai.ChatCompletionMessageParamUnion{openai.UserMessage(textOf(mc))}, nil
	case llms.RoleAI:
		assistant := openai.ChatCompletionAssistantMessageParam{}
		if text := textOf(mc); text != "" {
			assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{OfString: openai.String(text)}
		}
		for _, p := range mc.Parts {
			if tc, ok := p.(llms.ToolCall); ok && tc.FunctionCall != nil {
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: tc.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      tc.FunctionCall.Name,
							Arguments: tc.FunctionCall.Arguments,
						},
					},
				})
			}
		}
		return []openai.ChatCompletionMessageParamUnion{{OfAssistant: &assistant}}, nil
	case llms.RoleTool:
		var res []openai.ChatCompletionMessageParamUnion
		for _, p := range mc.Parts {
			r, ok := p.(llms.ToolCallResponse)
			if !ok {
				return nil, errors.Errorf("expected part of type ToolCallResponse for role %v, got %T", mc.Role, p)
			}
			res = append(res, openai.ToolMessage(r.Content, r.ToolCallID))
		}
		return res, nil
	default:
		return nil, errors.Wrapf(llms.ErrUnexpectedRole, "openai: role %q", mc.Role)
	}
}

func textOf(mc llms.Message) string {
	var text string
	for _, p := range mc.Parts {
		if tc, ok := p.(llms.TextContent); ok {
			if text != "" {
				text += "\n"
			}
			text += tc.Text
		}
	}
	return text
}

// toolFromTool converts an llms.Tool to a function tool.
func toolFromTool(t llms.Tool) (openai.ChatCompletionToolUnionParam, error) {
	if t.Type != "function" || t.Function == nil {
		return openai.ChatCompletionToolUnionParam{}, errors.Errorf("tool type %v not supported", t.Type)
	}

	def := shared.FunctionDefinitionParam{
		Name: t.Function.Name,
	}
	if t.Function.Description != "" {
		def.Description = openai.String(t.Function.Description)
	}
	if t.Function.Strict {
		def.Strict = openai.Bool(true)
	}
	if t.Function.Parameters != nil {
		js, err := json.Marshal(t.Function.Parameters)
		if err != nil {
			return openai.ChatCompletionToolUnionParam{}, errors.WithStack(err)
		}
		params := shared.FunctionParameters{}
		if err = json.Unmarshal(js, &params); err != nil {
			return openai.ChatCompletionToolUnionParam{}, errors.WithStack(err)
		}
		def.Parameters = params
	}
	return openai.ChatCompletionFunctionTool(def), nil
}
