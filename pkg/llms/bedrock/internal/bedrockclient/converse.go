package bedrockclient

import (
	"encoding/json"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentcore/pkg/llms"
)

// convertMessages returns the system prompt blocks and the conversation.
// Consecutive messages with the same Converse role are merged,
// as Converse requires alternating user and assistant turns.
func convertMessages(messages []llms.Message) ([]types.SystemContentBlock, []types.Message, error) {
	var system []types.SystemContentBlock
	var result []types.Message

	for _, m := range messages {
		if m.Role == llms.RoleSystem {
			for _, part := range m.Parts {
				if tc, ok := part.(llms.TextContent); ok && tc.Text != "" {
					system = append(system, &types.SystemContentBlockMemberText{Value: tc.Text})
				}
			}
			continue
		}

		role, err := converseRole(m.Role)
		if err != nil {
			return nil, nil, err
		}

		blocks := make([]types.ContentBlock, 0, len(m.Parts))
		for _, part := range m.Parts {
			block, err := convertPart(part)
			if err != nil {
				return nil, nil, err
			}
			if block != nil {
				blocks = append(blocks, block)
			}
		}
		if len(blocks) == 0 {
			continue
		}

		if n := len(result); n > 0 && result[n-1].Role == role {
			result[n-1].Content = append(result[n-1].Content, blocks...)
			continue
		}
		result = append(result, types.Message{
			Role:    role,
			Content: blocks,
		})
	}
	return system, result, nil
}

func converseRole(role llms.Role) (types.ConversationRole, error) {
	switch role {
	case llms.RoleHuman, llms.RoleTool:
		return types.ConversationRoleUser, nil
	case llms.RoleAI:
		return types.ConversationRoleAssistant, nil
	default:
		return "", errors.Wrapf(llms.ErrUnexpectedRole, "bedrock: role %q", role)
	}
}

func convertPart(part llms.ContentPart) (types.ContentBlock, error) {
	switch p := part.(type) {
	case llms.TextContent:
		if p.Text == "" {
			return nil, nil
		}
		return &types.ContentBlockMemberText{Value: p.Text}, nil
	case llms.ToolCall:
		if p.FunctionCall == nil {
			return nil, errors.Newf("bedrock: tool call %s has no function", p.ID)
		}
		input, err := toDocument(p.FunctionCall.Arguments)
		if err != nil {
			return nil, errors.WithMessagef(err, "bedrock: invalid arguments for tool %s", p.FunctionCall.Name)
		}
		return &types.ContentBlockMemberToolUse{
			Value: types.ToolUseBlock{
				ToolUseId: aws.String(p.ID),
				Name:      aws.String(p.FunctionCall.Name),
				Input:     input,
			},
		}, nil
	case llms.ToolCallResponse:
		res := types.ToolResultBlock{
			ToolUseId: aws.String(p.ToolCallID),
			Content: []types.ToolResultContentBlock{
				&types.ToolResultContentBlockMemberText{Value: p.Content},
			},
		}
		if p.IsError {
			res.Status = types.ToolResultStatusError
		}
		return &types.ContentBlockMemberToolResult{Value: res}, nil
	default:
		return nil, errors.Newf("bedrock: unsupported content part %T", part)
	}
}

// toDocument converts a JSON object to a smithy document.
func toDocument(js string) (document.Interface, error) {
	v := map[string]any{}
	if strings.TrimSpace(js) != "" {
		if err := json.Unmarshal([]byte(js), &v); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	return document.NewLazyDocument(v), nil
}

func convertTools(tools []llms.Tool, choice any) (*types.ToolConfiguration, error) {
	if len(tools) == 0 {
		return nil, nil
	}

	tc := &types.ToolConfiguration{}
	for _, t := range tools {
		if t.Function == nil {
			continue
		}
		schema := map[string]any{"type": "object", "properties": map[string]any{}}
		if t.Function.Parameters != nil {
			js, err := json.Marshal(t.Function.Parameters)
			if err != nil {
				return nil, errors.Wrapf(err, "bedrock: invalid schema for tool %s", t.Function.Name)
			}
			schema = map[string]any{}
			if err = json.Unmarshal(js, &schema); err != nil {
				return nil, errors.Wrapf(err, "bedrock: invalid schema for tool %s", t.Function.Name)
			}
		}
		spec := types.ToolSpecification{
			Name:        aws.String(t.Function.Name),
			InputSchema: &types.ToolInputSchemaMemberJson{Value: document.NewLazyDocument(schema)},
		}
		if t.Function.Description != "" {
			spec.Description = aws.String(t.Function.Description)
		}
		tc.Tools = append(tc.Tools, &types.ToolMemberToolSpec{Value: spec})
	}

	switch c := choice.(type) {
	case nil:
		tc.ToolChoice = &types.ToolChoiceMemberAuto{Value: types.AutoToolChoice{}}
	case string:
		switch c {
		case "", "auto":
			tc.ToolChoice = &types.ToolChoiceMemberAuto{Value: types.AutoToolChoice{}}
		case "required", "any":
			tc.ToolChoice = &types.ToolChoiceMemberAny{Value: types.AnyToolChoice{}}
		case "none":
			return nil, nil
		default:
			return nil, errors.Newf("bedrock: unsupported tool choice %q", c)
		}
	case llms.ToolChoice:
		if c.Function == nil {
			return nil, errors.New("bedrock: tool choice requires a function")
		}
		tc.ToolChoice = &types.ToolChoiceMemberTool{Value: types.SpecificToolChoice{Name: aws.String(c.Function.Name)}}
	default:
		return nil, errors.Newf("bedrock: unsupported tool choice %v", choice)
	}
	return tc, nil
}

func parseConverseOutput(out *bedrockruntime.ConverseOutput) (*llms.ContentResponse, error) {
	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return nil, errors.New("bedrock: no message in response")
	}

	choice := &llms.ContentChoice{
		StopReason:     string(out.StopReason),
		GenerationInfo: map[string]any{},
	}

	var text []string
	for _, block := range msg.Value.Content {
		switch b := block.(type) {
		case *types.ContentBlockMemberText:
			text = append(text, b.Value)
		case *types.ContentBlockMemberToolUse:
			args := "{}"
			if b.Value.Input != nil {
				js, err := b.Value.Input.MarshalSmithyDocument()
				if err != nil {
					return nil, errors.Wrap(err, "bedrock: invalid tool input")
				}
				args = string(js)
			}
			choice.ToolCalls = append(choice.ToolCalls, llms.ToolCall{
				ID:   aws.ToString(b.Value.ToolUseId),
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      aws.ToString(b.Value.Name),
					Arguments: args,
				},
			})
		}
	}
	choice.Content = strings.Join(text, "\n")

	if u := out.Usage; u != nil {
		choice.GenerationInfo[llms.GenInfoInputTokens] = aws.ToInt32(u.InputTokens)
		choice.GenerationInfo[llms.GenInfoOutputTokens] = aws.ToInt32(u.OutputTokens)
		choice.GenerationInfo[llms.GenInfoTotalTokens] = aws.ToInt32(u.TotalTokens)
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{choice},
	}, nil
}
