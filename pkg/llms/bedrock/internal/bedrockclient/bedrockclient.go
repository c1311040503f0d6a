package bedrockclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentcore/pkg/llms"
)

// DefaultMaxTokens is used when the call does not specify MaxTokens.
const DefaultMaxTokens = 4096

// API is the subset of the Bedrock Runtime client used by the provider.
type API interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Client is a Bedrock client.
type Client struct {
	api API
}

// NewClient creates a new Bedrock client.
func NewClient(api API) *Client {
	return &Client{
		api: api,
	}
}

// getProvider returns the model family of the model ID.
// Inference profiles (e.g. "us.anthropic.claude-3-5-sonnet-20241022-v2:0")
// carry a region prefix before the family.
func getProvider(modelID string) string {
	parts := strings.Split(modelID, ".")
	if len(parts) >= 2 {
		if len(parts[0]) == 2 && strings.ToLower(parts[0]) == parts[0] {
			return parts[1]
		}
		return parts[0]
	}
	return parts[0]
}

// SupportsTools returns true if the model family supports tool use in Converse.
func SupportsTools(modelID string) bool {
	switch getProvider(modelID) {
	case "anthropic", "amazon", "meta", "mistral", "cohere", "ai21":
		return true
	}
	return false
}

// CreateCompletion sends the messages with Converse and returns the model's response.
func (c *Client) CreateCompletion(ctx context.Context,
	modelID string,
	messages []llms.Message,
	options *llms.CallOptions,
) (*llms.ContentResponse, error) {
	input, err := buildConverseInput(modelID, messages, options)
	if err != nil {
		return nil, err
	}

	if input.ToolConfig != nil && !SupportsTools(modelID) {
		return nil, errors.Newf("bedrock: model %s does not support tools", modelID)
	}

	out, err := c.api.Converse(ctx, input)
	if err != nil {
		return nil, errors.WithMessagef(err, "bedrock: converse failed")
	}
	return parseConverseOutput(out)
}

func buildConverseInput(modelID string, messages []llms.Message, o *llms.CallOptions) (*bedrockruntime.ConverseInput, error) {
	system, msgs, err := convertMessages(messages)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, errors.New("bedrock: at least one user message is required")
	}

	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(modelID),
		Messages: msgs,
		System:   system,
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens: aws.Int32(int32(getMaxTokens(o.MaxTokens, DefaultMaxTokens))),
		},
	}
	if o.Temperature > 0 {
		input.InferenceConfig.Temperature = aws.Float32(float32(o.Temperature))
	}
	if o.TopP > 0 {
		input.InferenceConfig.TopP = aws.Float32(float32(o.TopP))
	}
	if len(o.StopWords) > 0 {
		input.InferenceConfig.StopSequences = o.StopWords
	}
	for k, v := range o.Metadata {
		if input.RequestMetadata == nil {
			input.RequestMetadata = map[string]string{}
		}
		input.RequestMetadata[k] = fmt.Sprint(v)
	}

	tc, err := convertTools(o.Tools, o.ToolChoice)
	if err != nil {
		return nil, err
	}
	input.ToolConfig = tc
	return input, nil
}

func getMaxTokens(maxTokens, defaultValue int) int {
	if maxTokens <= 0 {
		return defaultValue
	}
	return maxTokens
}
