package bedrock

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentcore/pkg/llms"
	"github.com/effective-security/agentcore/pkg/llms/bedrock/internal/bedrockclient"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentcore/pkg/llms", "bedrock")

// DefaultModel is the model used when none is configured.
const DefaultModel = "anthropic.claude-3-7-sonnet-20250219-v1:0"

// ConverseAPI is the subset of the Bedrock Runtime client used by the provider.
type ConverseAPI = bedrockclient.API

// Option is an option for the Bedrock LLM.
type Option func(*options)

type options struct {
	modelID     string
	region      string
	temperature float64
	maxTokens   int
	client      ConverseAPI
}

// WithModel sets the model ID or inference profile to use.
func WithModel(modelID string) Option {
	return func(o *options) {
		o.modelID = modelID
	}
}

// WithRegion sets the AWS region when the client is created from the default config.
func WithRegion(region string) Option {
	return func(o *options) {
		o.region = region
	}
}

// WithTemperature sets the default temperature.
func WithTemperature(temperature float64) Option {
	return func(o *options) {
		o.temperature = temperature
	}
}

// WithMaxTokens sets the default max tokens.
func WithMaxTokens(maxTokens int) Option {
	return func(o *options) {
		o.maxTokens = maxTokens
	}
}

// WithClient sets the Bedrock Runtime client.
func WithClient(client ConverseAPI) Option {
	return func(o *options) {
		o.client = client
	}
}

// LLM is a Bedrock LLM implementation.
type LLM struct {
	modelID     string
	temperature float64
	maxTokens   int
	client      *bedrockclient.Client
}

// New creates a new Bedrock LLM implementation.
func New(ctx context.Context, opts ...Option) (*LLM, error) {
	o := &options{
		modelID: DefaultModel,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.client == nil {
		var loadOpts []func(*config.LoadOptions) error
		if o.region != "" {
			loadOpts = append(loadOpts, config.WithRegion(o.region))
		}
		cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load AWS config")
		}
		o.client = bedrockruntime.NewFromConfig(cfg)
	}

	logger.KV(xlog.DEBUG, "model", o.modelID, "region", o.region)

	return &LLM{
		modelID:     o.modelID,
		temperature: o.temperature,
		maxTokens:   o.maxTokens,
		client:      bedrockclient.NewClient(o.client),
	}, nil
}

// GetName implements the Model interface.
func (l *LLM) GetName() string {
	return l.modelID
}

// GetProviderType implements the Model interface.
func (l *LLM) GetProviderType() llms.ProviderType {
	return llms.ProviderBedrock
}

// GenerateContent implements llms.Model.
func (l *LLM) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := &llms.CallOptions{
		Model:       l.modelID,
		Temperature: l.temperature,
		MaxTokens:   l.maxTokens,
	}
	for _, opt := range options {
		opt(opts)
	}
	return l.client.CreateCompletion(ctx, opts.Model, messages, opts)
}

var _ llms.Model = (*LLM)(nil)
