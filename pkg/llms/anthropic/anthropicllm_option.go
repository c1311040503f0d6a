package anthropic

import (
	"net/http"
)

const (
	// TokenEnvVarName is the environment variable with the API key.
	TokenEnvVarName = "ANTHROPIC_API_KEY" //nolint:gosec
	// DefaultBaseURL is the Anthropic API endpoint.
	DefaultBaseURL = "https://api.anthropic.com"
	// DefaultChatModel is the model used when none is configured.
	DefaultChatModel = "claude-3-7-sonnet-latest"
	// DefaultMaxTokens is required by the Messages API.
	DefaultMaxTokens = 4096
)

type options struct {
	token       string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
	maxRetries  int
	httpClient  *http.Client
	// the 'anthropic-beta' header value
	betaHeader string
}

// Option is a functional option for the Anthropic client.
type Option func(*options)

// WithToken passes the Anthropic API token to the client. If not set, the token
// is read from the ANTHROPIC_API_KEY environment variable.
func WithToken(token string) Option {
	return func(opts *options) {
		opts.token = token
	}
}

// WithModel passes the Anthropic model to the client.
func WithModel(model string) Option {
	return func(opts *options) {
		opts.model = model
	}
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(opts *options) {
		opts.baseURL = baseURL
	}
}

// WithTemperature sets the default temperature.
func WithTemperature(temperature float64) Option {
	return func(opts *options) {
		opts.temperature = temperature
	}
}

// WithMaxTokens sets the default output tokens limit.
func WithMaxTokens(maxTokens int) Option {
	return func(opts *options) {
		opts.maxTokens = maxTokens
	}
}

// WithMaxRetries sets the retries of the throttled requests.
func WithMaxRetries(n int) Option {
	return func(opts *options) {
		opts.maxRetries = n
	}
}

// WithHTTPClient allows setting a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(opts *options) {
		opts.httpClient = client
	}
}

// WithBetaHeader adds the anthropic-beta header to support extended options.
func WithBetaHeader(value string) Option {
	return func(opts *options) {
		opts.betaHeader = value
	}
}
