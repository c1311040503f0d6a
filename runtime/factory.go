// Package runtime builds the agent served by the AgentCore runtime
// and exposes its invocations over HTTP.
package runtime

import (
	"context"

	"github.com/effective-security/agentcore/agent"
	"github.com/effective-security/agentcore/config"
	"github.com/effective-security/agentcore/pkg/llms"
	"github.com/effective-security/agentcore/tools"
	"github.com/effective-security/agentcore/tools/mcptools"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentcore", "runtime")

// CloseFunc releases the resources of the agent tools.
type CloseFunc func() error

func noopClose() error { return nil }

// FactoryOption configures NewAgent.
type FactoryOption func(*factoryOptions)

type factoryOptions struct {
	static       []tools.ITool
	gatewayURL   string
	gatewayToken string
	mcpOptions   []mcptools.Option
	agentOptions []agent.Option
}

// WithStaticTools adds the tools to the agent.
func WithStaticTools(list ...tools.ITool) FactoryOption {
	return func(o *factoryOptions) {
		o.static = append(o.static, list...)
	}
}

// WithGateway adds all tools listed by the MCP gateway,
// the token is sent as the bearer authorization.
func WithGateway(url, token string, opts ...mcptools.Option) FactoryOption {
	return func(o *factoryOptions) {
		o.gatewayURL = url
		o.gatewayToken = token
		o.mcpOptions = opts
	}
}

// WithAgentOptions adds options of the created agent.
func WithAgentOptions(opts ...agent.Option) FactoryOption {
	return func(o *factoryOptions) {
		o.agentOptions = append(o.agentOptions, opts...)
	}
}

// NewAgent returns the agent for the model, with the configured system prompt
// and temperature, and the static and gateway tools.
// The returned CloseFunc closes the gateway session.
func NewAgent(ctx context.Context, cfg *config.Config, model llms.Model, opts ...FactoryOption) (*agent.Agent, CloseFunc, error) {
	o := &factoryOptions{}
	for _, opt := range opts {
		opt(o)
	}

	list := append([]tools.ITool(nil), o.static...)
	closer := CloseFunc(noopClose)

	if o.gatewayURL != "" {
		mcpTools, client, err := mcptools.ListTools(ctx, o.gatewayURL, o.gatewayToken, o.mcpOptions...)
		if err != nil {
			return nil, nil, err
		}
		list = append(list, mcpTools...)
		closer = client.Close

		logger.ContextKV(ctx, xlog.INFO,
			"status", "gateway_tools_loaded",
			"url", o.gatewayURL,
			"tools", len(mcpTools),
		)
	}

	agentOpts := []agent.Option{
		agent.WithSystemPrompt(cfg.SystemPrompt),
		agent.WithCallOptions(llms.WithTemperature(cfg.Temperature)),
		agent.WithTools(list...),
	}
	agentOpts = append(agentOpts, o.agentOptions...)

	return agent.New(model, agentOpts...), closer, nil
}
