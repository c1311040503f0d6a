package main

import (
	"github.com/effective-security/agentcore/agent"
	"github.com/effective-security/agentcore/experts"
	"github.com/effective-security/agentcore/runtime"
	"github.com/effective-security/agentcore/tools"
	"github.com/effective-security/agentcore/tools/mcptools"
	"github.com/effective-security/agentcore/tools/tavily"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
)

// ServeCmd runs the agent runtime.
type ServeCmd struct {
	BootstrapCmd `embed:""`

	Listen    string `help:"The listen address, defaults to AGENTCORE_LISTEN_ADDR."`
	Model     string `help:"The preferred model name."`
	NoGateway bool   `name:"no-gateway" help:"Serve without the gateway tools."`

	ExpertFlags `embed:""`
}

// Run bootstraps the gateway, builds the agent with its tools and serves the invocations.
func (c *ServeCmd) Run(ctx *Context) error {
	cfg := ctx.Config

	factory, err := ctx.Models()
	if err != nil {
		return err
	}
	model, err := factory.ModelByName(values.StringsCoalesce(c.Model, cfg.ModelID))
	if err != nil {
		return err
	}

	opts := []runtime.FactoryOption{
		runtime.WithAgentOptions(
			agent.WithName("agentcore_runtime"),
			agent.WithTracerProvider(ctx.TracerProvider),
			agent.WithCallback(agent.NewLoggerCallback(logger)),
		),
	}
	if cfg.TavilyAPIKey != "" {
		search, err := tavily.New(cfg.TavilyAPIKey)
		if err != nil {
			return err
		}
		opts = append(opts, runtime.WithStaticTools(tools.ITool(search)))
	}

	if len(c.Experts) > 0 {
		list, err := c.start(ctx, cfg, factory, c.Model,
			agent.WithTracerProvider(ctx.TracerProvider),
			agent.WithCallback(agent.NewLoggerCallback(logger)),
		)
		if err != nil {
			return err
		}
		defer experts.CloseAll(list)
		opts = append(opts, runtime.WithStaticTools(experts.Tools(list)...))
	}

	if !c.NoGateway {
		b, rs, err := c.bootstrap(ctx)
		if err != nil {
			return err
		}
		// the runtime outlives the token, a new one is issued on expiry
		ts := b.TokenSource(ctx, rs.Cognito)
		if _, err = ts.Token(); err != nil {
			return err
		}
		opts = append(opts, runtime.WithGateway(rs.Gateway.GatewayURL, "", mcptools.WithTokenSource(ts)))
	}

	a, closer, err := runtime.NewAgent(ctx, cfg, model, opts...)
	if err != nil {
		return err
	}

	app := runtime.NewApp(a, closer)
	defer func() {
		if err := app.Close(); err != nil {
			logger.KV(xlog.WARNING, "status", "close_failed", "err", err.Error())
		}
	}()

	return app.ListenAndServe(ctx, values.StringsCoalesce(c.Listen, cfg.ListenAddr))
}
