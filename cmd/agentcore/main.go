// Command agentcore bootstraps the AgentCore gateway and runs the agents.
//
// Usage:
//
//	agentcore bootstrap
//	agentcore serve --listen :8080
//	agentcore chat
//	agentcore swarm
//	agentcore research --mcp-url https://knowledge-mcp.global.api.aws
//	agentcore mcp --listen :8000
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentcore/config"
	"github.com/effective-security/agentcore/pkg/llmfactory"
	"github.com/effective-security/agentcore/telemetry"
	"github.com/effective-security/xlog"
	"go.opentelemetry.io/otel/trace"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentcore", "main")

// CLI defines the command-line interface.
type CLI struct {
	Bootstrap BootstrapCmd `cmd:"" help:"Create or load the gateway resources and print them."`
	Serve     ServeCmd     `cmd:"" help:"Start the agent runtime with the gateway tools."`
	Chat      ChatCmd      `cmd:"" help:"Chat with the recipe assistant."`
	Swarm     SwarmCmd     `cmd:"" help:"Run tasks with the swarm of research, creative, critical and summarizer agents."`
	Research  ResearchCmd  `cmd:"" help:"Answer AWS questions with the expert agents using MCP servers."`
	MCP       MCPCmd       `cmd:"" name:"mcp" help:"Serve the local tools over MCP."`

	EnvFile []string `name:"env-file" help:"The .env files to load." default:".env" type:"path"`
	Debug   bool     `help:"Enable debug logging."`
}

// Context is the state shared by the commands.
type Context struct {
	context.Context

	Config         *config.Config
	TracerProvider trace.TracerProvider
}

// Models returns the LLM factory of the configured providers.
func (c *Context) Models() (llmfactory.Factory, error) {
	return llmfactory.NewFromConfig(c.Config)
}

func main() {
	cli := CLI{}
	kctx := kong.Parse(&cli,
		kong.Name("agentcore"),
		kong.Description("Amazon Bedrock AgentCore gateway bootstrap and agent runtime"),
		kong.UsageOnError(),
	)

	xlog.SetFormatter(xlog.NewStringFormatter(os.Stderr))
	if cli.Debug {
		xlog.SetGlobalLogLevel(xlog.DEBUG)
	} else {
		xlog.SetGlobalLogLevel(xlog.INFO)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, kctx, &cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %+v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, kctx *kong.Context, cli *CLI) error {
	cfg := config.Load(cli.EnvFile...)
	if cfg.SecretID != "" {
		awscfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return errors.Wrap(err, "failed to load AWS config")
		}
		if err = cfg.ResolveSecrets(ctx, secretsmanager.NewFromConfig(awscfg)); err != nil {
			return err
		}
	}

	tp, shutdown, err := telemetry.Init(ctx, cfg.Telemetry, telemetry.WithGlobal(true))
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.KV(xlog.WARNING, "status", "telemetry_shutdown_failed", "err", err.Error())
		}
	}()

	logger.KV(xlog.DEBUG,
		"region", cfg.Region,
		"gateway", cfg.GatewayName,
		"exporter", cfg.Telemetry.Exporter,
	)

	return kctx.Run(&Context{
		Context:        ctx,
		Config:         cfg,
		TracerProvider: tp,
	})
}
