package main

import (
	"context"
	"fmt"
	"os"

	"github.com/effective-security/agentcore/agent"
	"github.com/effective-security/agentcore/config"
	"github.com/effective-security/agentcore/experts"
	"github.com/effective-security/agentcore/pkg/llmfactory"
	"github.com/effective-security/agentcore/pkg/llms"
	"github.com/effective-security/agentcore/telemetry"
	"go.opentelemetry.io/otel/trace"
)

const researchPrompt = `You are an AWS research assistant.
Answer the user questions with the expert tools, each expert has its own AWS knowledge and tools.
Ask the experts precise questions, combine their answers and keep their citations.
Tell the user the files written by the experts.`

// ExpertFlags select the expert agents and their MCP servers.
type ExpertFlags struct {
	Experts   []string `name:"expert" help:"The expert agents to attach: knowledge, diagram, dataprocessing."`
	MCPURL    string   `name:"mcp-url" help:"The MCP server of the knowledge expert." default:"https://knowledge-mcp.global.api.aws"`
	MCPToken  string   `name:"mcp-token" help:"The bearer token of the knowledge MCP server." env:"AGENTCORE_MCP_TOKEN"`
	OutputDir string   `name:"output-dir" help:"The folder where the experts write files." default:"output" type:"path"`
}

// start connects the experts, the model of each is selected by the expert name.
func (f *ExpertFlags) start(ctx context.Context, cfg *config.Config, factory llmfactory.Factory, preferred string, opts ...agent.Option) ([]*experts.Expert, error) {
	var list []*experts.Expert
	for _, name := range f.Experts {
		e, err := f.startOne(ctx, cfg, factory, name, preferred, opts...)
		if err != nil {
			experts.CloseAll(list)
			return nil, err
		}
		list = append(list, e)
	}
	return list, nil
}

func (f *ExpertFlags) startOne(ctx context.Context, cfg *config.Config, factory llmfactory.Factory, name, preferred string, opts ...agent.Option) (*experts.Expert, error) {
	def, err := experts.Lookup(name)
	if err != nil {
		return nil, err
	}
	if def.URL != "" && f.MCPURL != "" {
		def.URL = f.MCPURL
		def.Token = f.MCPToken
	}
	model, err := factory.AgentModel(def.Name, preferred)
	if err != nil {
		return nil, err
	}
	return experts.New(ctx, model, def,
		experts.WithOutputDir(f.OutputDir),
		experts.WithEnv("AWS_REGION="+cfg.Region),
		experts.WithAgentOptions(opts...),
	)
}

// ResearchCmd answers AWS questions with the expert agents.
type ResearchCmd struct {
	Query     string `arg:"" optional:"" help:"The question to answer, the conversation loop starts when empty."`
	Model     string `help:"The preferred model name."`
	SessionID string `name:"session-id" help:"The session ID trace attribute." default:"abc-1234"`
	UserID    string `name:"user-id" help:"The user ID trace attribute."`

	ExpertFlags `embed:""`
	ModelFlags  `embed:""`
}

// Run starts the experts and answers the query, or the questions of the conversation loop.
func (c *ResearchCmd) Run(ctx *Context) error {
	if len(c.Experts) == 0 {
		c.Experts = []string{"knowledge"}
	}

	factory, err := ctx.Models()
	if err != nil {
		return err
	}

	callOpts := c.CallOptions(sessionMetadata(c.SessionID, c.UserID))
	list, err := c.start(ctx, ctx.Config, factory, c.Model,
		agent.WithCallOptions(callOpts...),
		agent.WithTracerProvider(ctx.TracerProvider),
		agent.WithCallback(agent.NewLoggerCallback(logger)),
	)
	if err != nil {
		return err
	}
	defer experts.CloseAll(list)

	model, err := factory.AgentModel("research_assistant", c.Model)
	if err != nil {
		return err
	}
	a := c.newAgent(model, list, callOpts, ctx.TracerProvider)

	answer := func(ctx context.Context, question string) (string, error) {
		res, err := a.Invoke(ctx, question)
		if err != nil {
			return "", err
		}
		return res.Output, nil
	}

	if c.Query != "" {
		out, err := answer(ctx, c.Query)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}

	return repl(ctx, os.Stdin, os.Stdout, "Research",
		"🔎 Research: Ask me about AWS! Type 'exit' to quit.",
		"Happy building! ☁️",
		answer)
}

func (c *ResearchCmd) newAgent(model llms.Model, list []*experts.Expert, callOpts []llms.CallOption, tp trace.TracerProvider) *agent.Agent {
	return agent.New(model,
		agent.WithName("research_assistant"),
		agent.WithDescription("Answers AWS questions with the expert agents"),
		agent.WithSystemPrompt(researchPrompt),
		agent.WithTools(experts.Tools(list)...),
		agent.WithCallOptions(callOpts...),
		agent.WithTraceAttributes(telemetry.TraceAttributes{
			string(telemetry.AttrSessionID): c.SessionID,
			string(telemetry.AttrUserID):    c.UserID,
		}),
		agent.WithTracerProvider(tp),
		agent.WithCallback(agent.NewPrinterCallback(os.Stdout)),
	)
}
