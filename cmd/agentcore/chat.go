package main

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentcore/agent"
	"github.com/effective-security/agentcore/pkg/llms"
	"github.com/effective-security/agentcore/telemetry"
	"github.com/effective-security/agentcore/tools"
	"github.com/effective-security/agentcore/tools/tavily"
	"go.opentelemetry.io/otel/trace"
)

const recipeBotPrompt = `You are RecipeBot, a helpful cooking assistant.
Help users find recipes based on ingredients and answer cooking questions.
Use the websearch tool to find recipes when users mention ingredients or to look up cooking information.`

// ChatCmd runs the recipe assistant in the terminal.
type ChatCmd struct {
	Model     string `help:"The preferred model name."`
	SessionID string `name:"session-id" help:"The session ID trace attribute." default:"abc-1234"`
	UserID    string `name:"user-id" help:"The user ID trace attribute."`
	Tags      string `help:"The comma separated tags trace attribute." default:"Agent-SDK,Arize-Project,OpenInference-Integration"`

	ModelFlags `embed:""`
}

// Run starts the conversation loop.
func (c *ChatCmd) Run(ctx *Context) error {
	if ctx.Config.TavilyAPIKey == "" {
		return errors.New("TAVILY_API_KEY is required for the websearch tool")
	}
	search, err := tavily.New(ctx.Config.TavilyAPIKey)
	if err != nil {
		return err
	}

	factory, err := ctx.Models()
	if err != nil {
		return err
	}
	model, err := factory.ModelByName(c.Model)
	if err != nil {
		return err
	}

	a := c.newAgent(model, search, ctx.TracerProvider)

	return repl(ctx, os.Stdin, os.Stdout, "RecipeBot",
		"👨‍🍳 RecipeBot: Ask me about recipes or cooking! Type 'exit' to quit.",
		"Happy cooking! 🍽️",
		func(ctx context.Context, prompt string) (string, error) {
			res, err := a.Invoke(ctx, prompt)
			if err != nil {
				return "", err
			}
			return res.Output, nil
		})
}

func (c *ChatCmd) newAgent(model llms.Model, search tools.ITool, tp trace.TracerProvider) *agent.Agent {
	return agent.New(model,
		agent.WithName("recipe_bot"),
		agent.WithDescription("A helpful cooking assistant"),
		agent.WithSystemPrompt(recipeBotPrompt),
		agent.WithTools(search),
		agent.WithCallOptions(c.CallOptions(sessionMetadata(c.SessionID, c.UserID))...),
		agent.WithTraceAttributes(c.traceAttributes()),
		agent.WithTracerProvider(tp),
		agent.WithCallback(agent.NewPrinterCallback(os.Stdout)),
	)
}

func (c *ChatCmd) traceAttributes() telemetry.TraceAttributes {
	return telemetry.TraceAttributes{
		string(telemetry.AttrSessionID): c.SessionID,
		string(telemetry.AttrUserID):    c.UserID,
		string(telemetry.AttrTags):      c.Tags,
	}
}
