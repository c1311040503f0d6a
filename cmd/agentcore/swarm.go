package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/effective-security/agentcore/agent"
	"github.com/effective-security/agentcore/pkg/llmfactory"
	"github.com/effective-security/agentcore/swarm"
	"github.com/effective-security/agentcore/telemetry"
	"go.opentelemetry.io/otel/trace"
)

type swarmMember struct {
	name        string
	description string
	prompt      string
}

var swarmMembers = []swarmMember{
	{
		name:        "research_agent",
		description: "Gathers and analyzes factual information",
		prompt: `You are a Research Agent specializing in gathering and analyzing information.
Your role in the swarm is to provide factual information and research insights on the topic.
You should focus on providing accurate data and identifying key aspects of the problem.
When receiving input from other agents, evaluate if their information aligns with your research.`,
	},
	{
		name:        "creative_agent",
		description: "Generates innovative solutions",
		prompt: `You are a Creative Agent specializing in generating innovative solutions.
Your role in the swarm is to think outside the box and propose creative approaches.
You should build upon information from other agents while adding your unique creative perspective.
Focus on novel approaches that others might not have considered.`,
	},
	{
		name:        "critical_agent",
		description: "Analyzes proposals and finds flaws",
		prompt: `You are a Critical Agent specializing in analyzing proposals and finding flaws.
Your role in the swarm is to evaluate solutions proposed by other agents and identify potential issues.
You should carefully examine proposed solutions, find weaknesses or oversights, and suggest improvements.
Be constructive in your criticism while ensuring the final solution is robust.`,
	},
	{
		name:        "summarizer_agent",
		description: "Synthesizes the insights into a final solution",
		prompt: `You are a Summarizer Agent specializing in synthesizing information.
Your role in the swarm is to gather insights from all agents and create a cohesive final solution.
You should combine the best ideas and address the criticisms to create a comprehensive response.
Focus on creating a clear, actionable summary that addresses the original query effectively.`,
	},
}

// SwarmCmd runs the collaborating agents in the terminal.
type SwarmCmd struct {
	Model            string        `help:"The preferred model name."`
	SessionID        string        `name:"session-id" help:"The session ID trace attribute." default:"abc-1234"`
	UserID           string        `name:"user-id" help:"The user ID trace attribute."`
	MaxHandoffs      int           `name:"max-handoffs" help:"The maximum number of handoffs." default:"20"`
	MaxIterations    int           `name:"max-iterations" help:"The maximum number of agent executions." default:"20"`
	ExecutionTimeout time.Duration `name:"execution-timeout" help:"The timeout of a task." default:"15m"`
	NodeTimeout      time.Duration `name:"node-timeout" help:"The timeout of an agent execution." default:"5m"`

	ModelFlags `embed:""`
}

// Run starts the task loop.
func (c *SwarmCmd) Run(ctx *Context) error {
	factory, err := ctx.Models()
	if err != nil {
		return err
	}

	s, err := c.newSwarm(factory, ctx.TracerProvider)
	if err != nil {
		return err
	}

	return repl(ctx, os.Stdin, os.Stdout, "Swarm",
		"🐝 Swarm: Give me a complex task and I will provide you the great answer! Type 'exit' to quit.",
		"Happy researching! 🍽️",
		func(ctx context.Context, task string) (string, error) {
			res, err := s.Run(ctx, task)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%s\nAgents: %v\nExecution time: %s",
				res.String(), res.NodeHistory, res.ExecutionTime.Round(time.Millisecond)), nil
		})
}

func (c *SwarmCmd) newSwarm(factory llmfactory.Factory, tp trace.TracerProvider) (*swarm.Swarm, error) {
	attrs := telemetry.TraceAttributes{
		string(telemetry.AttrSessionID): c.SessionID,
		string(telemetry.AttrUserID):    c.UserID,
	}

	var agents []*agent.Agent
	for _, m := range swarmMembers {
		model, err := factory.AgentModel(m.name, c.Model)
		if err != nil {
			return nil, err
		}
		agents = append(agents, agent.New(model,
			agent.WithName(m.name),
			agent.WithDescription(m.description),
			agent.WithSystemPrompt(m.prompt),
			agent.WithCallOptions(c.CallOptions(sessionMetadata(c.SessionID, c.UserID))...),
			agent.WithTraceAttributes(attrs),
			agent.WithTracerProvider(tp),
		))
	}

	return swarm.New(agents,
		swarm.WithMaxHandoffs(c.MaxHandoffs),
		swarm.WithMaxIterations(c.MaxIterations),
		swarm.WithExecutionTimeout(c.ExecutionTimeout),
		swarm.WithNodeTimeout(c.NodeTimeout),
		swarm.WithTracerProvider(tp),
	)
}
