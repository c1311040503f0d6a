package swarm_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentcore/agent"
	"github.com/effective-security/agentcore/mocks/mockllms"
	"github.com/effective-security/agentcore/pkg/llms"
	"github.com/effective-security/agentcore/swarm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func text(s string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: s, StopReason: "stop"}},
	}
}

func handoffTo(to, message string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			StopReason: "tool_calls",
			ToolCalls: []llms.ToolCall{{
				ID:   "h1",
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      swarm.HandoffToolName,
					Arguments: fmt.Sprintf(`{"agent_name":%q,"message":%q,"context":{"facts":"eggs are cheap"}}`, to, message),
				},
			}},
		}},
	}
}

func newModel(ctrl *gomock.Controller) *mockllms.MockModel {
	m := mockllms.NewMockModel(ctrl)
	m.EXPECT().GetName().Return("gpt-4o").AnyTimes()
	m.EXPECT().GetProviderType().Return(llms.ProviderOpenAI).AnyTimes()
	return m
}

// pingPong returns a model that always hands off to the other agent,
// then completes its turn.
func pingPong(ctrl *gomock.Controller, to string) *mockllms.MockModel {
	m := newModel(ctrl)
	calls := 0
	m.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ []llms.Message, _ ...llms.CallOption) (*llms.ContentResponse, error) {
			calls++
			if calls%2 == 1 {
				return handoffTo(to, "your turn"), nil
			}
			return text("handed off"), nil
		}).AnyTimes()
	return m
}

func Test_New(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := newModel(ctrl)

	_, err := swarm.New(nil)
	assert.EqualError(t, err, "swarm requires at least one agent")

	a := agent.New(m, agent.WithName("a"))
	_, err = swarm.New([]*agent.Agent{a, agent.New(m, agent.WithName("a"))})
	assert.EqualError(t, err, "duplicate agent name: a")

	_, err = swarm.New([]*agent.Agent{a}, swarm.WithEntryPoint("b"))
	assert.EqualError(t, err, "entry point agent not found: b")

	s, err := swarm.New([]*agent.Agent{a})
	require.NoError(t, err)
	assert.Equal(t, swarm.DefaultOptions(), s.Options())
	assert.Equal(t, 20, s.Options().MaxHandoffs)
	assert.Equal(t, 20, s.Options().MaxIterations)
	assert.Equal(t, 15*time.Minute, s.Options().ExecutionTimeout)
	assert.Equal(t, 5*time.Minute, s.Options().NodeTimeout)
	assert.Equal(t, 8, s.Options().RepetitiveHandoffDetectionWindow)
	assert.Equal(t, 3, s.Options().RepetitiveHandoffMinUniqueAgents)
}

func Test_Run_Handoff(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	research := newModel(ctrl)
	gomock.InOrder(
		research.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, msgs []llms.Message, opts ...llms.CallOption) (*llms.ContentResponse, error) {
				input := msgs[len(msgs)-1].GetContent()
				assert.Contains(t, input, "User Request: plan a dinner")
				assert.Contains(t, input, "Agent name: creative_agent. Agent description: Creative ideas")
				assert.NotContains(t, input, "Handoff Message")

				o := llms.NewCallOptions("", opts...)
				require.Len(t, o.Tools, 1)
				assert.Equal(t, swarm.HandoffToolName, o.Tools[0].Function.Name)
				return handoffTo("creative_agent", "need ideas"), nil
			}),
		research.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, msgs []llms.Message, _ ...llms.CallOption) (*llms.ContentResponse, error) {
				last := msgs[len(msgs)-1].Parts[0].(llms.ToolCallResponse)
				assert.Equal(t, "Handing off to creative_agent: need ideas", last.Content)
				return text("research done"), nil
			}),
	)

	creative := newModel(ctrl)
	creative.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msgs []llms.Message, _ ...llms.CallOption) (*llms.ContentResponse, error) {
			input := msgs[len(msgs)-1].GetContent()
			assert.True(t, strings.HasPrefix(input, "Handoff Message: need ideas\n\nUser Request: plan a dinner"), input)
			assert.Contains(t, input, "Previous agents who worked on this: research_agent")
			assert.Contains(t, input, `• research_agent: {"facts":"eggs are cheap"}`)
			assert.Contains(t, input, "Agent name: research_agent. Agent description: Research")
			return text("omelette night"), nil
		})

	s, err := swarm.New([]*agent.Agent{
		agent.New(research, agent.WithName("research_agent"), agent.WithDescription("Research")),
		agent.New(creative, agent.WithName("creative_agent"), agent.WithDescription("Creative ideas")),
	})
	require.NoError(t, err)

	res, err := s.Run(ctx, "plan a dinner")
	require.NoError(t, err)
	assert.Equal(t, swarm.StatusCompleted, res.Status)
	assert.Equal(t, []string{"research_agent", "creative_agent"}, res.NodeHistory)
	assert.Equal(t, "omelette night", res.Output)
	assert.Equal(t, 1, res.Handoffs)
	require.Len(t, res.Results, 2)
	assert.Equal(t, "research done", res.Results[0].Output)
	assert.Empty(t, res.Error)
	assert.Equal(t, "Status: COMPLETED\nomelette night", res.String())
}

func Test_Run_InvalidHandoff(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	m := newModel(ctrl)
	gomock.InOrder(
		m.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(handoffTo("ghost", "boo"), nil),
		m.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, msgs []llms.Message, _ ...llms.CallOption) (*llms.ContentResponse, error) {
				last := msgs[len(msgs)-1].Parts[0].(llms.ToolCallResponse)
				assert.Equal(t, "Error: Agent 'ghost' not found in swarm", last.Content)
				return handoffTo("solo", "myself"), nil
			}),
		m.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, msgs []llms.Message, _ ...llms.CallOption) (*llms.ContentResponse, error) {
				last := msgs[len(msgs)-1].Parts[0].(llms.ToolCallResponse)
				assert.Equal(t, "Error: can not hand off to yourself", last.Content)
				return text("done alone"), nil
			}),
	)

	s, err := swarm.New([]*agent.Agent{agent.New(m, agent.WithName("solo"))})
	require.NoError(t, err)

	res, err := s.Run(ctx, "task")
	require.NoError(t, err)
	assert.Equal(t, swarm.StatusCompleted, res.Status)
	assert.Equal(t, []string{"solo"}, res.NodeHistory)
	assert.Equal(t, 0, res.Handoffs)
}

func Test_Run_Limits(t *testing.T) {
	ctx := context.Background()

	newSwarm := func(t *testing.T, opts ...swarm.Option) *swarm.Swarm {
		ctrl := gomock.NewController(t)
		s, err := swarm.New([]*agent.Agent{
			agent.New(pingPong(ctrl, "b"), agent.WithName("a")),
			agent.New(pingPong(ctrl, "a"), agent.WithName("b")),
		}, opts...)
		require.NoError(t, err)
		return s
	}

	t.Run("max handoffs", func(t *testing.T) {
		s := newSwarm(t, swarm.WithMaxHandoffs(2), swarm.WithRepetitiveHandoffDetection(0, 0))
		res, err := s.Run(ctx, "task")
		require.NoError(t, err)
		assert.Equal(t, swarm.StatusFailed, res.Status)
		assert.Equal(t, "max handoffs reached: 2", res.Error)
		assert.Equal(t, []string{"a", "b", "a"}, res.NodeHistory)
		assert.Equal(t, 2, res.Handoffs)
		assert.Equal(t, "Status: FAILED\nError: max handoffs reached: 2", res.String())
	})

	t.Run("max iterations", func(t *testing.T) {
		s := newSwarm(t, swarm.WithMaxIterations(3), swarm.WithRepetitiveHandoffDetection(0, 0))
		res, err := s.Run(ctx, "task")
		require.NoError(t, err)
		assert.Equal(t, swarm.StatusFailed, res.Status)
		assert.Equal(t, "max iterations reached: 3", res.Error)
		assert.Len(t, res.NodeHistory, 3)
	})

	t.Run("repetitive handoff", func(t *testing.T) {
		s := newSwarm(t)
		res, err := s.Run(ctx, "task")
		require.NoError(t, err)
		assert.Equal(t, swarm.StatusFailed, res.Status)
		assert.Equal(t, "repetitive handoff: fewer than 3 unique agents in the last 8 executions", res.Error)
		assert.Equal(t, []string{"a", "b", "a", "b", "a", "b", "a", "b"}, res.NodeHistory)
	})

	t.Run("execution timeout", func(t *testing.T) {
		s := newSwarm(t, swarm.WithOptions(swarm.Options{
			MaxHandoffs:      100,
			MaxIterations:    100,
			ExecutionTimeout: time.Nanosecond,
		}))
		res, err := s.Run(ctx, "task")
		require.NoError(t, err)
		assert.Equal(t, swarm.StatusFailed, res.Status)
		assert.Contains(t, res.Error, "execution timed out")
	})
}

func Test_Run_NodeFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	t.Run("model error", func(t *testing.T) {
		m := newModel(ctrl)
		m.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errors.New("boom"))

		s, err := swarm.New([]*agent.Agent{agent.New(m, agent.WithName("a"))})
		require.NoError(t, err)
		res, err := s.Run(ctx, "task")
		require.NoError(t, err)
		assert.Equal(t, swarm.StatusFailed, res.Status)
		assert.Equal(t, "agent a failed: failed to generate content from LLM: boom", res.Error)
		require.Len(t, res.Results, 1)
		assert.Equal(t, "failed to generate content from LLM: boom", res.Results[0].Error)
	})

	t.Run("node timeout", func(t *testing.T) {
		m := newModel(ctrl)
		m.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, _ []llms.Message, _ ...llms.CallOption) (*llms.ContentResponse, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			})

		s, err := swarm.New([]*agent.Agent{agent.New(m, agent.WithName("slow"))},
			swarm.WithNodeTimeout(10*time.Millisecond),
			swarm.WithExecutionTimeout(time.Minute),
		)
		require.NoError(t, err)
		res, err := s.Run(ctx, "task")
		require.NoError(t, err)
		assert.Equal(t, swarm.StatusFailed, res.Status)
		assert.Contains(t, res.Error, "agent slow failed: timed out after")
	})
}
