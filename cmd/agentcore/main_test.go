package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentcore/mocks/mockllms"
	"github.com/effective-security/agentcore/pkg/llms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/mock/gomock"
)

func Test_Repl(t *testing.T) {
	ctx := context.Background()
	in := strings.NewReader("hello\n\nfail\nEXIT\nnever\n")
	var out bytes.Buffer

	var prompts []string
	err := repl(ctx, in, &out, "Bot", "welcome", "bye", func(_ context.Context, prompt string) (string, error) {
		prompts = append(prompts, prompt)
		if prompt == "fail" {
			return "", errors.New("boom")
		}
		return "re: " + prompt, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "fail"}, prompts)

	s := out.String()
	assert.True(t, strings.HasPrefix(s, "\nwelcome\n"))
	assert.Contains(t, s, "Bot > re: hello")
	assert.Contains(t, s, "Bot > error: boom")
	assert.True(t, strings.HasSuffix(s, "bye\n"))
	assert.NotContains(t, s, "never")
}

func Test_Repl_EOF(t *testing.T) {
	var out bytes.Buffer
	err := repl(context.Background(), strings.NewReader("one"), &out, "Bot", "welcome", "bye",
		func(_ context.Context, prompt string) (string, error) {
			return prompt, nil
		})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Bot > one")
	assert.NotContains(t, out.String(), "bye")
}

type fakeFactory struct {
	model llms.Model
	names []string
}

func (f *fakeFactory) DefaultModel() (llms.Model, error) { return f.model, nil }

func (f *fakeFactory) ModelByType(string) (llms.Model, error) { return f.model, nil }

func (f *fakeFactory) ModelByName(...string) (llms.Model, error) { return f.model, nil }

func (f *fakeFactory) AgentModel(agentName string, _ ...string) (llms.Model, error) {
	f.names = append(f.names, agentName)
	return f.model, nil
}

func Test_NewSwarm(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mockllms.NewMockModel(ctrl)
	m.EXPECT().GetName().Return("gpt-4o").AnyTimes()
	m.EXPECT().GetProviderType().Return(llms.ProviderOpenAI).AnyTimes()
	m.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msgs []llms.Message, opts ...llms.CallOption) (*llms.ContentResponse, error) {
			assert.Contains(t, msgs[0].GetContent(), "You are a Research Agent")
			o := llms.NewCallOptions("", opts...)
			assert.Equal(t, 0.8, o.TopP)
			assert.Equal(t, []string{"END"}, o.StopWords)
			assert.Equal(t, 500, o.MaxTokens)
			assert.Equal(t, map[string]any{llms.MetadataSessionID: "s-1"}, o.Metadata)
			return &llms.ContentResponse{
				Choices: []*llms.ContentChoice{{Content: "facts", StopReason: "stop"}},
			}, nil
		})

	f := &fakeFactory{model: m}
	c := &SwarmCmd{
		MaxHandoffs:   20,
		MaxIterations: 20,
		SessionID:     "s-1",
		ModelFlags: ModelFlags{
			Temp:       0.2,
			MaxTokens:  500,
			TopP:       0.8,
			Stop:       []string{"END"},
			ToolChoice: "auto",
		},
	}
	s, err := c.newSwarm(f, noop.NewTracerProvider())
	require.NoError(t, err)
	assert.Equal(t, []string{"research_agent", "creative_agent", "critical_agent", "summarizer_agent"}, f.names)

	res, err := s.Run(context.Background(), "task")
	require.NoError(t, err)
	assert.Equal(t, "Status: COMPLETED\nfacts", res.String())
}
