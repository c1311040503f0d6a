package main

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/effective-security/agentcore/config"
	"github.com/effective-security/agentcore/experts"
	"github.com/effective-security/agentcore/mcpserver"
	"github.com/effective-security/agentcore/mocks/mockllms"
	"github.com/effective-security/agentcore/pkg/llms"
	"github.com/effective-security/agentcore/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/mock/gomock"
)

type docsRequest struct {
	Search string `json:"search"`
}

func newKnowledgeServer(t *testing.T) string {
	search := tools.NewFunc("search_documentation", "Search the AWS documentation",
		func(_ context.Context, req *docsRequest) (*string, error) {
			res := "Lambda runs code without servers: " + req.Search
			return &res, nil
		})
	s, err := mcpserver.New([]tools.ITool{search}, mcpserver.WithBearerToken("kb-token"))
	require.NoError(t, err)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv.URL + mcpserver.DefaultEndpoint
}

func callTools(opts []llms.CallOption) []string {
	var names []string
	for _, t := range llms.NewCallOptions("", opts...).Tools {
		names = append(names, t.Function.Name)
	}
	return names
}

func Test_Research(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()
	cfg := config.FromEnv(func(string) string { return "" })

	m := mockllms.NewMockModel(ctrl)
	m.EXPECT().GetName().Return("claude").AnyTimes()
	m.EXPECT().GetProviderType().Return(llms.ProviderBedrock).AnyTimes()

	c := &ResearchCmd{
		UserID: "u-1",
		ExpertFlags: ExpertFlags{
			Experts:   []string{"knowledge"},
			MCPURL:    newKnowledgeServer(t),
			MCPToken:  "kb-token",
			OutputDir: t.TempDir(),
		},
		ModelFlags: ModelFlags{TopP: 0.9, ToolChoice: "required"},
	}
	callOpts := c.CallOptions(sessionMetadata(c.SessionID, c.UserID))

	gomock.InOrder(
		m.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, msgs []llms.Message, opts ...llms.CallOption) (*llms.ContentResponse, error) {
				assert.Contains(t, msgs[0].GetContent(), "You are an AWS research assistant")
				assert.Equal(t, []string{experts.Knowledge.Name}, callTools(opts))
				o := llms.NewCallOptions("", opts...)
				assert.Equal(t, 0.9, o.TopP)
				assert.Equal(t, "required", o.ToolChoice)
				assert.Equal(t, map[string]any{llms.MetadataUserID: "u-1"}, o.Metadata)
				return &llms.ContentResponse{Choices: []*llms.ContentChoice{{
					StopReason: "tool_calls",
					ToolCalls: []llms.ToolCall{{
						ID:           "1",
						Type:         "function",
						FunctionCall: &llms.FunctionCall{Name: experts.Knowledge.Name, Arguments: `{"query":"What is Lambda?"}`},
					}},
				}}}, nil
			}),
		m.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, msgs []llms.Message, opts ...llms.CallOption) (*llms.ContentResponse, error) {
				assert.Contains(t, msgs[0].GetContent(), "You are a thorough AWS researcher")
				assert.Equal(t, []string{"search_documentation", "file_write"}, callTools(opts))
				return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "Lambda is serverless compute.", StopReason: "stop"}}}, nil
			}),
		m.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, msgs []llms.Message, _ ...llms.CallOption) (*llms.ContentResponse, error) {
				assert.Contains(t, msgs[len(msgs)-1].GetContent(), "Lambda is serverless compute.")
				return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "AWS Lambda is serverless compute.", StopReason: "stop"}}}, nil
			}),
	)

	f := &fakeFactory{model: m}
	list, err := c.start(ctx, cfg, f, "")
	require.NoError(t, err)
	defer experts.CloseAll(list)
	assert.Equal(t, []string{experts.Knowledge.Name}, f.names)

	a := c.newAgent(m, list, callOpts, noop.NewTracerProvider())
	res, err := a.Invoke(ctx, "What is Lambda?")
	require.NoError(t, err)
	assert.Equal(t, "AWS Lambda is serverless compute.", res.Output)
}

func Test_Research_UnknownExpert(t *testing.T) {
	cfg := config.FromEnv(func(string) string { return "" })
	c := &ExpertFlags{Experts: []string{"weather"}}

	_, err := c.start(context.Background(), cfg, &fakeFactory{}, "")
	assert.EqualError(t, err, `unknown expert "weather", supported: dataprocessing, diagram, knowledge`)
}

func Test_ModelFlags(t *testing.T) {
	f := &ModelFlags{Temp: 0.7, MaxTokens: 1000, ToolChoice: "auto"}
	o := llms.NewCallOptions("", f.CallOptions(nil)...)
	assert.Equal(t, 0.7, o.Temperature)
	assert.Equal(t, 1000, o.MaxTokens)
	assert.Zero(t, o.TopP)
	assert.Nil(t, o.StopWords)
	assert.Nil(t, o.ToolChoice)
	assert.Nil(t, o.Metadata)

	f = &ModelFlags{TopP: 0.5, Stop: []string{"END"}, ToolChoice: "none"}
	o = llms.NewCallOptions("", f.CallOptions(sessionMetadata("s", "u"))...)
	assert.Equal(t, 0.5, o.TopP)
	assert.Equal(t, []string{"END"}, o.StopWords)
	assert.Equal(t, "none", o.ToolChoice)
	assert.Equal(t, map[string]any{llms.MetadataSessionID: "s", llms.MetadataUserID: "u"}, o.Metadata)

	assert.Empty(t, sessionMetadata("", ""))
}
