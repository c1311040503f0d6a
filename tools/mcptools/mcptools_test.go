package mcptools_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentcore/tools"
	"github.com/effective-security/agentcore/tools/mcptools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const token = "token-123"

func newGateway(t *testing.T, count int) *httptest.Server {
	s := server.NewMCPServer("TestGateway", "1.0.0",
		server.WithToolCapabilities(false),
		server.WithPaginationLimit(2),
	)
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("LambdaTarget___tool_%d", i)
		s.AddTool(mcp.NewTool(name,
			mcp.WithDescription(fmt.Sprintf("tool number %d", i)),
			mcp.WithString("location", mcp.Required(), mcp.Description("the location")),
		), func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			loc, err := req.RequireString("location")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultText(name + ": sunny in " + loc), nil
		})
	}

	h := server.NewStreamableHTTPServer(s)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		h.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func Test_ListTools_Pagination(t *testing.T) {
	ctx := context.Background()
	srv := newGateway(t, 5)

	list, c, err := mcptools.ListTools(ctx, srv.URL, token)
	require.NoError(t, err)
	defer c.Close()

	require.Len(t, list, 5)
	for i, tool := range list {
		assert.Equal(t, fmt.Sprintf("LambdaTarget___tool_%d", i), tool.Name())
		assert.Equal(t, fmt.Sprintf("tool number %d", i), tool.Description())
		assert.Equal(t, "object", tool.Parameters().Type)
		assert.Equal(t, []string{"location"}, tool.Parameters().Required)
	}

	defs := tools.ToLLMTools(list)
	assert.Equal(t, "LambdaTarget___tool_3", defs[3].Function.Name)
}

func Test_CallTool(t *testing.T) {
	ctx := context.Background()
	srv := newGateway(t, 1)

	list, c, err := mcptools.ListTools(ctx, srv.URL, token)
	require.NoError(t, err)
	defer c.Close()
	require.Len(t, list, 1)

	res, err := list[0].Call(ctx, `{"location":"Seattle"}`)
	require.NoError(t, err)
	assert.Equal(t, "LambdaTarget___tool_0: sunny in Seattle", res)

	_, err = list[0].Call(ctx, `{}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool LambdaTarget___tool_0 returned an error")

	_, err = list[0].Call(ctx, `not json`)
	assert.True(t, errors.Is(err, tools.ErrFailedUnmarshalInput))
}

func Test_Unauthorized(t *testing.T) {
	srv := newGateway(t, 1)

	_, _, err := mcptools.ListTools(context.Background(), srv.URL, "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize MCP session")
}

func Test_EmptyServer(t *testing.T) {
	srv := newGateway(t, 0)

	list, c, err := mcptools.ListTools(context.Background(), srv.URL, token, mcptools.WithHeader("X-Trace", "1"))
	require.NoError(t, err)
	defer c.Close()
	assert.Empty(t, list)
}

type countingSource struct {
	calls atomic.Int32
	err   error
}

func (s *countingSource) Token() (*oauth2.Token, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &oauth2.Token{AccessToken: token, TokenType: "bearer"}, nil
}

func Test_TokenSource(t *testing.T) {
	ctx := context.Background()
	srv := newGateway(t, 1)

	ts := &countingSource{}
	list, c, err := mcptools.ListTools(ctx, srv.URL, "", mcptools.WithTokenSource(ts))
	require.NoError(t, err)
	defer c.Close()
	require.Len(t, list, 1)
	before := ts.calls.Load()
	assert.GreaterOrEqual(t, before, int32(2), "initialize and tools/list")

	res, err := list[0].Call(ctx, `{"location":"Paris"}`)
	require.NoError(t, err)
	assert.Equal(t, "LambdaTarget___tool_0: sunny in Paris", res)
	assert.Greater(t, ts.calls.Load(), before, "the token is asked for each request")

	_, _, err = mcptools.ListTools(ctx, srv.URL, "", mcptools.WithTokenSource(&countingSource{err: errors.New("expired")}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize MCP session")

	// a static source is the same as a fixed token
	list, c2, err := mcptools.ListTools(ctx, srv.URL, "", mcptools.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})))
	require.NoError(t, err)
	defer c2.Close()
	assert.Len(t, list, 1)
}
