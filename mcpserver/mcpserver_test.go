package mcpserver_test

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentcore/mcpserver"
	"github.com/effective-security/agentcore/tools"
	"github.com/effective-security/agentcore/tools/filewrite"
	"github.com/effective-security/agentcore/tools/mcptools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type weatherRequest struct {
	Location string `json:"location" jsonschema:"description=the location"`
}

type weatherResponse struct {
	Forecast string `json:"forecast"`
}

func weatherTool() tools.ITool {
	return tools.NewFunc("get_weather", "Returns the forecast",
		func(_ context.Context, req *weatherRequest) (*weatherResponse, error) {
			if req.Location == "" {
				return nil, errors.New("location is required")
			}
			return &weatherResponse{Forecast: "sunny in " + req.Location}, nil
		})
}

func newServer(t *testing.T, opts ...mcpserver.Option) (*httptest.Server, string) {
	dir := t.TempDir()
	fw, err := filewrite.New(dir)
	require.NoError(t, err)

	s, err := mcpserver.New([]tools.ITool{weatherTool(), fw}, opts...)
	require.NoError(t, err)
	assert.Len(t, s.Tools(), 2)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv, dir
}

func Test_ListAndCall(t *testing.T) {
	ctx := context.Background()
	srv, dir := newServer(t, mcpserver.WithName("TestTools", "0.1.0"), mcpserver.WithPaginationLimit(1))

	list, c, err := mcptools.ListTools(ctx, srv.URL+mcpserver.DefaultEndpoint, "")
	require.NoError(t, err)
	defer c.Close()

	require.Len(t, list, 2)
	weather := tools.Find(list, "get_weather")
	require.NotNil(t, weather)
	assert.Equal(t, "Returns the forecast", weather.Description())
	assert.Equal(t, "object", weather.Parameters().Type)
	_, ok := weather.Parameters().Properties.Get("location")
	assert.True(t, ok)

	out, err := weather.Call(ctx, `{"location":"Seattle"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"forecast":"sunny in Seattle"}`, out)

	_, err = weather.Call(ctx, `{}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "location is required")

	writer := tools.Find(list, "file_write")
	require.NotNil(t, writer)
	_, err = writer.Call(ctx, `{"path":"notes/a.txt","content":"hello"}`)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "notes", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func Test_BearerToken(t *testing.T) {
	ctx := context.Background()
	srv, _ := newServer(t, mcpserver.WithBearerToken("secret"))
	url := srv.URL + mcpserver.DefaultEndpoint

	_, _, err := mcptools.ListTools(ctx, url, "wrong")
	require.Error(t, err)

	list, c, err := mcptools.ListTools(ctx, url, "secret")
	require.NoError(t, err)
	defer c.Close()
	assert.Len(t, list, 2)
}

func Test_ListenAndServe(t *testing.T) {
	s, err := mcpserver.New(nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, s.ListenAndServe(ctx, "127.0.0.1:0"))
}
