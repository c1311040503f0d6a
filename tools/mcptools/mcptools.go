// Package mcptools exposes the tools of a remote MCP server,
// such as an AgentCore gateway, as agent tools.
package mcptools

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentcore/pkg/schema"
	"github.com/effective-security/agentcore/tools"
	"github.com/effective-security/xlog"
	"github.com/invopop/jsonschema"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/oauth2"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentcore/tools", "mcptools")

// Defaults
const (
	ClientName     = "agentcore"
	ClientVersion  = "1.0.0"
	DefaultTimeout = 2 * time.Minute
	// MaxPages bounds the tools/list pagination
	MaxPages = 100
)

// Option configures the Client.
type Option func(*options)

type options struct {
	timeout     time.Duration
	headers     map[string]string
	tokenSource oauth2.TokenSource
}

// WithTimeout sets the HTTP timeout of the MCP requests.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithHeader adds a header to every MCP request.
func WithHeader(key, value string) Option {
	return func(o *options) {
		o.headers[key] = value
	}
}

// WithTokenSource authenticates every MCP request with a bearer token
// from the source, so an expired token is replaced during the session.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(o *options) {
		o.tokenSource = ts
	}
}

func (o *options) authHeader(ctx context.Context) map[string]string {
	t, err := o.tokenSource.Token()
	if err != nil {
		// the request is sent without the header and fails as unauthorized
		logger.ContextKV(ctx, xlog.WARNING, "status", "token_failed", "err", err.Error())
		return nil
	}
	return map[string]string{"Authorization": t.Type() + " " + t.AccessToken}
}

// Client is a connected MCP client.
type Client struct {
	url string
	mcp *client.Client
}

// Connect opens a streamable HTTP session with the MCP server,
// authenticated with the bearer token when it is not empty.
func Connect(ctx context.Context, url, token string, opts ...Option) (*Client, error) {
	o := &options{
		timeout: DefaultTimeout,
		headers: map[string]string{},
	}
	for _, opt := range opts {
		opt(o)
	}
	if token != "" {
		o.headers["Authorization"] = "Bearer " + token
	}

	httpOpts := []transport.StreamableHTTPCOption{
		transport.WithHTTPHeaders(o.headers),
		transport.WithHTTPTimeout(o.timeout),
	}
	if o.tokenSource != nil {
		httpOpts = append(httpOpts, transport.WithHTTPHeaderFunc(o.authHeader))
	}

	c, err := client.NewStreamableHttpClient(url, httpOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create MCP client")
	}
	if err = c.Start(ctx); err != nil {
		_ = c.Close()
		return nil, errors.Wrap(err, "failed to start MCP client")
	}
	return initialize(ctx, url, c)
}

// ConnectStdio starts the MCP server command and opens a session over its stdio.
// The env entries are added to the command environment as KEY=VALUE.
func ConnectStdio(ctx context.Context, command string, env []string, args ...string) (*Client, error) {
	c, err := client.NewStdioMCPClient(command, env, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to start MCP server %s", command)
	}
	return initialize(ctx, command, c)
}

func initialize(ctx context.Context, url string, c *client.Client) (*Client, error) {
	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    ClientName,
		Version: ClientVersion,
	}
	res, err := c.Initialize(ctx, initReq)
	if err != nil {
		_ = c.Close()
		return nil, errors.Wrap(err, "failed to initialize MCP session")
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "connected",
		"url", url,
		"server", res.ServerInfo.Name,
		"protocol", res.ProtocolVersion,
	)
	return &Client{url: url, mcp: c}, nil
}

// Close closes the session.
func (c *Client) Close() error {
	return c.mcp.Close()
}

// ListTools returns all the tools of the server,
// following the pagination cursors until the last page.
func (c *Client) ListTools(ctx context.Context) ([]tools.ITool, error) {
	var list []tools.ITool
	req := mcp.ListToolsRequest{}

	for page := 0; ; page++ {
		if page >= MaxPages {
			return nil, errors.Errorf("too many pages listing tools from %s", c.url)
		}
		res, err := c.mcp.ListToolsByPage(ctx, req)
		if err != nil {
			return nil, errors.Wrap(err, "failed to list tools")
		}
		for _, t := range res.Tools {
			tool, err := c.newTool(t)
			if err != nil {
				return nil, err
			}
			list = append(list, tool)
		}
		if res.NextCursor == "" {
			break
		}
		req.Params.Cursor = res.NextCursor
	}

	logger.ContextKV(ctx, xlog.DEBUG, "status", "tools_listed", "url", c.url, "count", len(list))
	return list, nil
}

// ListTools connects to the server and returns all its tools.
// The returned client must be closed by the caller once the tools are not needed.
func ListTools(ctx context.Context, url, token string, opts ...Option) ([]tools.ITool, *Client, error) {
	c, err := Connect(ctx, url, token, opts...)
	if err != nil {
		return nil, nil, err
	}
	list, err := c.ListTools(ctx)
	if err != nil {
		_ = c.Close()
		return nil, nil, err
	}
	return list, c, nil
}

// Tool is a remote MCP tool.
type Tool struct {
	client      *Client
	name        string
	description string
	params      *jsonschema.Schema
}

var _ tools.ITool = (*Tool)(nil)

func (c *Client) newTool(t mcp.Tool) (*Tool, error) {
	params, err := schema.FromAny(t.InputSchema)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid input schema of tool %s", t.Name)
	}
	if params.Type == "" {
		params.Type = "object"
	}
	return &Tool{
		client:      c,
		name:        t.Name,
		description: t.Description,
		params:      params,
	}, nil
}

func (t *Tool) Name() string {
	return t.name
}

func (t *Tool) Description() string {
	return t.description
}

func (t *Tool) Parameters() *jsonschema.Schema {
	return t.params
}

// Call invokes the remote tool with the JSON object input,
// and returns the text content of the result.
func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	var args map[string]any
	if strings.TrimSpace(input) != "" {
		in, err := tools.DecodeInput[map[string]any](input)
		if err != nil {
			return "", err
		}
		args = *in
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = t.name
	req.Params.Arguments = args

	res, err := t.client.mcp.CallTool(ctx, req)
	if err != nil {
		return "", errors.Wrapf(err, "failed to call tool %s", t.name)
	}

	text := ResultText(res)
	if res.IsError {
		return "", errors.Newf("tool %s returned an error: %s", t.name, text)
	}
	return text, nil
}

// ResultText joins the text contents of the result.
func ResultText(res *mcp.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		if tc, ok := mcp.AsTextContent(c); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
