package main

import (
	"github.com/effective-security/agentcore/mcpserver"
	"github.com/effective-security/agentcore/tools"
	"github.com/effective-security/agentcore/tools/filewrite"
	"github.com/effective-security/agentcore/tools/tavily"
)

// MCPCmd serves the websearch and file_write tools over MCP.
type MCPCmd struct {
	Listen  string `help:"The listen address." default:":8000"`
	BaseDir string `name:"base-dir" help:"The folder where file_write creates files." default:"." type:"path"`
	Token   string `help:"The bearer token required from the clients." env:"MCP_SERVER_TOKEN"`
}

// Run serves the tools until interrupted.
func (c *MCPCmd) Run(ctx *Context) error {
	fw, err := filewrite.New(c.BaseDir)
	if err != nil {
		return err
	}
	list := []tools.ITool{fw}

	if ctx.Config.TavilyAPIKey != "" {
		search, err := tavily.New(ctx.Config.TavilyAPIKey)
		if err != nil {
			return err
		}
		list = append(list, search)
	}

	var opts []mcpserver.Option
	if c.Token != "" {
		opts = append(opts, mcpserver.WithBearerToken(c.Token))
	}
	s, err := mcpserver.New(list, opts...)
	if err != nil {
		return err
	}
	return s.ListenAndServe(ctx, c.Listen)
}
