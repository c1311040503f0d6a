// Package experts builds the agents answering with the tools of an MCP server,
// wrapped as tools of a coordinating agent.
package experts

import (
	"context"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentcore/agent"
	"github.com/effective-security/agentcore/pkg/llms"
	"github.com/effective-security/agentcore/tools"
	"github.com/effective-security/agentcore/tools/filewrite"
	"github.com/effective-security/agentcore/tools/mcptools"
	"github.com/effective-security/xlog"
	"github.com/go-playground/validator/v10"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentcore", "experts")

// DefaultOutputDir is where the experts write their files.
const DefaultOutputDir = "output"

// Definition describes an expert and the MCP server of its tools.
// The server is reached over streamable HTTP at URL,
// or started as Command and reached over its stdio.
type Definition struct {
	Name         string   `validate:"required"`
	Description  string   `validate:"required"`
	SystemPrompt string   `validate:"required"`
	QueryFormat  string   `validate:"omitempty,contains=%s"`
	URL          string   `validate:"required_without=Command,excluded_with=Command"`
	Token        string   `validate:"excluded_with=Command"`
	Command      string   `validate:"required_without=URL"`
	Args         []string
	Env          []string
}

// Validate returns an error if the definition is incomplete.
func (d *Definition) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(d); err != nil {
		return errors.Wrapf(err, "invalid expert %q", d.Name)
	}
	return nil
}

// KnowledgeURL is the public AWS Knowledge MCP server.
const KnowledgeURL = "https://knowledge-mcp.global.api.aws"

// Knowledge answers AWS questions from the AWS documentation.
var Knowledge = Definition{
	Name:        "aws_knowledge",
	Description: "Process and respond AWS related queries, with citations of the AWS documentation.",
	QueryFormat: "Analyze and respond to this question, providing clear explanations with examples where appropriate: %s",
	URL:         KnowledgeURL,
	SystemPrompt: `You are a thorough AWS researcher specialized in finding accurate information online. For each question:

1. Determine what information you need
2. Search the AWS Documentation using the documentation tools for reliable information
3. Extract key information and cite your sources
4. Synthesize what you've found into a clear, comprehensive answer

When researching, focus only on AWS documentation. Always provide citations for the information you find.

Finally write your response with the file_write tool as a nicely formatted HTML file.`,
}

// Diagram draws AWS architecture diagrams.
var Diagram = Definition{
	Name:        "aws_diagram",
	Description: "Create AWS architecture diagrams for a described system.",
	QueryFormat: "Analyze and respond to this question: %s",
	Command:     "uvx",
	Args:        []string{"awslabs.aws-diagram-mcp-server@latest"},
	Env:         []string{"FASTMCP_LOG_LEVEL=ERROR"},
	SystemPrompt: `You are a thorough AWS diagram drawer specialized in creating accurate diagrams based on AWS services. For each question:

1. Determine what information you need
2. Extract key information and create a diagram
3. Synthesize what you've found into a clear, comprehensive answer

When researching, focus only on AWS documentation. Always provide citations for the information you find.

Finally write your response with the file_write tool, keep the final diagram only, not the individual icons.`,
}

// DataProcessing answers questions on the AWS Glue and Amazon EMR pipelines.
var DataProcessing = Definition{
	Name:        "aws_data_processing",
	Description: "Process and respond queries on the data processing pipelines of AWS Glue and Amazon EMR.",
	QueryFormat: "Analyze and respond to this question, providing clear explanations with examples where appropriate: %s",
	Command:     "uvx",
	Args:        []string{"awslabs.aws-dataprocessing-mcp-server@latest", "--allow-write"},
	Env:         []string{"FASTMCP_LOG_LEVEL=ERROR"},
	SystemPrompt: `You are a thorough AWS researcher specialized in comprehensive data processing tools and real-time pipeline visibility across AWS Glue and Amazon EMR-EC2. For each question:

1. Determine what information you need
2. Search the AWS Documentation using the data processing tools for reliable information
3. Extract key information and cite your sources
4. Synthesize what you've found into a clear, comprehensive answer

When researching, focus only on AWS documentation. Always provide citations for the information you find.

Finally write your response with the file_write tool as a nicely formatted HTML file if required.`,
}

var presets = map[string]Definition{
	"knowledge":      Knowledge,
	"diagram":        Diagram,
	"dataprocessing": DataProcessing,
}

// Names returns the names of the preset experts.
func Names() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a copy of the preset expert.
func Lookup(name string) (Definition, error) {
	def, ok := presets[strings.ToLower(name)]
	if !ok {
		return Definition{}, errors.Newf("unknown expert %q, supported: %s", name, strings.Join(Names(), ", "))
	}
	def.Args = append([]string(nil), def.Args...)
	def.Env = append([]string(nil), def.Env...)
	return def, nil
}

// Option configures the expert.
type Option func(*options)

type options struct {
	outputDir  string
	agentOpts  []agent.Option
	mcpOpts    []mcptools.Option
	env        []string
}

// WithOutputDir sets the directory of the file_write tool.
func WithOutputDir(dir string) Option {
	return func(o *options) {
		o.outputDir = dir
	}
}

// WithAgentOptions adds options of the expert agent.
func WithAgentOptions(opts ...agent.Option) Option {
	return func(o *options) {
		o.agentOpts = append(o.agentOpts, opts...)
	}
}

// WithMCPOptions adds options of the streamable HTTP connection.
func WithMCPOptions(opts ...mcptools.Option) Option {
	return func(o *options) {
		o.mcpOpts = append(o.mcpOpts, opts...)
	}
}

// WithEnv adds KEY=VALUE entries to the environment of a stdio server.
func WithEnv(env ...string) Option {
	return func(o *options) {
		o.env = append(o.env, env...)
	}
}

// Expert is the tool of an agent using the tools of an MCP server.
// Its failures are returned as the tool output.
type Expert struct {
	*agent.Tool
	client *mcptools.Client
}

var _ tools.ITool = (*Expert)(nil)

// New connects to the MCP server of the definition
// and returns the expert using its tools and the file_write tool.
// The connection stays open until Close.
func New(ctx context.Context, model llms.Model, def Definition, opts ...Option) (*Expert, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	o := &options{
		outputDir: DefaultOutputDir,
	}
	for _, opt := range opts {
		opt(o)
	}

	writer, err := filewrite.New(o.outputDir)
	if err != nil {
		return nil, err
	}

	var c *mcptools.Client
	if def.Command != "" {
		c, err = mcptools.ConnectStdio(ctx, def.Command, append(append([]string(nil), def.Env...), o.env...), def.Args...)
	} else {
		c, err = mcptools.Connect(ctx, def.URL, def.Token, o.mcpOpts...)
	}
	if err != nil {
		return nil, errors.WithMessagef(err, "expert %s", def.Name)
	}

	list, err := c.ListTools(ctx)
	if err != nil {
		_ = c.Close()
		return nil, errors.WithMessagef(err, "expert %s", def.Name)
	}
	list = append(list, writer)

	agentOpts := append([]agent.Option{
		agent.WithName(def.Name),
		agent.WithDescription(def.Description),
		agent.WithSystemPrompt(def.SystemPrompt),
		agent.WithTools(list...),
	}, o.agentOpts...)

	tool := agent.AsTool(agent.New(model, agentOpts...)).
		WithName(def.Name).
		WithDescription(def.Description).
		WithErrorsAsText()
	if def.QueryFormat != "" {
		tool.WithQueryFormat(def.QueryFormat)
	}

	logger.ContextKV(ctx, xlog.INFO,
		"status", "expert_ready",
		"expert", def.Name,
		"tools", len(list),
	)
	return &Expert{Tool: tool, client: c}, nil
}

// Close closes the MCP session.
func (e *Expert) Close() error {
	return e.client.Close()
}

// CloseAll closes the experts, logging the failures.
func CloseAll(list []*Expert) {
	for _, e := range list {
		if err := e.Close(); err != nil {
			logger.KV(xlog.WARNING, "status", "close_failed", "expert", e.Name(), "err", err.Error())
		}
	}
}

// Tools returns the experts as tools.
func Tools(list []*Expert) []tools.ITool {
	res := make([]tools.ITool, len(list))
	for i, e := range list {
		res[i] = e
	}
	return res
}
