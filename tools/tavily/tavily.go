// Package tavily provides the web search tool backed by the Tavily API.
package tavily

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	tavilygo "github.com/diverged/tavily-go"
	tavilyModels "github.com/diverged/tavily-go/models"
	"github.com/effective-security/agentcore/pkg/schema"
	"github.com/effective-security/agentcore/tools"
	"github.com/effective-security/xlog"
	"github.com/invopop/jsonschema"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentcore/tools", "tavily")

// ToolName is the name of the web search tool.
const ToolName = "websearch"

// DefaultMaxResults is the number of results requested by default.
const DefaultMaxResults = 5

// SearchRequest represents the tool input.
type SearchRequest struct {
	Keywords   string `json:"keywords" yaml:"Keywords" jsonschema:"title=Keywords,description=The search query keywords."`
	MaxResults int    `json:"max_results,omitempty" yaml:"MaxResults" jsonschema:"title=Max Results,description=The maximum number of search results to return."`
}

// SearchResult represents the structure for a search response
type SearchResult struct {
	Results []tavilyModels.SearchResult `json:"results" yaml:"Results"`
	Answer  string                      `json:"answer,omitempty" yaml:"Answer"`
}

// Tool is a tool that provides a web search functionality
type Tool struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var _ tools.Tool[SearchRequest, SearchResult] = (*Tool)(nil)

// New returns the web search tool.
func New(apiKey string) (*Tool, error) {
	if apiKey == "" {
		return nil, errors.New("TAVILY_API_KEY is not set")
	}
	return &Tool{
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
	}, nil
}

// WithBaseURL sets the API URL.
func (t *Tool) WithBaseURL(baseURL string) *Tool {
	t.baseURL = baseURL
	return t
}

// WithHTTPClient sets the HTTP client.
func (t *Tool) WithHTTPClient(client *http.Client) *Tool {
	t.httpClient = client
	return t
}

func (t *Tool) Name() string {
	return ToolName
}

func (t *Tool) Description() string {
	return "Search the web for updated information."
}

func (t *Tool) Parameters() *jsonschema.Schema {
	return schema.For[SearchRequest]()
}

// Run performs the search.
func (t *Tool) Run(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	if strings.TrimSpace(req.Keywords) == "" {
		return nil, errors.New("invalid request: empty query")
	}
	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	client := tavilygo.NewClient(t.apiKey)
	if t.baseURL != "" {
		client.BaseURL = t.baseURL
	}
	if t.httpClient != nil {
		client.HTTPClient = t.httpClient
	}

	searchResp, err := tavilygo.Search(client, tavilyModels.SearchRequest{
		Query:         req.Keywords,
		SearchDepth:   "basic",
		IncludeAnswer: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to perform search")
	}

	results := searchResp.Results
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return &SearchResult{
		Results: results,
		Answer:  searchResp.Answer,
	}, nil
}

// Call runs the search and returns the formatted results.
// Search failures are returned as text for the model,
// only invalid input is returned as an error.
func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	req, err := tools.DecodeInput[SearchRequest](input)
	if err != nil {
		return "", err
	}
	out, err := t.Run(ctx, req)
	if err != nil {
		logger.ContextKV(ctx, xlog.WARNING, "status", "search_failed", "err", err.Error())
		if isRateLimited(err) {
			return "Rate limit reached. Please try again later.", nil
		}
		return fmt.Sprintf("Search failed: %s", err.Error()), nil
	}
	return out.String(), nil
}

func isRateLimited(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "rate limit")
}

func (r *SearchResult) String() string {
	var buf bytes.Buffer
	if r.Answer != "" {
		fmt.Fprintf(&buf, "ANSWER: %s\n", r.Answer)
	}

	for _, result := range r.Results {
		fmt.Fprintf(&buf, "- URL: %s\n", result.URL)
		fmt.Fprintf(&buf, "  TITLE: %s\n", result.Title)
		fmt.Fprintf(&buf, "  SCORE: %f\n", result.Score)
		fmt.Fprintf(&buf, "  CONTENT: %s\n", result.Content)
	}

	return buf.String()
}
