// Package filewrite provides the tool that writes files under a base directory.
package filewrite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentcore/pkg/schema"
	"github.com/effective-security/agentcore/tools"
	"github.com/effective-security/xlog"
	"github.com/invopop/jsonschema"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentcore/tools", "filewrite")

// ToolName is the name of the file write tool.
const ToolName = "file_write"

// Request is the tool input.
type Request struct {
	Path    string `json:"path" yaml:"Path" jsonschema:"title=Path,description=The relative path of the file to write."`
	Content string `json:"content" yaml:"Content" jsonschema:"title=Content,description=The content to write to the file."`
	Append  bool   `json:"append,omitempty" yaml:"Append" jsonschema:"title=Append,description=Append to the file instead of overwriting it."`
}

// Result is the tool output.
type Result struct {
	Path  string `json:"path" yaml:"Path"`
	Bytes int    `json:"bytes" yaml:"Bytes"`
}

func (r *Result) String() string {
	return fmt.Sprintf("wrote %d bytes to %s", r.Bytes, r.Path)
}

// Tool writes files under the base directory.
type Tool struct {
	baseDir string
}

var _ tools.Tool[Request, Result] = (*Tool)(nil)

// New returns the tool writing under baseDir.
func New(baseDir string) (*Tool, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Tool{baseDir: abs}, nil
}

func (t *Tool) Name() string {
	return ToolName
}

func (t *Tool) Description() string {
	return "Write content to a file. Use to save the results of the task."
}

func (t *Tool) Parameters() *jsonschema.Schema {
	return schema.For[Request]()
}

// Run writes the file, creating the parent folders.
func (t *Tool) Run(ctx context.Context, req *Request) (*Result, error) {
	fn, err := t.resolve(req.Path)
	if err != nil {
		return nil, err
	}
	if err = os.MkdirAll(filepath.Dir(fn), 0o755); err != nil {
		return nil, errors.WithStack(err)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if req.Append {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(fn, flags, 0o644)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	n, err := f.WriteString(req.Content)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to write %s", req.Path)
	}

	logger.ContextKV(ctx, xlog.DEBUG, "status", "file_written", "path", fn, "bytes", n)
	return &Result{Path: req.Path, Bytes: n}, nil
}

func (t *Tool) resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("invalid request: empty path")
	}
	fn := filepath.Join(t.baseDir, filepath.Clean("/"+path))
	rel, err := filepath.Rel(t.baseDir, fn)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", errors.Newf("invalid path: %s", path)
	}
	return fn, nil
}

// Call writes the file and returns a short confirmation.
func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	req, err := tools.DecodeInput[Request](input)
	if err != nil {
		return "", err
	}
	res, err := t.Run(ctx, req)
	if err != nil {
		return "", err
	}
	return res.String(), nil
}
