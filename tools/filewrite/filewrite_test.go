package filewrite_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentcore/tools"
	"github.com/effective-security/agentcore/tools/filewrite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Tool(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tool, err := filewrite.New(dir)
	require.NoError(t, err)
	assert.Equal(t, filewrite.ToolName, tool.Name())
	assert.Equal(t, []string{"path", "content"}, tool.Parameters().Required)

	res, err := tool.Call(ctx, `{"path":"report/summary.md","content":"# Summary\n"}`)
	require.NoError(t, err)
	assert.Equal(t, "wrote 10 bytes to report/summary.md", res)

	_, err = tool.Call(ctx, `{"path":"report/summary.md","content":"more\n","append":true}`)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "report", "summary.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Summary\nmore\n", string(data))

	// paths are kept under the base directory
	_, err = tool.Call(ctx, `{"path":"../../etc/passwd","content":"x"}`)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "etc", "passwd"))
	assert.NoError(t, err)

	_, err = tool.Call(ctx, `{"path":"","content":"x"}`)
	assert.EqualError(t, err, "invalid request: empty path")

	_, err = tool.Call(ctx, `{"path":"/","content":"x"}`)
	assert.EqualError(t, err, "invalid path: /")

	_, err = tool.Call(ctx, "not json")
	assert.True(t, errors.Is(err, tools.ErrFailedUnmarshalInput))
}
