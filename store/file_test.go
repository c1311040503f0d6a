package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentcore/config"
	"github.com/effective-security/agentcore/resources"
	"github.com/effective-security/agentcore/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullRecordSet() *resources.RecordSet {
	return &resources.RecordSet{
		Cognito: &resources.AuthorizerRecord{
			ClientInfo: resources.ClientInfo{
				ClientID:      "client",
				ClientSecret:  "secret",
				UserPoolID:    "us-east-1_abc",
				TokenEndpoint: "https://agentcore-abc.auth.us-east-1.amazoncognito.com/oauth2/token",
				Scope:         "TestGateway/invoke",
				DomainPrefix:  "agentcore-abc",
			},
			AuthorizerConfig: resources.AuthorizerConfig{
				CustomJWTAuthorizer: resources.CustomJWTAuthorizer{
					DiscoveryURL:   "https://cognito-idp.us-east-1.amazonaws.com/us-east-1_abc/.well-known/openid-configuration",
					AllowedClients: []string{"client", "other"},
				},
			},
		},
		Gateway: &resources.GatewayRecord{
			GatewayID:  "gw-1",
			GatewayURL: "https://gw-1.gateway.bedrock-agentcore.us-east-1.amazonaws.com/mcp",
			Name:       "TestGateway",
		},
		LambdaTarget: &resources.TargetRecord{
			TargetID:  "t-1",
			GatewayID: "gw-1",
			LambdaARN: "arn:aws:lambda:us-east-1:123456789012:function:demo",
		},
	}
}

func Test_FileStore_MissingFile(t *testing.T) {
	ctx := context.Background()
	st := store.NewFileStore(filepath.Join(t.TempDir(), "missing.json"))

	rs, err := st.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, rs)
	assert.Empty(t, rs.Kinds())
}

func Test_FileStore_Corrupt(t *testing.T) {
	ctx := context.Background()
	fn := filepath.Join(t.TempDir(), "corrupt.json")
	require.NoError(t, os.WriteFile(fn, []byte("this is not JSON"), 0o600))

	_, err := store.NewFileStore(fn).Load(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrDecode))
	assert.False(t, errors.Is(err, store.ErrIO))

	require.NoError(t, os.WriteFile(fn, []byte(`{"gateway":{"gatewayId":"gw-1"}}`), 0o600))
	_, err = store.NewFileStore(fn).Load(ctx)
	assert.True(t, errors.Is(err, store.ErrDecode))
}

func Test_FileStore_Empty(t *testing.T) {
	ctx := context.Background()
	fn := filepath.Join(t.TempDir(), "resources.json")

	for _, data := range []string{"", " \n\t"} {
		require.NoError(t, os.WriteFile(fn, []byte(data), 0o600))
		rs, err := store.NewFileStore(fn).Load(ctx)
		require.Error(t, err, "a truncated file must not load as an empty record set")
		assert.Nil(t, rs)
		assert.True(t, errors.Is(err, store.ErrDecode))
	}
}

func Test_FileStore_KeepsUndeclaredMembers(t *testing.T) {
	ctx := context.Background()
	fn := filepath.Join(t.TempDir(), "resources.json")
	st := store.NewFileStore(fn)

	stored := `{"gateway":{"gatewayId":"gw-1","gatewayUrl":"https://gw-1.example.com/mcp","protocolType":"MCP"}}`
	require.NoError(t, os.WriteFile(fn, []byte(stored), 0o600))

	rs, err := st.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, st.Save(ctx, rs))

	data, err := os.ReadFile(fn)
	require.NoError(t, err)
	assert.JSONEq(t, stored, string(data))
}

func Test_FileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fn := filepath.Join(t.TempDir(), "resources.json")
	st := store.NewFileStore(fn)

	exp := fullRecordSet()
	require.NoError(t, st.Save(ctx, exp))

	rs, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, exp, rs)

	data, err := os.ReadFile(fn)
	require.NoError(t, err)
	assert.Contains(t, string(data), "{\n  \"cognito\": {\n    \"client_info\": {")

	// overwrite
	exp.LambdaTarget = nil
	require.NoError(t, st.Save(ctx, exp))
	rs, err = st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, exp, rs)

	entries, err := os.ReadDir(filepath.Dir(fn))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func Test_FileStore_IOFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	st := store.NewFileStore(filepath.Join(dir, "no", "such", "dir", "resources.json"))
	err := st.Save(ctx, fullRecordSet())
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrIO))

	// a directory can not be read as a file
	_, err = store.NewFileStore(dir).Load(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrIO))
}

func Test_MemoryStore(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore(nil)

	rs, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, rs.Kinds())

	exp := fullRecordSet()
	require.NoError(t, st.Save(ctx, exp))
	assert.Equal(t, 1, st.Saves())

	// mutations of the loaded copy are not visible to the store
	rs, err = st.Load(ctx)
	require.NoError(t, err)
	rs.Gateway = nil

	rs, err = st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, exp, rs)
}

func Test_New(t *testing.T) {
	cfg := config.FromEnv(func(string) string { return "" })
	st, err := store.New(cfg)
	require.NoError(t, err)
	assert.NotNil(t, st)

	cfg.ResourceStoreURL = "redis://localhost:6379/0"
	st, err = store.New(cfg)
	require.NoError(t, err)
	assert.NotNil(t, st)

	cfg.ResourceStoreURL = "memory://"
	st, err = store.New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryStore{}, st)

	cfg.ResourceStoreURL = "s3://bucket/key"
	_, err = store.New(cfg)
	assert.EqualError(t, err, "unsupported resource store URL: s3://bucket/key")
}
