package awsgateway_test

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	acctypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol/types"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentcore/gateway"
	"github.com/effective-security/agentcore/gateway/awsgateway"
	"github.com/effective-security/agentcore/resources"
	"github.com/effective-security/agentcore/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProvisioner(f *fakeAWS, opts ...awsgateway.Option) *awsgateway.Provisioner {
	opts = append([]awsgateway.Option{awsgateway.WithPolling(time.Millisecond, time.Second)}, opts...)
	return awsgateway.New(f.clients(), opts...)
}

func Test_CreateAuthorizer(t *testing.T) {
	f := newFakeAWS()
	p := newProvisioner(f)

	auth, err := p.CreateAuthorizer(context.Background(), "TestGateway")
	require.NoError(t, err)

	assert.Equal(t, "client-1", auth.ClientInfo.ClientID)
	assert.Equal(t, "secret-1", auth.ClientInfo.ClientSecret)
	assert.Equal(t, "us-east-1_pool", auth.ClientInfo.UserPoolID)
	assert.Equal(t, "TestGateway/invoke", auth.ClientInfo.Scope)
	assert.Equal(t, awsgateway.TokenEndpoint(auth.ClientInfo.DomainPrefix, "us-east-1"), auth.ClientInfo.TokenEndpoint)
	assert.Equal(t,
		"https://cognito-idp.us-east-1.amazonaws.com/us-east-1_pool/.well-known/openid-configuration",
		auth.AuthorizerConfig.CustomJWTAuthorizer.DiscoveryURL)
	assert.Equal(t, []string{"client-1"}, auth.AuthorizerConfig.CustomJWTAuthorizer.AllowedClients)

	assert.Equal(t, []string{
		"CreateUserPool",
		"CreateUserPoolDomain",
		"CreateResourceServer",
		"CreateUserPoolClient",
		"DescribeUserPoolDomain",
		"DescribeUserPoolDomain",
	}, f.Calls())

	rs := &resources.RecordSet{Cognito: auth}
	require.NoError(t, rs.Validate())
}

func Test_CreateGateway(t *testing.T) {
	f := newFakeAWS()
	p := newProvisioner(f)
	ctx := context.Background()

	_, err := p.CreateGateway(ctx, "TestGateway", nil)
	assert.EqualError(t, err, "authorizer record is required")

	auth := &resources.AuthorizerRecord{
		AuthorizerConfig: resources.AuthorizerConfig{
			CustomJWTAuthorizer: resources.CustomJWTAuthorizer{
				DiscoveryURL:   "https://cognito-idp.us-east-1.amazonaws.com/p/.well-known/openid-configuration",
				AllowedClients: []string{"client-1"},
			},
		},
	}
	gw, err := p.CreateGateway(ctx, "TestGateway", auth)
	require.NoError(t, err)
	assert.Equal(t, "gw-123", gw.GatewayID)
	assert.Equal(t, "READY", gw.Status)
	assert.Equal(t, "arn:aws:iam::123456789012:role/"+awsgateway.DefaultGatewayRoleName, gw.RoleARN)
	assert.Equal(t, 2, f.gatewayPolls)

	in := f.createGatewayInput
	require.NotNil(t, in)
	assert.Equal(t, acctypes.GatewayProtocolTypeMcp, in.ProtocolType)
	assert.Equal(t, acctypes.AuthorizerTypeCustomJwt, in.AuthorizerType)
	jwt, ok := in.AuthorizerConfiguration.(*acctypes.AuthorizerConfigurationMemberCustomJWTAuthorizer)
	require.True(t, ok)
	assert.Equal(t, []string{"client-1"}, jwt.Value.AllowedClients)
	assert.Equal(t, auth.AuthorizerConfig.CustomJWTAuthorizer.DiscoveryURL, aws.ToString(jwt.Value.DiscoveryUrl))

	// the role is reused on the second run
	f.gatewayPolls = 0
	_, err = p.CreateGateway(ctx, "TestGateway", auth)
	require.NoError(t, err)
	assert.Contains(t, f.Calls(), "GetRole")

	f.gatewayFailed = true
	_, err = p.CreateGateway(ctx, "TestGateway", auth)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway gw-123 failed")
}

func Test_CreateTarget_Demo(t *testing.T) {
	f := newFakeAWS()
	// the new role is not assumable on the first attempt
	f.lambdaErrs = []error{
		&lambdatypes.InvalidParameterValueException{Message: aws.String("The role defined for the function cannot be assumed by Lambda.")},
	}
	p := newProvisioner(f)
	ctx := context.Background()

	_, err := p.CreateTarget(ctx, nil)
	assert.EqualError(t, err, "gateway record is required")

	target, err := p.CreateTarget(ctx, &resources.GatewayRecord{GatewayID: "gw-123"})
	require.NoError(t, err)
	assert.Equal(t, "target-1", target.TargetID)
	assert.Equal(t, "gw-123", target.GatewayID)
	assert.Equal(t, "arn:aws:lambda:us-east-1:123456789012:function:"+awsgateway.DefaultLambdaName, target.LambdaARN)
	assert.Contains(t, f.Calls(), "AttachRolePolicy")
	assert.Equal(t, lambdatypes.RuntimePython312, f.createFuncInput.Runtime)

	mcp, ok := f.createTargetInput.TargetConfiguration.(*acctypes.TargetConfigurationMemberMcp)
	require.True(t, ok)
	lt, ok := mcp.Value.(*acctypes.McpTargetConfigurationMemberLambda)
	require.True(t, ok)
	assert.Equal(t, target.LambdaARN, aws.ToString(lt.Value.LambdaArn))
	schema, ok := lt.Value.ToolSchema.(*acctypes.ToolSchemaMemberInlinePayload)
	require.True(t, ok)
	require.Len(t, schema.Value, 2)
	assert.Equal(t, "get_weather", aws.ToString(schema.Value[0].Name))
	assert.Equal(t, []string{"location"}, schema.Value[0].InputSchema.Required)
	assert.Equal(t, "get_time", aws.ToString(schema.Value[1].Name))

	// existing function is reused
	_, err = p.CreateTarget(ctx, &resources.GatewayRecord{GatewayID: "gw-123"})
	require.NoError(t, err)
	assert.Contains(t, f.Calls(), "GetFunction")
}

func Test_CreateTarget_ExistingLambda(t *testing.T) {
	f := newFakeAWS()
	arn := "arn:aws:lambda:us-east-1:123456789012:function:mine"
	p := newProvisioner(f, awsgateway.WithTargetLambdaARN(arn))

	target, err := p.CreateTarget(context.Background(), &resources.GatewayRecord{GatewayID: "gw-123"})
	require.NoError(t, err)
	assert.Equal(t, arn, target.LambdaARN)
	assert.Equal(t, []string{"CreateGatewayTarget"}, f.Calls())
}

func Test_CreateFunctionFailure(t *testing.T) {
	f := newFakeAWS()
	f.lambdaErrs = []error{errors.New("AccessDeniedException")}
	p := newProvisioner(f)

	_, err := p.CreateTarget(context.Background(), &resources.GatewayRecord{GatewayID: "gw-123"})
	assert.EqualError(t, err, "failed to create lambda function: AccessDeniedException")
}

func Test_DemoPackage(t *testing.T) {
	data, err := awsgateway.DemoPackage()
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, "lambda_function.py", zr.File[0].Name)
}

func Test_IssueToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		id, secret, ok := r.BasicAuth()
		if !ok || id != "client-1" || secret != "secret-1" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
			return
		}
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		assert.Equal(t, "TestGateway/invoke", r.Form.Get("scope"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	f := newFakeAWS()
	p := newProvisioner(f, awsgateway.WithTokenURL(srv.URL))
	ctx := context.Background()

	auth, err := p.CreateAuthorizer(ctx, "TestGateway")
	require.NoError(t, err)
	assert.Equal(t, srv.URL, auth.ClientInfo.TokenEndpoint)

	b := gateway.NewBootstrapper("TestGateway", store.NewMemoryStore(nil), p)
	tk, err := b.GetAccessToken(ctx, auth)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tk.AccessToken)
	assert.Equal(t, "Bearer", tk.TokenType)
	assert.True(t, tk.ExpiresAt.After(time.Now()))

	auth.ClientInfo.ClientSecret = "wrong"
	_, err = b.GetAccessToken(ctx, auth)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gateway.ErrProvisioning))
}

func Test_SetupOrLoadResources(t *testing.T) {
	f := newFakeAWS()
	p := newProvisioner(f)
	ctx := context.Background()
	st := store.NewMemoryStore(nil)

	rs, err := gateway.NewBootstrapper("TestGateway", st, p).SetupOrLoadResources(ctx)
	require.NoError(t, err)
	assert.True(t, rs.Complete())
	require.NoError(t, rs.Validate())

	n := len(f.Calls())
	_, err = gateway.NewBootstrapper("TestGateway", st, p).SetupOrLoadResources(ctx)
	require.NoError(t, err)
	assert.Len(t, f.Calls(), n, "no AWS calls on the second run")
}
