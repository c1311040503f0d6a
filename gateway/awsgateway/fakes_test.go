package awsgateway_test

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	acc "github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol"
	acctypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol/types"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ciptypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/effective-security/agentcore/gateway/awsgateway"
)

type fakeAWS struct {
	mu    sync.Mutex
	calls []string

	roles        map[string]string
	functionARN  string
	domainPolls  int
	gatewayPolls int
	lambdaErrs   []error

	createGatewayInput *acc.CreateGatewayInput
	createTargetInput  *acc.CreateGatewayTargetInput
	createFuncInput    *lambda.CreateFunctionInput
	gatewayFailed      bool
}

func newFakeAWS() *fakeAWS {
	return &fakeAWS{roles: map[string]string{}}
}

func (f *fakeAWS) clients() *awsgateway.Clients {
	return &awsgateway.Clients{
		Region:  "us-east-1",
		Cognito: f,
		IAM:     f,
		Lambda:  f,
		Control: f,
		STS:     f,
	}
}

func (f *fakeAWS) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAWS) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAWS) CreateUserPool(_ context.Context, params *cip.CreateUserPoolInput, _ ...func(*cip.Options)) (*cip.CreateUserPoolOutput, error) {
	f.record("CreateUserPool")
	return &cip.CreateUserPoolOutput{
		UserPool: &ciptypes.UserPoolType{Id: aws.String("us-east-1_pool"), Name: params.PoolName},
	}, nil
}

func (f *fakeAWS) CreateUserPoolDomain(_ context.Context, _ *cip.CreateUserPoolDomainInput, _ ...func(*cip.Options)) (*cip.CreateUserPoolDomainOutput, error) {
	f.record("CreateUserPoolDomain")
	return &cip.CreateUserPoolDomainOutput{}, nil
}

func (f *fakeAWS) DescribeUserPoolDomain(_ context.Context, params *cip.DescribeUserPoolDomainInput, _ ...func(*cip.Options)) (*cip.DescribeUserPoolDomainOutput, error) {
	f.record("DescribeUserPoolDomain")
	f.mu.Lock()
	f.domainPolls++
	n := f.domainPolls
	f.mu.Unlock()

	status := ciptypes.DomainStatusTypeCreating
	if n > 1 {
		status = ciptypes.DomainStatusTypeActive
	}
	return &cip.DescribeUserPoolDomainOutput{
		DomainDescription: &ciptypes.DomainDescriptionType{Domain: params.Domain, Status: status},
	}, nil
}

func (f *fakeAWS) CreateResourceServer(_ context.Context, params *cip.CreateResourceServerInput, _ ...func(*cip.Options)) (*cip.CreateResourceServerOutput, error) {
	f.record("CreateResourceServer")
	return &cip.CreateResourceServerOutput{
		ResourceServer: &ciptypes.ResourceServerType{Identifier: params.Identifier},
	}, nil
}

func (f *fakeAWS) CreateUserPoolClient(_ context.Context, params *cip.CreateUserPoolClientInput, _ ...func(*cip.Options)) (*cip.CreateUserPoolClientOutput, error) {
	f.record("CreateUserPoolClient")
	return &cip.CreateUserPoolClientOutput{
		UserPoolClient: &ciptypes.UserPoolClientType{
			ClientId:           aws.String("client-1"),
			ClientSecret:       aws.String("secret-1"),
			AllowedOAuthScopes: params.AllowedOAuthScopes,
		},
	}, nil
}

func (f *fakeAWS) CreateRole(_ context.Context, params *iam.CreateRoleInput, _ ...func(*iam.Options)) (*iam.CreateRoleOutput, error) {
	f.record("CreateRole")
	name := aws.ToString(params.RoleName)
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.roles[name]; ok {
		return nil, &iamtypes.EntityAlreadyExistsException{Message: aws.String("Role with name " + name + " already exists.")}
	}
	arn := "arn:aws:iam::123456789012:role/" + name
	f.roles[name] = arn
	return &iam.CreateRoleOutput{Role: &iamtypes.Role{Arn: aws.String(arn), RoleName: params.RoleName}}, nil
}

func (f *fakeAWS) GetRole(_ context.Context, params *iam.GetRoleInput, _ ...func(*iam.Options)) (*iam.GetRoleOutput, error) {
	f.record("GetRole")
	f.mu.Lock()
	defer f.mu.Unlock()
	return &iam.GetRoleOutput{Role: &iamtypes.Role{Arn: aws.String(f.roles[aws.ToString(params.RoleName)]), RoleName: params.RoleName}}, nil
}

func (f *fakeAWS) PutRolePolicy(_ context.Context, _ *iam.PutRolePolicyInput, _ ...func(*iam.Options)) (*iam.PutRolePolicyOutput, error) {
	f.record("PutRolePolicy")
	return &iam.PutRolePolicyOutput{}, nil
}

func (f *fakeAWS) AttachRolePolicy(_ context.Context, _ *iam.AttachRolePolicyInput, _ ...func(*iam.Options)) (*iam.AttachRolePolicyOutput, error) {
	f.record("AttachRolePolicy")
	return &iam.AttachRolePolicyOutput{}, nil
}

func (f *fakeAWS) CreateFunction(_ context.Context, params *lambda.CreateFunctionInput, _ ...func(*lambda.Options)) (*lambda.CreateFunctionOutput, error) {
	f.record("CreateFunction")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createFuncInput = params
	if len(f.lambdaErrs) > 0 {
		err := f.lambdaErrs[0]
		f.lambdaErrs = f.lambdaErrs[1:]
		return nil, err
	}
	if f.functionARN != "" {
		return nil, &lambdatypes.ResourceConflictException{Message: aws.String("Function already exist")}
	}
	f.functionARN = "arn:aws:lambda:us-east-1:123456789012:function:" + aws.ToString(params.FunctionName)
	return &lambda.CreateFunctionOutput{FunctionArn: aws.String(f.functionARN)}, nil
}

func (f *fakeAWS) GetFunction(_ context.Context, _ *lambda.GetFunctionInput, _ ...func(*lambda.Options)) (*lambda.GetFunctionOutput, error) {
	f.record("GetFunction")
	f.mu.Lock()
	defer f.mu.Unlock()
	return &lambda.GetFunctionOutput{
		Configuration: &lambdatypes.FunctionConfiguration{FunctionArn: aws.String(f.functionARN)},
	}, nil
}

func (f *fakeAWS) CreateGateway(_ context.Context, params *acc.CreateGatewayInput, _ ...func(*acc.Options)) (*acc.CreateGatewayOutput, error) {
	f.record("CreateGateway")
	f.mu.Lock()
	f.createGatewayInput = params
	f.mu.Unlock()
	return &acc.CreateGatewayOutput{
		GatewayId:  aws.String("gw-123"),
		GatewayArn: aws.String("arn:aws:bedrock-agentcore:us-east-1:123456789012:gateway/gw-123"),
		GatewayUrl: aws.String("https://gw-123.gateway.bedrock-agentcore.us-east-1.amazonaws.com/mcp"),
		Status:     acctypes.GatewayStatusCreating,
	}, nil
}

func (f *fakeAWS) GetGateway(_ context.Context, _ *acc.GetGatewayInput, _ ...func(*acc.Options)) (*acc.GetGatewayOutput, error) {
	f.record("GetGateway")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gatewayPolls++

	status := acctypes.GatewayStatusCreating
	switch {
	case f.gatewayFailed:
		status = acctypes.GatewayStatusFailed
	case f.gatewayPolls > 1:
		status = acctypes.GatewayStatusReady
	}
	return &acc.GetGatewayOutput{
		GatewayId:  aws.String("gw-123"),
		GatewayUrl: aws.String("https://gw-123.gateway.bedrock-agentcore.us-east-1.amazonaws.com/mcp"),
		Status:     status,
	}, nil
}

func (f *fakeAWS) CreateGatewayTarget(_ context.Context, params *acc.CreateGatewayTargetInput, _ ...func(*acc.Options)) (*acc.CreateGatewayTargetOutput, error) {
	f.record("CreateGatewayTarget")
	f.mu.Lock()
	f.createTargetInput = params
	f.mu.Unlock()
	return &acc.CreateGatewayTargetOutput{
		TargetId:   aws.String("target-1"),
		GatewayArn: aws.String("arn:aws:bedrock-agentcore:us-east-1:123456789012:gateway/gw-123"),
		Status:     acctypes.TargetStatusCreating,
	}, nil
}

func (f *fakeAWS) GetCallerIdentity(_ context.Context, _ *sts.GetCallerIdentityInput, _ ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	f.record("GetCallerIdentity")
	return &sts.GetCallerIdentityOutput{Account: aws.String("123456789012")}, nil
}
