package awsgateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	acc "github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol"
	acctypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol/types"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentcore/resources"
	"github.com/effective-security/xlog"
)

type policyStatement struct {
	Effect    string            `json:"Effect"`
	Principal map[string]string `json:"Principal,omitempty"`
	Action    any               `json:"Action"`
	Resource  string            `json:"Resource,omitempty"`
}

type policyDocument struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

func (d policyDocument) String() string {
	b, _ := json.Marshal(d)
	return string(b)
}

func assumeRolePolicy(service string) string {
	return policyDocument{
		Version: "2012-10-17",
		Statement: []policyStatement{
			{
				Effect:    "Allow",
				Principal: map[string]string{"Service": service},
				Action:    "sts:AssumeRole",
			},
		},
	}.String()
}

// gatewayRolePolicy allows the gateway to invoke the functions of the account.
func gatewayRolePolicy(region, accountID string) string {
	return policyDocument{
		Version: "2012-10-17",
		Statement: []policyStatement{
			{
				Effect:   "Allow",
				Action:   []string{"bedrock-agentcore:*", "iam:PassRole"},
				Resource: "*",
			},
			{
				Effect:   "Allow",
				Action:   "lambda:InvokeFunction",
				Resource: fmt.Sprintf("arn:aws:lambda:%s:%s:function:*", region, accountID),
			},
		},
	}.String()
}

// ensureRole creates the role trusted by the service, or returns
// the ARN of the existing one.
func (p *Provisioner) ensureRole(ctx context.Context, name, service string) (string, bool, error) {
	res, err := p.clients.IAM.CreateRole(ctx, &iam.CreateRoleInput{
		RoleName:                 aws.String(name),
		AssumeRolePolicyDocument: aws.String(assumeRolePolicy(service)),
		Description:              aws.String("Execution role for " + service),
	})
	if err == nil {
		logger.ContextKV(ctx, xlog.INFO, "status", "role_created", "role", name)
		return aws.ToString(res.Role.Arn), true, nil
	}

	var exists *iamtypes.EntityAlreadyExistsException
	if !errors.As(err, &exists) {
		return "", false, errors.Wrapf(err, "failed to create role %s", name)
	}

	got, err := p.clients.IAM.GetRole(ctx, &iam.GetRoleInput{RoleName: aws.String(name)})
	if err != nil {
		return "", false, errors.Wrapf(err, "failed to get role %s", name)
	}
	logger.ContextKV(ctx, xlog.DEBUG, "status", "role_exists", "role", name)
	return aws.ToString(got.Role.Arn), false, nil
}

// CreateGateway creates the MCP gateway with the Cognito JWT authorizer,
// and waits until it is ready.
func (p *Provisioner) CreateGateway(ctx context.Context, name string, auth *resources.AuthorizerRecord) (*resources.GatewayRecord, error) {
	if auth == nil {
		return nil, errors.New("authorizer record is required")
	}

	accountID, err := p.accountID(ctx)
	if err != nil {
		return nil, err
	}
	roleARN, _, err := p.ensureRole(ctx, DefaultGatewayRoleName, "bedrock-agentcore.amazonaws.com")
	if err != nil {
		return nil, err
	}
	_, err = p.clients.IAM.PutRolePolicy(ctx, &iam.PutRolePolicyInput{
		RoleName:       aws.String(DefaultGatewayRoleName),
		PolicyName:     aws.String("AgentCoreGatewayPolicy"),
		PolicyDocument: aws.String(gatewayRolePolicy(p.clients.Region, accountID)),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to put gateway role policy")
	}

	jwt := auth.AuthorizerConfig.CustomJWTAuthorizer
	res, err := p.clients.Control.CreateGateway(ctx, &acc.CreateGatewayInput{
		Name:           aws.String(name),
		Description:    aws.String("AgentCore MCP gateway " + name),
		RoleArn:        aws.String(roleARN),
		ProtocolType:   acctypes.GatewayProtocolTypeMcp,
		AuthorizerType: acctypes.AuthorizerTypeCustomJwt,
		AuthorizerConfiguration: &acctypes.AuthorizerConfigurationMemberCustomJWTAuthorizer{
			Value: acctypes.CustomJWTAuthorizerConfiguration{
				DiscoveryUrl:   aws.String(jwt.DiscoveryURL),
				AllowedClients: jwt.AllowedClients,
			},
		},
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	gw := &resources.GatewayRecord{
		GatewayID:  aws.ToString(res.GatewayId),
		GatewayURL: aws.ToString(res.GatewayUrl),
		GatewayARN: aws.ToString(res.GatewayArn),
		Name:       name,
		RoleARN:    roleARN,
		Status:     string(res.Status),
	}
	logger.ContextKV(ctx, xlog.INFO, "status", "gateway_created", "gateway_id", gw.GatewayID)

	err = p.poll(ctx, "gateway "+gw.GatewayID, func(ctx context.Context) (bool, error) {
		got, err := p.clients.Control.GetGateway(ctx, &acc.GetGatewayInput{
			GatewayIdentifier: aws.String(gw.GatewayID),
		})
		if err != nil {
			return false, errors.Wrap(err, "failed to get gateway")
		}
		gw.Status = string(got.Status)
		if got.GatewayUrl != nil {
			gw.GatewayURL = aws.ToString(got.GatewayUrl)
		}
		switch got.Status {
		case acctypes.GatewayStatusReady:
			return true, nil
		case acctypes.GatewayStatusFailed:
			return false, errors.Errorf("gateway %s failed: %v", gw.GatewayID, got.StatusReasons)
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return gw, nil
}
