package awsgateway

import (
	"archive/zip"
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	acc "github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol"
	acctypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol/types"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentcore/resources"
	"github.com/effective-security/xlog"
)

const lambdaBasicExecutionPolicy = "arn:aws:iam::aws:policy/service-role/AWSLambdaBasicExecutionRole"

// the gateway passes the tool name in the client context as <target>___<tool>
const demoHandler = `import json
from datetime import datetime


def lambda_handler(event, context):
    tool_name = context.client_context.custom.get("bedrockAgentCoreToolName", "unknown")
    if "get_weather" in tool_name:
        return {
            "statusCode": 200,
            "body": json.dumps({
                "location": event.get("location", "Unknown"),
                "temperature": "72F",
                "conditions": "Sunny",
            }),
        }
    if "get_time" in tool_name:
        return {
            "statusCode": 200,
            "body": json.dumps({
                "timezone": event.get("timezone", "UTC"),
                "time": datetime.now().strftime("%Y-%m-%d %H:%M:%S"),
            }),
        }
    return {"statusCode": 400, "body": json.dumps({"error": "unknown tool " + tool_name})}
`

// DemoTools returns the tool definitions served by the demo function.
func DemoTools() []acctypes.ToolDefinition {
	return []acctypes.ToolDefinition{
		{
			Name:        aws.String("get_weather"),
			Description: aws.String("Get weather for a location"),
			InputSchema: objectSchema("location", "the location to get the weather for"),
		},
		{
			Name:        aws.String("get_time"),
			Description: aws.String("Get time for a timezone"),
			InputSchema: objectSchema("timezone", "the IANA timezone name"),
		},
	}
}

func objectSchema(prop, desc string) *acctypes.SchemaDefinition {
	return &acctypes.SchemaDefinition{
		Type: acctypes.SchemaTypeObject,
		Properties: map[string]acctypes.SchemaDefinition{
			prop: {
				Type:        acctypes.SchemaTypeString,
				Description: aws.String(desc),
			},
		},
		Required: []string{prop},
	}
}

// DemoPackage returns the zip archive of the demo function.
func DemoPackage() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("lambda_function.py")
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if _, err = w.Write([]byte(demoHandler)); err != nil {
		return nil, errors.WithStack(err)
	}
	if err = zw.Close(); err != nil {
		return nil, errors.WithStack(err)
	}
	return buf.Bytes(), nil
}

// CreateTarget registers the Lambda function as an MCP target of the gateway.
// The demo function is created when no target ARN is configured.
func (p *Provisioner) CreateTarget(ctx context.Context, gw *resources.GatewayRecord) (*resources.TargetRecord, error) {
	if gw == nil {
		return nil, errors.New("gateway record is required")
	}

	lambdaARN := p.targetLambdaARN
	if lambdaARN == "" {
		var err error
		lambdaARN, err = p.ensureDemoFunction(ctx)
		if err != nil {
			return nil, err
		}
	}

	res, err := p.clients.Control.CreateGatewayTarget(ctx, &acc.CreateGatewayTargetInput{
		GatewayIdentifier: aws.String(gw.GatewayID),
		Name:              aws.String(DefaultTargetName),
		Description:       aws.String("Lambda target with the weather and time tools"),
		TargetConfiguration: &acctypes.TargetConfigurationMemberMcp{
			Value: &acctypes.McpTargetConfigurationMemberLambda{
				Value: acctypes.McpLambdaTargetConfiguration{
					LambdaArn: aws.String(lambdaARN),
					ToolSchema: &acctypes.ToolSchemaMemberInlinePayload{
						Value: DemoTools(),
					},
				},
			},
		},
		CredentialProviderConfigurations: []acctypes.CredentialProviderConfiguration{
			{CredentialProviderType: acctypes.CredentialProviderTypeGatewayIamRole},
		},
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	target := &resources.TargetRecord{
		TargetID:   aws.ToString(res.TargetId),
		GatewayID:  gw.GatewayID,
		GatewayARN: aws.ToString(res.GatewayArn),
		Name:       DefaultTargetName,
		LambdaARN:  lambdaARN,
		Status:     string(res.Status),
	}
	logger.ContextKV(ctx, xlog.INFO,
		"status", "target_created",
		"target_id", target.TargetID,
		"lambda_arn", lambdaARN,
	)
	return target, nil
}

// ensureDemoFunction creates the demo function, or returns the ARN
// of the existing one.
func (p *Provisioner) ensureDemoFunction(ctx context.Context) (string, error) {
	roleARN, created, err := p.ensureRole(ctx, DefaultLambdaRoleName, "lambda.amazonaws.com")
	if err != nil {
		return "", err
	}
	if created {
		_, err = p.clients.IAM.AttachRolePolicy(ctx, &iam.AttachRolePolicyInput{
			RoleName:  aws.String(DefaultLambdaRoleName),
			PolicyArn: aws.String(lambdaBasicExecutionPolicy),
		})
		if err != nil {
			return "", errors.Wrap(err, "failed to attach lambda role policy")
		}
	}

	code, err := DemoPackage()
	if err != nil {
		return "", err
	}

	input := &lambda.CreateFunctionInput{
		FunctionName: aws.String(DefaultLambdaName),
		Runtime:      lambdatypes.RuntimePython312,
		Role:         aws.String(roleARN),
		Handler:      aws.String("lambda_function.lambda_handler"),
		Code:         &lambdatypes.FunctionCode{ZipFile: code},
		Description:  aws.String("AgentCore gateway demo tools"),
		Timeout:      aws.Int32(30),
	}

	var arn string
	// a new role takes a few seconds to become assumable by Lambda
	err = p.poll(ctx, "lambda function", func(ctx context.Context) (bool, error) {
		res, err := p.clients.Lambda.CreateFunction(ctx, input)
		if err == nil {
			arn = aws.ToString(res.FunctionArn)
			return true, nil
		}

		var conflict *lambdatypes.ResourceConflictException
		if errors.As(err, &conflict) {
			got, err := p.clients.Lambda.GetFunction(ctx, &lambda.GetFunctionInput{
				FunctionName: aws.String(DefaultLambdaName),
			})
			if err != nil {
				return false, errors.Wrap(err, "failed to get lambda function")
			}
			arn = aws.ToString(got.Configuration.FunctionArn)
			return true, nil
		}

		var invalid *lambdatypes.InvalidParameterValueException
		if created && errors.As(err, &invalid) {
			logger.ContextKV(ctx, xlog.DEBUG, "status", "role_not_ready", "reason", err.Error())
			return false, nil
		}
		return false, errors.Wrap(err, "failed to create lambda function")
	})
	if err != nil {
		return "", err
	}

	logger.ContextKV(ctx, xlog.INFO, "status", "lambda_ready", "lambda_arn", arn)
	return arn, nil
}

