package main

import (
	"fmt"

	"github.com/effective-security/agentcore/gateway"
	"github.com/effective-security/agentcore/gateway/awsgateway"
	"github.com/effective-security/agentcore/pkg/llmutils"
	"github.com/effective-security/agentcore/resources"
	"github.com/effective-security/agentcore/store"
	"github.com/effective-security/x/values"
)

// BootstrapCmd creates or loads the gateway resources.
type BootstrapCmd struct {
	Name      string `help:"The gateway name, defaults to GATEWAY_NAME."`
	Token     bool   `help:"Also issue and print an access token."`
	EachStep  bool   `name:"save-each-step" help:"Save the resources after each created resource."`
	TargetARN string `name:"target-arn" help:"Register an existing Lambda function as the gateway target."`
	Format    string `enum:"json,yaml" default:"json" help:"Output format of the resources."`
}

// Run bootstraps the gateway and prints the resources.
func (c *BootstrapCmd) Run(ctx *Context) error {
	b, rs, err := c.bootstrap(ctx)
	if err != nil {
		return err
	}
	var token *gateway.Token
	if c.Token {
		if token, err = b.GetAccessToken(ctx, rs.Cognito); err != nil {
			return err
		}
	}

	if c.Format == "yaml" {
		fmt.Print(llmutils.ToYAML(rs))
	} else {
		fmt.Println(llmutils.ToJSONIndent(rs))
	}
	if token != nil {
		fmt.Printf("\nGateway URL: %s\nAccess token: %s\n", rs.Gateway.GatewayURL, token.AccessToken)
	}
	return nil
}

func (c *BootstrapCmd) bootstrap(ctx *Context) (*gateway.Bootstrapper, *resources.RecordSet, error) {
	cfg := ctx.Config

	st, err := store.New(cfg)
	if err != nil {
		return nil, nil, err
	}

	clients, err := awsgateway.NewClients(ctx, cfg.Region)
	if err != nil {
		return nil, nil, err
	}
	prov := awsgateway.New(clients,
		awsgateway.WithTargetLambdaARN(values.StringsCoalesce(c.TargetARN, cfg.TargetLambdaARN)),
	)

	b := gateway.NewBootstrapper(values.StringsCoalesce(c.Name, cfg.GatewayName), st, prov,
		gateway.WithSaveEachStep(c.EachStep || cfg.SaveEachStep),
	)
	rs, err := b.SetupOrLoadResources(ctx)
	if err != nil {
		return nil, nil, err
	}
	return b, rs, nil
}
