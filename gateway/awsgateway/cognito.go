package awsgateway

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ciptypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentcore/gateway"
	"github.com/effective-security/agentcore/resources"
	"github.com/effective-security/xlog"
	"golang.org/x/oauth2/clientcredentials"
)

const scopeInvoke = "invoke"

// TokenEndpoint returns the OAuth2 token URL of a Cognito domain.
func TokenEndpoint(domainPrefix, region string) string {
	return fmt.Sprintf("https://%s.auth.%s.amazoncognito.com/oauth2/token", domainPrefix, region)
}

// DiscoveryURL returns the OpenID configuration URL of a user pool.
func DiscoveryURL(userPoolID, region string) string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s/.well-known/openid-configuration", region, userPoolID)
}

// CreateAuthorizer creates a user pool with a domain, a resource server
// with the invoke scope, and a client credentials app client.
func (p *Provisioner) CreateAuthorizer(ctx context.Context, name string) (*resources.AuthorizerRecord, error) {
	api := p.clients.Cognito
	suffix := p.suffix()

	pool, err := api.CreateUserPool(ctx, &cip.CreateUserPoolInput{
		PoolName: aws.String("agentcore-gateway-pool-" + suffix),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create user pool")
	}
	poolID := aws.ToString(pool.UserPool.Id)
	logger.ContextKV(ctx, xlog.INFO, "status", "user_pool_created", "user_pool_id", poolID)

	domain := "agentcore-" + suffix
	_, err = api.CreateUserPoolDomain(ctx, &cip.CreateUserPoolDomainInput{
		Domain:     aws.String(domain),
		UserPoolId: aws.String(poolID),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create user pool domain %s", domain)
	}

	scope := name + "/" + scopeInvoke
	_, err = api.CreateResourceServer(ctx, &cip.CreateResourceServerInput{
		UserPoolId: aws.String(poolID),
		Identifier: aws.String(name),
		Name:       aws.String(name),
		Scopes: []ciptypes.ResourceServerScopeType{
			{
				ScopeName:        aws.String(scopeInvoke),
				ScopeDescription: aws.String("Invoke the gateway tools"),
			},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create resource server")
	}

	client, err := api.CreateUserPoolClient(ctx, &cip.CreateUserPoolClientInput{
		UserPoolId:                      aws.String(poolID),
		ClientName:                      aws.String("agentcore-client-" + suffix),
		GenerateSecret:                  true,
		AllowedOAuthFlows:               []ciptypes.OAuthFlowType{ciptypes.OAuthFlowTypeClientCredentials},
		AllowedOAuthScopes:              []string{scope},
		AllowedOAuthFlowsUserPoolClient: true,
		SupportedIdentityProviders:      []string{"COGNITO"},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create user pool client")
	}
	clientID := aws.ToString(client.UserPoolClient.ClientId)

	err = p.poll(ctx, "user pool domain", func(ctx context.Context) (bool, error) {
		res, err := api.DescribeUserPoolDomain(ctx, &cip.DescribeUserPoolDomainInput{
			Domain: aws.String(domain),
		})
		if err != nil {
			return false, errors.Wrap(err, "failed to describe user pool domain")
		}
		if res.DomainDescription == nil {
			return false, nil
		}
		switch res.DomainDescription.Status {
		case ciptypes.DomainStatusTypeActive:
			return true, nil
		case ciptypes.DomainStatusTypeFailed:
			return false, errors.Errorf("user pool domain %s failed", domain)
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}

	tokenURL := p.tokenURL
	if tokenURL == "" {
		tokenURL = TokenEndpoint(domain, p.clients.Region)
	}

	logger.ContextKV(ctx, xlog.INFO, "status", "authorizer_created", "client_id", clientID)
	return &resources.AuthorizerRecord{
		ClientInfo: resources.ClientInfo{
			ClientID:      clientID,
			ClientSecret:  aws.ToString(client.UserPoolClient.ClientSecret),
			UserPoolID:    poolID,
			TokenEndpoint: tokenURL,
			Scope:         scope,
			DomainPrefix:  domain,
		},
		AuthorizerConfig: resources.AuthorizerConfig{
			CustomJWTAuthorizer: resources.CustomJWTAuthorizer{
				DiscoveryURL:   DiscoveryURL(poolID, p.clients.Region),
				AllowedClients: []string{clientID},
			},
		},
	}, nil
}

// IssueToken requests an access token with the client credentials grant.
func (p *Provisioner) IssueToken(ctx context.Context, auth *resources.AuthorizerRecord) (*gateway.Token, error) {
	ci := auth.ClientInfo
	cc := clientcredentials.Config{
		ClientID:     ci.ClientID,
		ClientSecret: ci.ClientSecret,
		TokenURL:     ci.TokenEndpoint,
	}
	if ci.Scope != "" {
		cc.Scopes = []string{ci.Scope}
	}

	tk, err := cc.Token(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &gateway.Token{
		AccessToken: tk.AccessToken,
		TokenType:   tk.Type(),
		ExpiresAt:   tk.Expiry,
	}, nil
}
