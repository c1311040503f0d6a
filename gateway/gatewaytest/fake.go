// Package gatewaytest provides an in-memory gateway.Provisioner for tests.
package gatewaytest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/effective-security/agentcore/gateway"
	"github.com/effective-security/agentcore/resources"
)

// Provisioner creates fake resources and records the calls.
type Provisioner struct {
	// GatewayURL is returned in created gateway records.
	GatewayURL string
	// Token is returned by IssueToken.
	Token string
	// Err is returned by every call when set.
	Err error

	mu    sync.Mutex
	calls []string
	seq   int
}

var _ gateway.Provisioner = (*Provisioner)(nil)

// New returns a fake provisioner with the given gateway URL and token.
func New(gatewayURL, token string) *Provisioner {
	return &Provisioner{
		GatewayURL: gatewayURL,
		Token:      token,
	}
}

// Calls returns the names of the invoked methods.
func (p *Provisioner) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *Provisioner) record(call string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
	p.seq++
	return p.seq, p.Err
}

// CreateAuthorizer returns a fake Cognito authorizer.
func (p *Provisioner) CreateAuthorizer(_ context.Context, name string) (*resources.AuthorizerRecord, error) {
	seq, err := p.record("CreateAuthorizer")
	if err != nil {
		return nil, err
	}
	clientID := fmt.Sprintf("client-%d", seq)
	return &resources.AuthorizerRecord{
		ClientInfo: resources.ClientInfo{
			ClientID:      clientID,
			ClientSecret:  "secret",
			UserPoolID:    "us-east-1_fake",
			TokenEndpoint: "https://fake.auth.us-east-1.amazoncognito.com/oauth2/token",
			Scope:         name + "/invoke",
		},
		AuthorizerConfig: resources.AuthorizerConfig{
			CustomJWTAuthorizer: resources.CustomJWTAuthorizer{
				DiscoveryURL:   "https://cognito-idp.us-east-1.amazonaws.com/us-east-1_fake/.well-known/openid-configuration",
				AllowedClients: []string{clientID},
			},
		},
	}, nil
}

// CreateGateway returns a fake gateway.
func (p *Provisioner) CreateGateway(_ context.Context, name string, _ *resources.AuthorizerRecord) (*resources.GatewayRecord, error) {
	seq, err := p.record("CreateGateway")
	if err != nil {
		return nil, err
	}
	return &resources.GatewayRecord{
		GatewayID:  fmt.Sprintf("gw-%d", seq),
		GatewayURL: p.GatewayURL,
		Name:       name,
		Status:     "READY",
	}, nil
}

// CreateTarget returns a fake Lambda target.
func (p *Provisioner) CreateTarget(_ context.Context, gw *resources.GatewayRecord) (*resources.TargetRecord, error) {
	seq, err := p.record("CreateTarget")
	if err != nil {
		return nil, err
	}
	return &resources.TargetRecord{
		TargetID:  fmt.Sprintf("target-%d", seq),
		GatewayID: gw.GatewayID,
		Status:    "READY",
	}, nil
}

// IssueToken returns the configured token.
func (p *Provisioner) IssueToken(_ context.Context, _ *resources.AuthorizerRecord) (*gateway.Token, error) {
	if _, err := p.record("IssueToken"); err != nil {
		return nil, err
	}
	return &gateway.Token{
		AccessToken: p.Token,
		TokenType:   "Bearer",
		ExpiresAt:   time.Now().Add(time.Hour),
	}, nil
}
