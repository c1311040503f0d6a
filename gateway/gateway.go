// Package gateway ensures the AgentCore gateway resources exist,
// creating each of them at most once and caching the results in a store.
package gateway

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentcore/pkg/metricskey"
	"github.com/effective-security/agentcore/resources"
	"github.com/effective-security/agentcore/store"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	"golang.org/x/oauth2"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentcore", "gateway")

//go:generate mockgen -source=gateway.go -destination=../mocks/mockgateway/gateway_mock.gen.go -package mockgateway

// ErrProvisioning is returned when a resource creation
// or a token issuance fails.
var ErrProvisioning = errors.New("provisioning failed")

// Token is a short-lived access token issued by the authorizer.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
}

// Provisioner creates the external resources.
type Provisioner interface {
	// CreateAuthorizer creates the OAuth2 authorizer for the gateway.
	CreateAuthorizer(ctx context.Context, name string) (*resources.AuthorizerRecord, error)
	// CreateGateway creates the MCP gateway secured by the authorizer.
	CreateGateway(ctx context.Context, name string, auth *resources.AuthorizerRecord) (*resources.GatewayRecord, error)
	// CreateTarget registers a Lambda target behind the gateway.
	CreateTarget(ctx context.Context, gw *resources.GatewayRecord) (*resources.TargetRecord, error)
	// IssueToken returns an access token for the authorizer's client.
	IssueToken(ctx context.Context, auth *resources.AuthorizerRecord) (*Token, error)
}

// Option configures the Bootstrapper.
type Option func(*Bootstrapper)

// WithSaveEachStep persists the record set after every created resource,
// instead of once at the end of the run.
func WithSaveEachStep(enabled bool) Option {
	return func(b *Bootstrapper) {
		b.saveEachStep = enabled
	}
}

// Bootstrapper creates or loads the gateway resources.
type Bootstrapper struct {
	name         string
	store        store.ResourceStore
	client       Provisioner
	saveEachStep bool
}

// NewBootstrapper returns a Bootstrapper for the gateway with the given name.
func NewBootstrapper(name string, st store.ResourceStore, client Provisioner, opts ...Option) *Bootstrapper {
	b := &Bootstrapper{
		name:   name,
		store:  st,
		client: client,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetupOrLoadResources returns the complete record set,
// creating the missing resources in the order: cognito, gateway, lambda_target.
// Existing records are never re-created or overwritten.
// The record set is saved once at the end of the run if anything was created,
// or after each creation if WithSaveEachStep is set.
func (b *Bootstrapper) SetupOrLoadResources(ctx context.Context) (*resources.RecordSet, error) {
	rs, err := b.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	changed := false
	persist := func(kind resources.Kind) error {
		changed = true
		metricskey.StatsResourcesCreated.IncrCounter(1, string(kind))
		if !b.saveEachStep {
			return nil
		}
		return b.store.Save(ctx, rs)
	}

	if rs.Cognito == nil {
		logger.ContextKV(ctx, xlog.INFO, "status", "creating_authorizer", "name", b.name)
		auth, err := b.client.CreateAuthorizer(ctx, b.name)
		if err = checkCreated(auth == nil, err, resources.KindCognito); err != nil {
			return nil, err
		}
		rs.Cognito = auth
		if err = persist(resources.KindCognito); err != nil {
			return nil, err
		}
	}

	if rs.Gateway == nil {
		logger.ContextKV(ctx, xlog.INFO, "status", "creating_gateway", "name", b.name)
		gw, err := b.client.CreateGateway(ctx, b.name, rs.Cognito)
		if err = checkCreated(gw == nil, err, resources.KindGateway); err != nil {
			return nil, err
		}
		rs.Gateway = gw
		if err = persist(resources.KindGateway); err != nil {
			return nil, err
		}
	}

	if rs.LambdaTarget == nil {
		logger.ContextKV(ctx, xlog.INFO, "status", "creating_lambda_target", "gateway_id", rs.Gateway.GatewayID)
		target, err := b.client.CreateTarget(ctx, rs.Gateway)
		if err = checkCreated(target == nil, err, resources.KindLambdaTarget); err != nil {
			return nil, err
		}
		rs.LambdaTarget = target
		if err = persist(resources.KindLambdaTarget); err != nil {
			return nil, err
		}
	}

	if changed && !b.saveEachStep {
		if err = b.store.Save(ctx, rs); err != nil {
			return nil, err
		}
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "resources_ready",
		"created", changed,
		"gateway_url", rs.Gateway.GatewayURL,
	)
	return rs, nil
}

// GetAccessToken returns an access token for the authorizer.
func (b *Bootstrapper) GetAccessToken(ctx context.Context, auth *resources.AuthorizerRecord) (*Token, error) {
	if auth == nil {
		return nil, errors.New("authorizer record is required")
	}
	token, err := b.client.IssueToken(ctx, auth)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to issue access token"), ErrProvisioning)
	}
	return token, nil
}

// checkCreated returns the provisioning error of the call,
// a call that returned no record and no error is a failure too.
func checkCreated(empty bool, err error, kind resources.Kind) error {
	if err == nil && empty {
		err = errors.Newf("no %s record returned", kind)
	}
	if err != nil {
		return provisioningError(err, kind)
	}
	return nil
}

// TokenSource returns the access tokens of the authorizer,
// a new token is issued when the current one expires.
func (b *Bootstrapper) TokenSource(ctx context.Context, auth *resources.AuthorizerRecord) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &tokenSource{ctx: ctx, b: b, auth: auth})
}

type tokenSource struct {
	ctx  context.Context
	b    *Bootstrapper
	auth *resources.AuthorizerRecord
}

func (s *tokenSource) Token() (*oauth2.Token, error) {
	t, err := s.b.GetAccessToken(s.ctx, s.auth)
	if err != nil {
		return nil, err
	}
	logger.ContextKV(s.ctx, xlog.DEBUG, "status", "token_issued", "expires_at", t.ExpiresAt)
	return &oauth2.Token{
		AccessToken: t.AccessToken,
		TokenType:   values.StringsCoalesce(t.TokenType, "Bearer"),
		Expiry:      t.ExpiresAt,
	}, nil
}

func provisioningError(err error, kind resources.Kind) error {
	metricskey.StatsResourcesFailed.IncrCounter(1, string(kind))
	return errors.Mark(errors.Wrapf(err, "failed to create %s", kind), ErrProvisioning)
}
