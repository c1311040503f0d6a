// Package awsgateway provisions the gateway resources with the AWS SDK:
// a Cognito user pool with a client credentials app, an AgentCore MCP gateway
// and a Lambda target exposing the demo tools.
package awsgateway

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentcore/gateway"
	"github.com/effective-security/xlog"
	"github.com/google/uuid"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentcore/gateway", "awsgateway")

// Defaults
const (
	DefaultGatewayRoleName = "AgentCoreGatewayExecutionRole"
	DefaultLambdaRoleName  = "AgentCoreTestLambdaRole"
	DefaultLambdaName      = "AgentCoreTestFunction"
	DefaultTargetName      = "LambdaTarget"
	DefaultPollInterval    = 5 * time.Second
	DefaultPollTimeout     = 5 * time.Minute
)

// Option configures the Provisioner.
type Option func(*Provisioner)

// WithTargetLambdaARN registers an existing function as the gateway target,
// instead of creating the demo function.
func WithTargetLambdaARN(arn string) Option {
	return func(p *Provisioner) {
		p.targetLambdaARN = arn
	}
}

// WithPolling sets the interval and the timeout used when waiting
// for a resource to become ready.
func WithPolling(interval, timeout time.Duration) Option {
	return func(p *Provisioner) {
		if interval > 0 {
			p.pollInterval = interval
		}
		if timeout > 0 {
			p.pollTimeout = timeout
		}
	}
}

// WithTokenURL overrides the OAuth2 token endpoint stored in the authorizer record.
func WithTokenURL(url string) Option {
	return func(p *Provisioner) {
		p.tokenURL = url
	}
}

// Provisioner implements gateway.Provisioner with the AWS services.
type Provisioner struct {
	clients         *Clients
	targetLambdaARN string
	pollInterval    time.Duration
	pollTimeout     time.Duration
	tokenURL        string
	suffix          func() string
}

var _ gateway.Provisioner = (*Provisioner)(nil)

// New returns a Provisioner.
func New(clients *Clients, opts ...Option) *Provisioner {
	p := &Provisioner{
		clients:      clients,
		pollInterval: DefaultPollInterval,
		pollTimeout:  DefaultPollTimeout,
		suffix: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provisioner) accountID(ctx context.Context) (string, error) {
	res, err := p.clients.STS.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", errors.Wrap(err, "failed to get caller identity")
	}
	return aws.ToString(res.Account), nil
}

// poll calls check until it returns true, an error, or the poll timeout expires.
func (p *Provisioner) poll(ctx context.Context, what string, check func(context.Context) (bool, error)) error {
	ctx, cancel := context.WithTimeout(ctx, p.pollTimeout)
	defer cancel()

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		done, err := check(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		logger.ContextKV(ctx, xlog.DEBUG, "status", "waiting", "resource", what)

		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "timed out waiting for %s", what)
		case <-ticker.C:
		}
	}
}
