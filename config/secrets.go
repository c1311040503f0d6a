package config

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/values"
)

// SecretsAPI is the subset of the Secrets Manager client used to resolve API keys.
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// ResolveSecrets fills the API keys that are not set in the environment
// from the SecretID secret. It is a no-op when SecretID is empty.
func (c *Config) ResolveSecrets(ctx context.Context, api SecretsAPI) error {
	if c.SecretID == "" {
		return nil
	}

	out, err := api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(c.SecretID),
	})
	if err != nil {
		return errors.Wrapf(err, "failed to get secret %s", c.SecretID)
	}

	m := map[string]string{}
	if err = json.Unmarshal([]byte(aws.ToString(out.SecretString)), &m); err != nil {
		return errors.Wrapf(err, "secret %s is not a JSON object", c.SecretID)
	}

	c.OpenAIAPIKey = values.StringsCoalesce(c.OpenAIAPIKey, m["OPENAI_API_KEY"])
	c.AnthropicAPIKey = values.StringsCoalesce(c.AnthropicAPIKey, m["ANTHROPIC_API_KEY"])
	c.TavilyAPIKey = values.StringsCoalesce(c.TavilyAPIKey, m["TAVILY_API_KEY"])
	c.Telemetry.SpaceID = values.StringsCoalesce(c.Telemetry.SpaceID, m["ARIZE_SPACE_ID"])
	c.Telemetry.APIKey = values.StringsCoalesce(c.Telemetry.APIKey, m["ARIZE_API_KEY"])
	if c.Telemetry.Exporter == "none" && c.Telemetry.SpaceID != "" && c.Telemetry.APIKey != "" {
		c.Telemetry.Exporter = "otlp"
	}
	return nil
}
