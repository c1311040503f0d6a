package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/effective-security/agentcore/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Defaults(t *testing.T) {
	cfg := config.FromEnv(func(string) string { return "" })

	assert.Equal(t, config.DefaultRegion, cfg.Region)
	assert.Equal(t, config.DefaultResourceStoreFile, cfg.ResourceStoreFile)
	assert.Equal(t, config.DefaultGatewayName, cfg.GatewayName)
	assert.Equal(t, config.DefaultModelID, cfg.ModelID)
	assert.Equal(t, config.DefaultTemperature, cfg.Temperature)
	assert.Equal(t, config.DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, config.DefaultOpenAIModel, cfg.OpenAIModel)
	assert.Empty(t, cfg.ResourceStoreURL)
	assert.False(t, cfg.SaveEachStep)
	assert.Equal(t, "none", cfg.Telemetry.Exporter)
	assert.Equal(t, config.DefaultOTLPEndpoint, cfg.Telemetry.Endpoint)
}

func Test_Overrides(t *testing.T) {
	env := map[string]string{
		"AWS_REGION":              "ap-southeast-2",
		"RESOURCE_STORE_FILE":     "/tmp/res.json",
		"RESOURCE_SAVE_EACH_STEP": "true",
		"GATEWAY_NAME":            "MyGateway",
		"BEDROCK_MODEL_ID":        "us.anthropic.claude-3-7-sonnet-20250219-v1:0",
		"MODEL_TEMPERATURE":       "0.7",
		"OpenAI_API_KEY":          "sk-legacy",
		"ARIZE_SPACE_ID":          "space",
		"ARIZE_API_KEY":           "key",
	}
	cfg := config.FromEnv(func(k string) string { return env[k] })

	assert.Equal(t, "ap-southeast-2", cfg.Region)
	assert.Equal(t, "/tmp/res.json", cfg.ResourceStoreFile)
	assert.True(t, cfg.SaveEachStep)
	assert.Equal(t, "MyGateway", cfg.GatewayName)
	assert.Equal(t, "us.anthropic.claude-3-7-sonnet-20250219-v1:0", cfg.ModelID)
	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, "sk-legacy", cfg.OpenAIAPIKey)
	assert.Equal(t, "otlp", cfg.Telemetry.Exporter)
	assert.Equal(t, "space", cfg.Telemetry.SpaceID)

	env["MODEL_TEMPERATURE"] = "not-a-number"
	env["OTEL_EXPORTER"] = "STDOUT"
	cfg = config.FromEnv(func(k string) string { return env[k] })
	assert.Equal(t, config.DefaultTemperature, cfg.Temperature)
	assert.Equal(t, "stdout", cfg.Telemetry.Exporter)
}

func Test_LoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("GATEWAY_NAME=FromDotEnv\n"), 0o600))

	t.Setenv("GATEWAY_NAME", "")
	require.NoError(t, os.Unsetenv("GATEWAY_NAME"))

	cfg := config.Load(envFile)
	assert.Equal(t, "FromDotEnv", cfg.GatewayName)

	// missing files are ignored
	cfg = config.Load(filepath.Join(dir, "missing.env"))
	assert.NotNil(t, cfg)
}
