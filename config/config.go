// Package config provides the process-wide settings, resolved once at start-up
// from a .env file, the environment and literal defaults.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/effective-security/x/values"
	"github.com/joho/godotenv"
)

// Defaults
const (
	DefaultRegion            = "us-east-1"
	DefaultResourceStoreFile = "agentcore_resources.json"
	DefaultGatewayName       = "TestGateway"
	DefaultModelID           = "anthropic.claude-3-7-sonnet-20250219-v1:0"
	DefaultOpenAIModel       = "gpt-4o"
	DefaultAnthropicModel    = "claude-3-7-sonnet-latest"
	DefaultTemperature       = 0.4
	DefaultListenAddr        = ":8080"
	DefaultSystemPrompt      = "You are a helpful AI assistant. Please answer the user's questions to the best of your ability."
	DefaultOTLPEndpoint      = "otlp.arize.com:443"
	DefaultProjectName       = "agentcore"
)

// Config is a read-only snapshot of the settings.
type Config struct {
	// Region is the AWS region for provisioning and Bedrock calls.
	Region string `json:"region" yaml:"region"`
	// ResourceStoreFile is the path of the persisted record set.
	ResourceStoreFile string `json:"resource_store_file" yaml:"resource_store_file"`
	// ResourceStoreURL selects a redis store when set, e.g. redis://localhost:6379/0
	ResourceStoreURL string `json:"resource_store_url,omitempty" yaml:"resource_store_url,omitempty"`
	// SaveEachStep persists the record set after every created resource.
	SaveEachStep bool `json:"save_each_step,omitempty" yaml:"save_each_step,omitempty"`
	// GatewayName is the display name of the gateway and its authorizer.
	GatewayName string `json:"gateway_name" yaml:"gateway_name"`
	// TargetLambdaARN is an existing function to register as the gateway target,
	// a demo function is created when empty.
	TargetLambdaARN string `json:"target_lambda_arn,omitempty" yaml:"target_lambda_arn,omitempty"`

	ModelID      string  `json:"model_id" yaml:"model_id"`
	Temperature  float64 `json:"temperature" yaml:"temperature"`
	SystemPrompt string  `json:"system_prompt" yaml:"system_prompt"`
	// LLMConfigFile is an optional YAML file with the list of LLM providers.
	LLMConfigFile   string `json:"llm_config_file,omitempty" yaml:"llm_config_file,omitempty"`
	OpenAIAPIKey    string `json:"-" yaml:"-"`
	OpenAIModel     string `json:"openai_model" yaml:"openai_model"`
	AnthropicAPIKey string `json:"-" yaml:"-"`
	AnthropicModel  string `json:"anthropic_model" yaml:"anthropic_model"`
	TavilyAPIKey    string `json:"-" yaml:"-"`
	// SecretID is an optional Secrets Manager secret with the API keys,
	// stored as a JSON object keyed by the environment variable names.
	SecretID string `json:"secret_id,omitempty" yaml:"secret_id,omitempty"`

	ListenAddr string `json:"listen_addr" yaml:"listen_addr"`

	Telemetry Telemetry `json:"telemetry" yaml:"telemetry"`
}

// Telemetry specifies the tracing exporter.
type Telemetry struct {
	// Exporter is one of none|stdout|otlp
	Exporter    string `json:"exporter" yaml:"exporter"`
	Endpoint    string `json:"endpoint" yaml:"endpoint"`
	Insecure    bool   `json:"insecure,omitempty" yaml:"insecure,omitempty"`
	ProjectName string `json:"project_name" yaml:"project_name"`
	SpaceID     string `json:"-" yaml:"-"`
	APIKey      string `json:"-" yaml:"-"`
}

// Load reads the optional .env files and returns the Config
// resolved from the environment.
// Missing .env files are ignored.
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		// godotenv does not override variables that are already set
		_ = godotenv.Load(f)
	}
	return FromEnv(os.Getenv)
}

// FromEnv returns the Config resolved with the provided lookup function.
func FromEnv(getenv func(string) string) *Config {
	exporter := "none"
	if getenv("ARIZE_SPACE_ID") != "" && getenv("ARIZE_API_KEY") != "" {
		exporter = "otlp"
	}

	return &Config{
		Region:            values.StringsCoalesce(getenv("AWS_REGION"), DefaultRegion),
		ResourceStoreFile: values.StringsCoalesce(getenv("RESOURCE_STORE_FILE"), DefaultResourceStoreFile),
		ResourceStoreURL:  getenv("RESOURCE_STORE_URL"),
		SaveEachStep:      parseBool(getenv("RESOURCE_SAVE_EACH_STEP")),
		GatewayName:       values.StringsCoalesce(getenv("GATEWAY_NAME"), DefaultGatewayName),
		TargetLambdaARN:   getenv("TARGET_LAMBDA_ARN"),
		ModelID:           values.StringsCoalesce(getenv("BEDROCK_MODEL_ID"), DefaultModelID),
		Temperature:       parseFloat(getenv("MODEL_TEMPERATURE"), DefaultTemperature),
		SystemPrompt:      values.StringsCoalesce(getenv("SYSTEM_PROMPT"), DefaultSystemPrompt),
		LLMConfigFile:     getenv("LLM_CONFIG_FILE"),
		OpenAIAPIKey:      values.StringsCoalesce(getenv("OPENAI_API_KEY"), getenv("OpenAI_API_KEY")),
		OpenAIModel:       values.StringsCoalesce(getenv("OPENAI_MODEL"), DefaultOpenAIModel),
		AnthropicAPIKey:   getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:    values.StringsCoalesce(getenv("ANTHROPIC_MODEL"), DefaultAnthropicModel),
		TavilyAPIKey:      getenv("TAVILY_API_KEY"),
		SecretID:          getenv("AGENTCORE_SECRET_ID"),
		ListenAddr:        values.StringsCoalesce(getenv("AGENTCORE_LISTEN_ADDR"), DefaultListenAddr),
		Telemetry: Telemetry{
			Exporter:    strings.ToLower(values.StringsCoalesce(getenv("OTEL_EXPORTER"), exporter)),
			Endpoint:    values.StringsCoalesce(getenv("OTEL_EXPORTER_OTLP_ENDPOINT"), DefaultOTLPEndpoint),
			Insecure:    parseBool(getenv("OTEL_EXPORTER_OTLP_INSECURE")),
			ProjectName: values.StringsCoalesce(getenv("OTEL_PROJECT_NAME"), DefaultProjectName),
			SpaceID:     getenv("ARIZE_SPACE_ID"),
			APIKey:      getenv("ARIZE_API_KEY"),
		},
	}
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(s))
	return b
}

func parseFloat(s string, def float64) float64 {
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return def
	}
	return f
}
