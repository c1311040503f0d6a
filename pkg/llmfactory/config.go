package llmfactory

import (
	"slices"

	"github.com/effective-security/agentcore/config"
	"github.com/effective-security/x/configloader"
)

// Config is the list of LLM providers.
type Config struct {
	// Providers specifies the list of providers to use
	Providers []*ProviderConfig `json:"providers" yaml:"providers"`
	// DefaultProvider specifies the default provider to use
	DefaultProvider string `json:"default_provider" yaml:"default_provider"`
	// AgentModels specifies the mapping of agents to models.
	// key is the agent name, value is the model names.
	// Use `default: <model_name>` as the default model for agents.
	AgentModels map[string][]string `json:"agent_models" yaml:"agent_models"`
}

// ProviderConfig for a provider
type ProviderConfig struct {
	Name            string   `json:"name" yaml:"name"`
	Token           string   `json:"token,omitempty" yaml:"token,omitempty"`
	DefaultModel    string   `json:"default_model,omitempty" yaml:"default_model,omitempty"`
	AvailableModels []string `json:"available_models,omitempty" yaml:"available_models,omitempty"`
	Temperature     float64  `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	// Region is the AWS region for BEDROCK
	Region string       `json:"region,omitempty" yaml:"region,omitempty"`
	OpenAI OpenAIConfig `json:"open_ai" yaml:"open_ai"`
}

// OpenAIConfig specifies options config
type OpenAIConfig struct {
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	// APIType specifies the type of API to use:
	// OPENAI|BEDROCK|ANTHROPIC
	APIType string `json:"api_type,omitempty" yaml:"api_type,omitempty"`
	// OrgID specifies which organization's quota and billing should be used when making API requests.
	OrgID string `json:"org_id,omitempty" yaml:"org_id,omitempty"`
}

// FindModel returns the first of the models the provider has,
// or the provider's default model.
func (c *ProviderConfig) FindModel(models ...string) string {
	for _, model := range models {
		if slices.Contains(c.AvailableModels, model) {
			return model
		}
	}
	return c.DefaultModel
}

// LoadConfig from file
func LoadConfig(file string) (*Config, error) {
	cfg := new(Config)
	if file == "" {
		return cfg, nil
	}

	err := configloader.UnmarshalAndExpand(file, cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromConfig returns the provider list for the process configuration:
// Bedrock is the default provider, OpenAI and Anthropic are added when their API keys are set.
func FromConfig(cfg *config.Config) *Config {
	res := &Config{
		DefaultProvider: "bedrock",
		Providers: []*ProviderConfig{
			{
				Name:            "bedrock",
				DefaultModel:    cfg.ModelID,
				AvailableModels: []string{cfg.ModelID},
				Temperature:     cfg.Temperature,
				Region:          cfg.Region,
				OpenAI:          OpenAIConfig{APIType: "BEDROCK"},
			},
		},
	}
	if cfg.OpenAIAPIKey != "" {
		res.Providers = append(res.Providers, &ProviderConfig{
			Name:            "openai",
			Token:           cfg.OpenAIAPIKey,
			DefaultModel:    cfg.OpenAIModel,
			AvailableModels: []string{cfg.OpenAIModel},
			Temperature:     cfg.Temperature,
			OpenAI:          OpenAIConfig{APIType: "OPENAI"},
		})
	}
	if cfg.AnthropicAPIKey != "" {
		res.Providers = append(res.Providers, &ProviderConfig{
			Name:            "anthropic",
			Token:           cfg.AnthropicAPIKey,
			DefaultModel:    cfg.AnthropicModel,
			AvailableModels: []string{cfg.AnthropicModel},
			Temperature:     cfg.Temperature,
			OpenAI:          OpenAIConfig{APIType: "ANTHROPIC"},
		})
	}
	return res
}
