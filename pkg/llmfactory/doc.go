// Package llmfactory creates LLM models from a provider list,
// loaded from a YAML file or built from the process configuration.
package llmfactory
