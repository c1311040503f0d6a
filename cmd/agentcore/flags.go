package main

import (
	"github.com/effective-security/agentcore/pkg/llms"
)

// ModelFlags are the inference parameters of the agent models.
type ModelFlags struct {
	Temp       float64  `name:"temperature" help:"The model temperature." default:"0.7"`
	MaxTokens  int      `name:"max-tokens" help:"The maximum output tokens." default:"1000"`
	TopP       float64  `name:"top-p" help:"The nucleus sampling probability, the provider default when 0."`
	Stop       []string `name:"stop" help:"The sequences that end the generation."`
	ToolChoice string   `name:"tool-choice" enum:"auto,none,required" default:"auto" help:"Whether the model may, must not or must call a tool."`
}

// CallOptions returns the model call options of the flags,
// with the metadata sent to the providers that accept it.
func (f *ModelFlags) CallOptions(metadata map[string]any) []llms.CallOption {
	opts := []llms.CallOption{
		llms.WithTemperature(f.Temp),
		llms.WithMaxTokens(f.MaxTokens),
	}
	if f.TopP > 0 {
		opts = append(opts, llms.WithTopP(f.TopP))
	}
	if len(f.Stop) > 0 {
		opts = append(opts, llms.WithStopWords(f.Stop))
	}
	if f.ToolChoice != "" && f.ToolChoice != "auto" {
		opts = append(opts, llms.WithToolChoice(f.ToolChoice))
	}
	if len(metadata) > 0 {
		opts = append(opts, llms.WithMetadata(metadata))
	}
	return opts
}

// sessionMetadata returns the request metadata of the session.
func sessionMetadata(sessionID, userID string) map[string]any {
	md := map[string]any{}
	if sessionID != "" {
		md[llms.MetadataSessionID] = sessionID
	}
	if userID != "" {
		md[llms.MetadataUserID] = userID
	}
	return md
}
