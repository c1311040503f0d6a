// Package llms provides the chat model abstraction used by the agents.
//
// Each subpackage implements a provider over the vendor SDK:
// bedrock uses the Bedrock Runtime Converse API,
// openai uses the Chat Completions API.
//
// The `llms.go` file contains the Model interface and provider capabilities,
// `message.go` the chat messages and responses,
// and `options.go` the per-call options including tool definitions.
package llms
