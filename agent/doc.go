// Package agent provides the tool-calling agent loop: a system prompt, a model
// and a set of tools, invoked with a prompt until the model stops calling tools.
package agent
