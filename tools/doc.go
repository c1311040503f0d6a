// Package tools defines the Tool interface of the agents,
// and the helpers to describe tools to the LLM and decode the tool input.
package tools
