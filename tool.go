package frmr

import (
	"context"
	"encoding/json"
)

// Tool describes a callable tool.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category,omitempty"`
	Keywords    []string        `json:"keywords,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// ToolService dispatches tool calls.
type ToolService interface {
	// Tools returns the available tools in registration order.
	Tools() []*Tool

	// CallTool invokes the named tool with JSON arguments and returns a
	// JSON-serializable result. Returns ENOTFOUND for unknown tools and
	// EBADREQUEST for invalid arguments.
	CallTool(ctx context.Context, name string, args json.RawMessage) (any, error)
}
