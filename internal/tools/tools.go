package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-productboard/internal/productboard"
	"github.com/sirupsen/logrus"
)

// Tool is the interface every Productboard tool implementation satisfies.
type Tool interface {
	// Definition returns the tool's definition for MCP registration
	Definition() mcp.Tool

	// Execute runs the tool against the shared Productboard client using
	// the parsed argument bag
	Execute(ctx context.Context, logger *logrus.Logger, client *productboard.Client, args map[string]any) (*mcp.CallToolResult, error)
}

// NewJSONResult marshals a value into a text tool result. Every tool
// returns JSON so the host can feed structured data back to the agent.
func NewJSONResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// StringArg extracts an optional string argument, tolerating absence.
func StringArg(args map[string]any, name string) string {
	if value, ok := args[name].(string); ok {
		return value
	}
	return ""
}

// RequiredStringArg extracts a mandatory, non-empty string argument.
func RequiredStringArg(args map[string]any, name string) (string, error) {
	value, ok := args[name].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("missing or invalid required parameter: %s", name)
	}
	return value, nil
}

// IntArg extracts an optional integer argument. JSON numbers arrive as
// float64 through the protocol layer.
func IntArg(args map[string]any, name string, defaultValue int) int {
	switch value := args[name].(type) {
	case float64:
		return int(value)
	case int:
		return value
	default:
		return defaultValue
	}
}

// BoolArg extracts an optional boolean argument.
func BoolArg(args map[string]any, name string) (bool, bool) {
	value, ok := args[name].(bool)
	return value, ok
}

// StringSliceArg extracts an optional array-of-strings argument,
// skipping non-string elements rather than failing.
func StringSliceArg(args map[string]any, name string) []string {
	raw, ok := args[name].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
