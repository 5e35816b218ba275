package users

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-productboard/internal/productboard"
	"github.com/sammcj/mcp-productboard/internal/registry"
	"github.com/sammcj/mcp-productboard/internal/tools"
	"github.com/sirupsen/logrus"
)

// ListTool lists workspace members.
type ListTool struct{}

func init() {
	registry.Register(&ListTool{})
	registry.Register(&CurrentTool{})
}

// Definition returns the tool's definition for MCP registration
func (t *ListTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"pb_user_list",
		mcp.WithDescription("List members of the Productboard workspace."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of users to return (default: all)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute lists users
func (t *ListTool) Execute(ctx context.Context, logger *logrus.Logger, client *productboard.Client, args map[string]any) (*mcp.CallToolResult, error) {
	users, err := client.ListUsers(ctx, tools.IntArg(args, "limit", 0))
	if err != nil {
		return nil, err
	}

	return tools.NewJSONResult(map[string]any{
		"count": len(users),
		"users": users,
	})
}

// CurrentTool validates the configured API token. The public Productboard
// API exposes no current-user endpoint, so this reports whether the token
// can make authenticated calls rather than pretending to a profile.
type CurrentTool struct{}

// Definition returns the tool's definition for MCP registration
func (t *CurrentTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"pb_user_current",
		mcp.WithDescription("Validate the configured Productboard API token. The API does not expose a current-user profile, so this reports token validity rather than identity details."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute checks the token against the live API
func (t *CurrentTool) Execute(ctx context.Context, logger *logrus.Logger, client *productboard.Client, args map[string]any) (*mcp.CallToolResult, error) {
	if err := client.ValidateToken(ctx); err != nil {
		return tools.NewJSONResult(map[string]any{
			"token_valid": false,
			"error":       err.Error(),
		})
	}

	return tools.NewJSONResult(map[string]any{
		"token_valid": true,
		"message":     "API token is valid and can make authenticated requests",
	})
}
