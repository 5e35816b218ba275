package features

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-productboard/internal/productboard"
	"github.com/sammcj/mcp-productboard/internal/tools"
	"github.com/sirupsen/logrus"
)

// DeleteTool permanently removes a feature.
type DeleteTool struct{}

// Definition returns the tool's definition for MCP registration
func (t *DeleteTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"pb_feature_delete",
		mcp.WithDescription("Delete a Productboard feature permanently. This cannot be undone."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Feature id"),
		),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute deletes the feature
func (t *DeleteTool) Execute(ctx context.Context, logger *logrus.Logger, client *productboard.Client, args map[string]any) (*mcp.CallToolResult, error) {
	id, err := tools.RequiredStringArg(args, "id")
	if err != nil {
		return nil, err
	}

	logger.WithField("id", id).Debug("Deleting feature")
	if err := client.DeleteFeature(ctx, id); err != nil {
		return nil, err
	}

	return tools.NewJSONResult(map[string]any{
		"deleted": true,
		"id":      id,
	})
}
