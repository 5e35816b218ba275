package features

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-productboard/internal/productboard"
	"github.com/sammcj/mcp-productboard/internal/tools"
	"github.com/sirupsen/logrus"
)

// ListTool lists features with optional filters.
type ListTool struct{}

// Definition returns the tool's definition for MCP registration
func (t *ListTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"pb_feature_list",
		mcp.WithDescription("List Productboard features. Supports filtering by status, parent entity and owner email. Results are paginated through automatically; use limit to bound the result size."),
		mcp.WithString("status_id",
			mcp.Description("Only features with this workflow status id"),
		),
		mcp.WithString("status_name",
			mcp.Description("Only features with this workflow status name"),
		),
		mcp.WithString("parent_id",
			mcp.Description("Only features nested under this parent entity id"),
		),
		mcp.WithString("owner_email",
			mcp.Description("Only features owned by this email"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of features to return (default: all)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute lists features matching the filters
func (t *ListTool) Execute(ctx context.Context, logger *logrus.Logger, client *productboard.Client, args map[string]any) (*mcp.CallToolResult, error) {
	filter := productboard.FeatureFilter{
		StatusID:   tools.StringArg(args, "status_id"),
		StatusName: tools.StringArg(args, "status_name"),
		ParentID:   tools.StringArg(args, "parent_id"),
		OwnerEmail: tools.StringArg(args, "owner_email"),
		Limit:      tools.IntArg(args, "limit", 0),
	}

	features, err := client.ListFeatures(ctx, filter)
	if err != nil {
		return nil, err
	}

	return tools.NewJSONResult(map[string]any{
		"count":    len(features),
		"features": features,
	})
}
