package features

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-productboard/internal/productboard"
	"github.com/sammcj/mcp-productboard/internal/tools"
	"github.com/sirupsen/logrus"
)

// GetTool fetches a single feature by id.
type GetTool struct{}

// Definition returns the tool's definition for MCP registration
func (t *GetTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"pb_feature_get",
		mcp.WithDescription("Get a Productboard feature by its id, including status, parent, owner and timeframe."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Feature id"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute fetches the feature
func (t *GetTool) Execute(ctx context.Context, logger *logrus.Logger, client *productboard.Client, args map[string]any) (*mcp.CallToolResult, error) {
	id, err := tools.RequiredStringArg(args, "id")
	if err != nil {
		return nil, err
	}

	feature, err := client.GetFeature(ctx, id)
	if err != nil {
		return nil, err
	}

	return tools.NewJSONResult(feature)
}
