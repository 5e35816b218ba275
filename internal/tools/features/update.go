package features

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-productboard/internal/productboard"
	"github.com/sammcj/mcp-productboard/internal/tools"
	"github.com/sirupsen/logrus"
)

// UpdateTool applies a partial update to a feature.
type UpdateTool struct{}

// Definition returns the tool's definition for MCP registration
func (t *UpdateTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"pb_feature_update",
		mcp.WithDescription("Update a Productboard feature. Only the provided fields change; omitted fields are left untouched."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Feature id"),
		),
		mcp.WithString("name",
			mcp.Description("New feature name"),
		),
		mcp.WithString("description",
			mcp.Description("New feature description"),
		),
		mcp.WithString("status_id",
			mcp.Description("New workflow status id"),
		),
		mcp.WithString("status_name",
			mcp.Description("New workflow status name"),
		),
		mcp.WithString("owner_email",
			mcp.Description("New owner email"),
		),
		mcp.WithBoolean("archived",
			mcp.Description("Archive or unarchive the feature"),
		),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute applies the update
func (t *UpdateTool) Execute(ctx context.Context, logger *logrus.Logger, client *productboard.Client, args map[string]any) (*mcp.CallToolResult, error) {
	id, err := tools.RequiredStringArg(args, "id")
	if err != nil {
		return nil, err
	}

	input := productboard.FeatureUpdate{
		Name:        tools.StringArg(args, "name"),
		Description: tools.StringArg(args, "description"),
		StatusID:    tools.StringArg(args, "status_id"),
		StatusName:  tools.StringArg(args, "status_name"),
		OwnerEmail:  tools.StringArg(args, "owner_email"),
	}
	if archived, ok := tools.BoolArg(args, "archived"); ok {
		input.Archived = &archived
	}

	logger.WithField("id", id).Debug("Updating feature")
	feature, err := client.UpdateFeature(ctx, id, input)
	if err != nil {
		return nil, err
	}

	return tools.NewJSONResult(feature)
}
