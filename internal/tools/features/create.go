package features

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-productboard/internal/productboard"
	"github.com/sammcj/mcp-productboard/internal/registry"
	"github.com/sammcj/mcp-productboard/internal/tools"
	"github.com/sirupsen/logrus"
)

// CreateTool creates a new Productboard feature.
type CreateTool struct{}

func init() {
	registry.Register(&CreateTool{})
	registry.Register(&GetTool{})
	registry.Register(&ListTool{})
	registry.Register(&UpdateTool{})
	registry.Register(&DeleteTool{})
	registry.Register(&SearchTool{})
}

// Definition returns the tool's definition for MCP registration
func (t *CreateTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"pb_feature_create",
		mcp.WithDescription("Create a new feature in Productboard. Provide a name, an optional description, and optionally a status and a parent (product, component or feature) to place it in the hierarchy."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Feature name"),
		),
		mcp.WithString("description",
			mcp.Description("Feature description (plain text or HTML)"),
		),
		mcp.WithString("status_id",
			mcp.Description("Workflow status id to assign"),
		),
		mcp.WithString("status_name",
			mcp.Description("Workflow status name to assign (alternative to status_id)"),
		),
		mcp.WithString("parent_id",
			mcp.Description("Id of the parent entity to nest this feature under"),
		),
		mcp.WithString("parent_type",
			mcp.Description("Type of the parent entity"),
			mcp.Enum("product", "component", "feature"),
		),
		mcp.WithString("owner_email",
			mcp.Description("Email of the feature owner"),
		),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute creates the feature via the shared client
func (t *CreateTool) Execute(ctx context.Context, logger *logrus.Logger, client *productboard.Client, args map[string]any) (*mcp.CallToolResult, error) {
	name, err := tools.RequiredStringArg(args, "name")
	if err != nil {
		return nil, err
	}

	input := productboard.FeatureCreate{
		Name:        name,
		Description: tools.StringArg(args, "description"),
		StatusID:    tools.StringArg(args, "status_id"),
		StatusName:  tools.StringArg(args, "status_name"),
		ParentID:    tools.StringArg(args, "parent_id"),
		ParentType:  tools.StringArg(args, "parent_type"),
		OwnerEmail:  tools.StringArg(args, "owner_email"),
	}

	logger.WithField("name", name).Debug("Creating feature")
	feature, err := client.CreateFeature(ctx, input)
	if err != nil {
		return nil, err
	}

	return tools.NewJSONResult(feature)
}
