package products

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-productboard/internal/productboard"
	"github.com/sammcj/mcp-productboard/internal/registry"
	"github.com/sammcj/mcp-productboard/internal/tools"
	"github.com/sirupsen/logrus"
)

// ListTool lists top-level products.
type ListTool struct{}

func init() {
	registry.Register(&ListTool{})
	registry.Register(&ComponentListTool{})
	registry.Register(&HierarchyTool{})
}

// Definition returns the tool's definition for MCP registration
func (t *ListTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"pb_product_list",
		mcp.WithDescription("List all products in the Productboard workspace."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute lists products
func (t *ListTool) Execute(ctx context.Context, logger *logrus.Logger, client *productboard.Client, args map[string]any) (*mcp.CallToolResult, error) {
	products, err := client.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	return tools.NewJSONResult(map[string]any{
		"count":    len(products),
		"products": products,
	})
}

// ComponentListTool lists components, optionally scoped to one product.
type ComponentListTool struct{}

// Definition returns the tool's definition for MCP registration
func (t *ComponentListTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"pb_component_list",
		mcp.WithDescription("List components in the Productboard workspace, optionally scoped to a single product. Components group features and may nest under other components."),
		mcp.WithString("product_id",
			mcp.Description("Only components belonging to this product"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute lists components
func (t *ComponentListTool) Execute(ctx context.Context, logger *logrus.Logger, client *productboard.Client, args map[string]any) (*mcp.CallToolResult, error) {
	components, err := client.ListComponents(ctx, tools.StringArg(args, "product_id"))
	if err != nil {
		return nil, err
	}

	return tools.NewJSONResult(map[string]any{
		"count":      len(components),
		"components": components,
	})
}
