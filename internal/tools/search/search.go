package search

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-productboard/internal/productboard"
	"github.com/sammcj/mcp-productboard/internal/registry"
	"github.com/sammcj/mcp-productboard/internal/tools"
	"github.com/sirupsen/logrus"
)

// DefaultLimit bounds matches per entity type unless overridden.
const DefaultLimit = 10

// Tool searches across features, products and notes.
type Tool struct{}

func init() {
	registry.Register(&Tool{})
}

// Definition returns the tool's definition for MCP registration
func (t *Tool) Definition() mcp.Tool {
	return mcp.NewTool(
		"pb_search",
		mcp.WithDescription("Search across Productboard features, products and notes. Matching is a case-insensitive substring scan performed client-side over a bounded listing of each collection, so results follow list order rather than relevance."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Text to search for"),
		),
		mcp.WithArray("types",
			mcp.Description("Entity types to search: any of features, products, notes (default: all)"),
			mcp.WithStringItems(),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum matches per entity type (default 10)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute runs the cross-entity search
func (t *Tool) Execute(ctx context.Context, logger *logrus.Logger, client *productboard.Client, args map[string]any) (*mcp.CallToolResult, error) {
	query, err := tools.RequiredStringArg(args, "query")
	if err != nil {
		return nil, err
	}

	results, err := client.Search(ctx, query, tools.StringSliceArg(args, "types"), tools.IntArg(args, "limit", DefaultLimit))
	if err != nil {
		return nil, err
	}

	return tools.NewJSONResult(map[string]any{
		"query":   query,
		"results": results,
	})
}
