package features

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-productboard/internal/productboard"
	"github.com/sammcj/mcp-productboard/internal/tools"
	"github.com/sirupsen/logrus"
)

// DefaultSearchLimit bounds feature search results unless overridden.
const DefaultSearchLimit = 20

// SearchTool searches features by name and description.
type SearchTool struct{}

// Definition returns the tool's definition for MCP registration
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"pb_feature_search",
		mcp.WithDescription("Search Productboard features by name and description. Matching is a case-insensitive substring scan performed client-side (the API has no native feature search), so results follow list order rather than relevance."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Text to search for"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of matches to return (default 20)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute runs the client-side search
func (t *SearchTool) Execute(ctx context.Context, logger *logrus.Logger, client *productboard.Client, args map[string]any) (*mcp.CallToolResult, error) {
	query, err := tools.RequiredStringArg(args, "query")
	if err != nil {
		return nil, err
	}
	limit := tools.IntArg(args, "limit", DefaultSearchLimit)

	matches, err := client.SearchFeatures(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	return tools.NewJSONResult(map[string]any{
		"query":    query,
		"count":    len(matches),
		"features": matches,
	})
}
