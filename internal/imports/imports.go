// Package imports registers every tool package via side-effecting imports.
package imports

import (
	_ "github.com/sammcj/mcp-productboard/internal/tools/features"
	_ "github.com/sammcj/mcp-productboard/internal/tools/notes"
	_ "github.com/sammcj/mcp-productboard/internal/tools/products"
	_ "github.com/sammcj/mcp-productboard/internal/tools/search"
	_ "github.com/sammcj/mcp-productboard/internal/tools/users"
)
