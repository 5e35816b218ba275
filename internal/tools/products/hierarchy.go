package products

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-productboard/internal/productboard"
	"github.com/sammcj/mcp-productboard/internal/tools"
	"github.com/sirupsen/logrus"
)

// HierarchyTool assembles the product → component tree.
type HierarchyTool struct{}

// ProductNode is a product with its component tree attached.
type ProductNode struct {
	productboard.Product
	Components []*ComponentNode `json:"components,omitempty"`
}

// ComponentNode is a component with its nested children. Components form a
// possibly multi-level tree under each product.
type ComponentNode struct {
	productboard.Component
	Children []*ComponentNode `json:"children,omitempty"`
}

// Definition returns the tool's definition for MCP registration
func (t *HierarchyTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"pb_product_hierarchy",
		mcp.WithDescription("Get the full product hierarchy: every product with its components nested as a tree, including multi-level component nesting."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute fetches both collections and reassembles the tree
func (t *HierarchyTool) Execute(ctx context.Context, logger *logrus.Logger, client *productboard.Client, args map[string]any) (*mcp.CallToolResult, error) {
	hierarchy, err := client.GetProductHierarchy(ctx)
	if err != nil {
		return nil, err
	}

	nodes := BuildTree(hierarchy)
	return tools.NewJSONResult(map[string]any{
		"count":    len(nodes),
		"products": nodes,
	})
}

// BuildTree nests components under their products from the flat parent
// references. A component's parent is either a product or another
// component; components whose parent is missing from the snapshot are
// dropped rather than misplaced.
func BuildTree(hierarchy productboard.Hierarchy) []*ProductNode {
	productNodes := make(map[string]*ProductNode, len(hierarchy.Products))
	ordered := make([]*ProductNode, 0, len(hierarchy.Products))
	for _, product := range hierarchy.Products {
		node := &ProductNode{Product: product}
		productNodes[product.ID] = node
		ordered = append(ordered, node)
	}

	componentNodes := make(map[string]*ComponentNode, len(hierarchy.Components))
	for _, component := range hierarchy.Components {
		componentNodes[component.ID] = &ComponentNode{Component: component}
	}

	for _, component := range hierarchy.Components {
		node := componentNodes[component.ID]
		if component.Parent == nil {
			continue
		}
		switch {
		case component.Parent.Product != nil:
			if parent, ok := productNodes[component.Parent.Product.ID]; ok {
				parent.Components = append(parent.Components, node)
			}
		case component.Parent.Component != nil:
			if parent, ok := componentNodes[component.Parent.Component.ID]; ok {
				parent.Children = append(parent.Children, node)
			}
		}
	}

	return ordered
}
