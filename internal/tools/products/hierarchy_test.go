package products

import (
	"testing"

	"github.com/sammcj/mcp-productboard/internal/productboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productRef(id string) *productboard.EntityRef {
	return &productboard.EntityRef{Product: &productboard.IDRef{ID: id}}
}

func componentRef(id string) *productboard.EntityRef {
	return &productboard.EntityRef{Component: &productboard.IDRef{ID: id}}
}

func TestBuildTreeNestsComponentsUnderProducts(t *testing.T) {
	hierarchy := productboard.Hierarchy{
		Products: []productboard.Product{
			{ID: "p1", Name: "Platform"},
			{ID: "p2", Name: "Mobile"},
		},
		Components: []productboard.Component{
			{ID: "c1", Name: "Auth", Parent: productRef("p1")},
			{ID: "c2", Name: "Billing", Parent: productRef("p1")},
			{ID: "c3", Name: "Push", Parent: productRef("p2")},
		},
	}

	nodes := BuildTree(hierarchy)
	require.Len(t, nodes, 2)

	assert.Equal(t, "Platform", nodes[0].Name)
	require.Len(t, nodes[0].Components, 2)
	assert.Equal(t, "Auth", nodes[0].Components[0].Name)
	assert.Equal(t, "Billing", nodes[0].Components[1].Name)

	require.Len(t, nodes[1].Components, 1)
	assert.Equal(t, "Push", nodes[1].Components[0].Name)
}

func TestBuildTreeMultiLevelComponentNesting(t *testing.T) {
	hierarchy := productboard.Hierarchy{
		Products: []productboard.Product{{ID: "p1", Name: "Platform"}},
		Components: []productboard.Component{
			{ID: "c1", Name: "API", Parent: productRef("p1")},
			{ID: "c2", Name: "REST", Parent: componentRef("c1")},
			{ID: "c3", Name: "Webhooks", Parent: componentRef("c2")},
		},
	}

	nodes := BuildTree(hierarchy)
	require.Len(t, nodes, 1)
	require.Len(t, nodes[0].Components, 1)

	api := nodes[0].Components[0]
	assert.Equal(t, "API", api.Name)
	require.Len(t, api.Children, 1)

	rest := api.Children[0]
	assert.Equal(t, "REST", rest.Name)
	require.Len(t, rest.Children, 1)
	assert.Equal(t, "Webhooks", rest.Children[0].Name)
}

func TestBuildTreeDropsOrphans(t *testing.T) {
	hierarchy := productboard.Hierarchy{
		Products: []productboard.Product{{ID: "p1", Name: "Platform"}},
		Components: []productboard.Component{
			{ID: "c1", Name: "Attached", Parent: productRef("p1")},
			{ID: "c2", Name: "NoParent"},
			{ID: "c3", Name: "MissingParent", Parent: productRef("p-gone")},
		},
	}

	nodes := BuildTree(hierarchy)
	require.Len(t, nodes, 1)
	require.Len(t, nodes[0].Components, 1)
	assert.Equal(t, "Attached", nodes[0].Components[0].Name)
}

func TestBuildTreeEmptyWorkspace(t *testing.T) {
	nodes := BuildTree(productboard.Hierarchy{})
	assert.Empty(t, nodes)
}
