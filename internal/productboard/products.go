package productboard

import (
	"context"
	"net/url"

	"golang.org/x/sync/errgroup"
)

// ListProducts returns all top-level products. Cached.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	key := GenerateKey("product_list", nil)
	value, err := c.cache.Wrap(key, func() (any, error) {
		items, err := c.Paginate(ctx, "/products", nil, 0)
		if err != nil {
			return nil, err
		}
		return decodeItems[Product](items)
	})
	if err != nil {
		return nil, err
	}
	return value.([]Product), nil
}

// ListComponents returns components, optionally scoped to one product.
// Cached per filter.
func (c *Client) ListComponents(ctx context.Context, productID string) ([]Component, error) {
	params := map[string]any{}
	query := url.Values{}
	if productID != "" {
		params["product.id"] = productID
		query.Set("productId", productID)
	}

	key := GenerateKey("component_list", params)
	value, err := c.cache.Wrap(key, func() (any, error) {
		items, err := c.Paginate(ctx, "/components", query, 0)
		if err != nil {
			return nil, err
		}
		return decodeItems[Component](items)
	})
	if err != nil {
		return nil, err
	}
	return value.([]Component), nil
}

// GetProductHierarchy fetches products and components concurrently and
// returns both collections unmerged. The two fetches are independent, so
// this is the one place the client fans out; the tool layer reconstructs
// the parent/child tree from the component parent references.
func (c *Client) GetProductHierarchy(ctx context.Context) (Hierarchy, error) {
	var hierarchy Hierarchy

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products, err := c.ListProducts(gctx)
		if err != nil {
			return err
		}
		hierarchy.Products = products
		return nil
	})
	g.Go(func() error {
		components, err := c.ListComponents(gctx, "")
		if err != nil {
			return err
		}
		hierarchy.Components = components
		return nil
	})

	if err := g.Wait(); err != nil {
		return Hierarchy{}, err
	}
	return hierarchy, nil
}
