package productboard

import (
	"context"
	"sort"
	"strconv"
	"strings"
)

// Per-type scan bounds for global search. Features get the larger bound
// because they are the collection searched most.
const (
	searchProductBound = 100
	searchNoteBound    = 100
)

// SearchResults groups global search matches by entity type.
type SearchResults struct {
	Features []Feature `json:"features,omitempty"`
	Products []Product `json:"products,omitempty"`
	Notes    []Note    `json:"notes,omitempty"`
}

// Search runs a client-side substring search across the requested entity
// types ("features", "products", "notes"; empty means all). The remote API
// offers no cross-entity search, so each type is listed up to a bound and
// filtered locally; ordering within a type is list order. Cached by query,
// types and limit.
func (c *Client) Search(ctx context.Context, query string, types []string, limit int) (SearchResults, error) {
	if len(types) == 0 {
		types = []string{"features", "products", "notes"}
	}
	normalised := make([]string, 0, len(types))
	for _, t := range types {
		normalised = append(normalised, strings.ToLower(strings.TrimSpace(t)))
	}
	sort.Strings(normalised)

	key := GenerateKey("search", map[string]any{
		"query": query,
		"types": strings.Join(normalised, ","),
		"limit": strconv.Itoa(limit),
	})
	value, err := c.cache.Wrap(key, func() (any, error) {
		return c.searchUncached(ctx, query, normalised, limit)
	})
	if err != nil {
		return SearchResults{}, err
	}
	return value.(SearchResults), nil
}

func (c *Client) searchUncached(ctx context.Context, query string, types []string, limit int) (SearchResults, error) {
	var results SearchResults

	for _, entityType := range types {
		switch entityType {
		case "features":
			features, err := c.listFeaturesUncached(ctx, searchListBound)
			if err != nil {
				return SearchResults{}, err
			}
			for _, f := range features {
				if matchesQuery(query, f.Name, f.Description) {
					results.Features = append(results.Features, f)
					if limit > 0 && len(results.Features) >= limit {
						break
					}
				}
			}
		case "products":
			items, err := c.Paginate(ctx, "/products", nil, searchProductBound)
			if err != nil {
				return SearchResults{}, err
			}
			products, err := decodeItems[Product](items)
			if err != nil {
				return SearchResults{}, err
			}
			for _, p := range products {
				if matchesQuery(query, p.Name, p.Description) {
					results.Products = append(results.Products, p)
					if limit > 0 && len(results.Products) >= limit {
						break
					}
				}
			}
		case "notes":
			items, err := c.Paginate(ctx, "/notes", nil, searchNoteBound)
			if err != nil {
				return SearchResults{}, err
			}
			notes, err := decodeItems[Note](items)
			if err != nil {
				return SearchResults{}, err
			}
			for _, n := range notes {
				if matchesQuery(query, n.Title, n.Content) {
					results.Notes = append(results.Notes, n)
					if limit > 0 && len(results.Notes) >= limit {
						break
					}
				}
			}
		}
	}

	return results, nil
}

// matchesQuery reports whether the query is a case-insensitive substring
// of either the name/title or the description/content.
func matchesQuery(query string, name, description string) bool {
	q := strings.ToLower(query)
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), q) ||
		strings.Contains(strings.ToLower(description), q)
}
