package productboard

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// searchListBound caps how many features a client-side search will scan.
// The API offers no native full-text search for features, so search lists
// a bounded page and filters locally.
const searchListBound = 500

// FeatureFilter narrows a feature list. Zero-value fields are omitted from
// both the query string and the cache key.
type FeatureFilter struct {
	StatusID   string
	StatusName string
	ParentID   string
	OwnerEmail string
	// Limit truncates the accumulated result; zero fetches all pages
	Limit int
}

func (f FeatureFilter) query() url.Values {
	q := url.Values{}
	if f.StatusID != "" {
		q.Set("status.id", f.StatusID)
	}
	if f.StatusName != "" {
		q.Set("status.name", f.StatusName)
	}
	if f.ParentID != "" {
		q.Set("parent.id", f.ParentID)
	}
	if f.OwnerEmail != "" {
		q.Set("owner.email", f.OwnerEmail)
	}
	return q
}

func (f FeatureFilter) cacheParams() map[string]any {
	params := map[string]any{}
	if f.StatusID != "" {
		params["status.id"] = f.StatusID
	}
	if f.StatusName != "" {
		params["status.name"] = f.StatusName
	}
	if f.ParentID != "" {
		params["parent.id"] = f.ParentID
	}
	if f.OwnerEmail != "" {
		params["owner.email"] = f.OwnerEmail
	}
	if f.Limit > 0 {
		params["limit"] = strconv.Itoa(f.Limit)
	}
	return params
}

// FeatureCreate carries the writable fields for feature creation.
type FeatureCreate struct {
	Name        string
	Description string
	StatusID    string
	StatusName  string
	// ParentType is "product", "component" or "feature"; paired with ParentID
	ParentType string
	ParentID   string
	OwnerEmail string
}

// FeatureUpdate carries a partial feature update. Nil-equivalent (empty)
// fields are left untouched by the API.
type FeatureUpdate struct {
	Name        string
	Description string
	StatusID    string
	StatusName  string
	OwnerEmail  string
	Archived    *bool
}

// ListFeatures returns features matching the filter, following pagination
// to completion (or to filter.Limit). Results are cached.
func (c *Client) ListFeatures(ctx context.Context, filter FeatureFilter) ([]Feature, error) {
	key := GenerateKey("feature_list", filter.cacheParams())
	value, err := c.cache.Wrap(key, func() (any, error) {
		items, err := c.Paginate(ctx, "/features", filter.query(), filter.Limit)
		if err != nil {
			return nil, err
		}
		return decodeItems[Feature](items)
	})
	if err != nil {
		return nil, err
	}
	return value.([]Feature), nil
}

// GetFeature fetches a single feature by id. Cached.
func (c *Client) GetFeature(ctx context.Context, id string) (Feature, error) {
	key := GenerateKey("feature_get", map[string]any{"id": id})
	value, err := c.cache.Wrap(key, func() (any, error) {
		raw, err := c.Request(ctx, http.MethodGet, "/features/"+url.PathEscape(id), nil, nil)
		if err != nil {
			return nil, err
		}
		return decodeData[Feature](raw)
	})
	if err != nil {
		return Feature{}, err
	}
	return value.(Feature), nil
}

// CreateFeature creates a feature and invalidates list/search results that
// could now be stale.
func (c *Client) CreateFeature(ctx context.Context, input FeatureCreate) (Feature, error) {
	raw, err := c.Request(ctx, http.MethodPost, "/features", nil, featureBody(input.Name, input.Description, input.StatusID, input.StatusName, input.OwnerEmail, input.ParentType, input.ParentID, nil))
	if err != nil {
		return Feature{}, err
	}

	c.invalidateFeatureReads("")
	return decodeData[Feature](raw)
}

// UpdateFeature applies a partial update and invalidates the feature's own
// cached record plus every list/search family that may have included it.
func (c *Client) UpdateFeature(ctx context.Context, id string, input FeatureUpdate) (Feature, error) {
	raw, err := c.Request(ctx, http.MethodPatch, "/features/"+url.PathEscape(id), nil, featureBody(input.Name, input.Description, input.StatusID, input.StatusName, input.OwnerEmail, "", "", input.Archived))
	if err != nil {
		return Feature{}, err
	}

	c.invalidateFeatureReads(id)
	return decodeData[Feature](raw)
}

// DeleteFeature removes a feature and invalidates stale cache entries.
func (c *Client) DeleteFeature(ctx context.Context, id string) error {
	if _, err := c.Request(ctx, http.MethodDelete, "/features/"+url.PathEscape(id), nil, nil); err != nil {
		return err
	}

	c.invalidateFeatureReads(id)
	return nil
}

// SearchFeatures performs a client-side, case-insensitive substring search
// over feature names and descriptions. Ordering is list order, not
// relevance; matches are exact substrings, not fuzzy. Cached by query.
func (c *Client) SearchFeatures(ctx context.Context, query string, limit int) ([]Feature, error) {
	key := GenerateKey("feature_search", map[string]any{
		"query": query,
		"limit": strconv.Itoa(limit),
	})
	value, err := c.cache.Wrap(key, func() (any, error) {
		features, err := c.listFeaturesUncached(ctx, searchListBound)
		if err != nil {
			return nil, err
		}

		matches := make([]Feature, 0)
		for _, f := range features {
			if matchesQuery(query, f.Name, f.Description) {
				matches = append(matches, f)
				if limit > 0 && len(matches) >= limit {
					break
				}
			}
		}
		return matches, nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]Feature), nil
}

// listFeaturesUncached fetches up to bound features without touching the
// cache; the search wrapper caches the filtered result instead.
func (c *Client) listFeaturesUncached(ctx context.Context, bound int) ([]Feature, error) {
	items, err := c.Paginate(ctx, "/features", nil, bound)
	if err != nil {
		return nil, err
	}
	return decodeItems[Feature](items)
}

// featureBody builds the writable feature payload, omitting empty fields
// so partial updates only touch what the caller set.
func featureBody(name, description, statusID, statusName, ownerEmail, parentType, parentID string, archived *bool) map[string]any {
	body := map[string]any{}
	if name != "" {
		body["name"] = name
	}
	if description != "" {
		body["description"] = description
	}
	if statusID != "" || statusName != "" {
		status := map[string]any{}
		if statusID != "" {
			status["id"] = statusID
		}
		if statusName != "" {
			status["name"] = statusName
		}
		body["status"] = status
	}
	if ownerEmail != "" {
		body["owner"] = map[string]any{"email": ownerEmail}
	}
	if parentID != "" {
		parent := map[string]any{}
		switch parentType {
		case "component":
			parent["component"] = map[string]any{"id": parentID}
		case "feature":
			parent["feature"] = map[string]any{"id": parentID}
		default:
			parent["product"] = map[string]any{"id": parentID}
		}
		body["parent"] = parent
	}
	if archived != nil {
		body["archived"] = *archived
	}
	return body
}

// invalidateFeatureReads drops cached feature reads after a write. The
// list and search families always go, since any of their snapshots may
// have included the changed record; id additionally drops that feature's
// own cached get.
func (c *Client) invalidateFeatureReads(id string) {
	if id != "" {
		c.cache.Delete(GenerateKey("feature_get", map[string]any{"id": id}))
	}
	c.cache.InvalidatePrefix("feature_list:")
	c.cache.InvalidatePrefix("feature_search:")
	c.cache.InvalidatePrefix("search:")
}
