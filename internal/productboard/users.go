package productboard

import (
	"context"
	"net/url"
	"strconv"
)

// ListUsers returns workspace members, paginated to completion (or to
// limit). Cached.
func (c *Client) ListUsers(ctx context.Context, limit int) ([]User, error) {
	params := map[string]any{}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}

	key := GenerateKey("user_list", params)
	value, err := c.cache.Wrap(key, func() (any, error) {
		items, err := c.Paginate(ctx, "/users", nil, limit)
		if err != nil {
			return nil, err
		}
		return decodeItems[User](items)
	})
	if err != nil {
		return nil, err
	}
	return value.([]User), nil
}

// ValidateToken checks that the configured token can reach the API. The
// public API has no current-user endpoint, so a minimal users list stands
// in as the cheapest authenticated call. Bypasses the cache so the check
// reflects the live token, not a stale snapshot.
func (c *Client) ValidateToken(ctx context.Context) error {
	query := url.Values{}
	query.Set("pageLimit", "1")
	_, err := c.Request(ctx, "GET", "/users", query, nil)
	return err
}
