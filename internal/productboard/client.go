package productboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultBaseURL is the public Productboard API endpoint
	DefaultBaseURL = "https://api.productboard.com"
	// DefaultTimeout bounds each individual HTTP round trip
	DefaultTimeout = 30 * time.Second
	// maxRetries is the retry ceiling for transient failures (4 attempts total)
	maxRetries = 3

	userAgent = "mcp-productboard/1.0"
)

// Options configures a Client. Zero values fall back to sensible defaults.
type Options struct {
	// Token is the Productboard API bearer token (required)
	Token string
	// BaseURL overrides the API endpoint, mainly for tests
	BaseURL string
	// CacheTTL is the default TTL for cached reads (default 5 minutes)
	CacheTTL time.Duration
	// CacheSize bounds the number of cached read results (default 500)
	CacheSize int
	// RatePerMinute bounds total outbound requests per minute (default 100)
	RatePerMinute int
	// HTTPClient overrides the transport, mainly for tests
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

// Client orchestrates all outbound Productboard API calls: rate-limit
// admission, bearer authentication, failure classification, bounded
// retries, cursor pagination, and read caching.
//
// The cache and rate limiter are owned by the client instance, so their
// lifetime is tied to the client rather than the process; every tool
// invocation funnels through the same instances.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limiter    *RateLimiter
	cache      *Cache
	logger     *logrus.Logger

	// retry backoff knobs, overridable in tests
	backoffBase time.Duration
	backoffCap  time.Duration
}

// NewClient creates a Productboard API client.
func NewClient(opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	cacheTTL := opts.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	cacheSize := opts.CacheSize
	if cacheSize <= 0 {
		cacheSize = 500
	}
	ratePerMinute := opts.RatePerMinute
	if ratePerMinute <= 0 {
		ratePerMinute = 100
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	return &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		token:       opts.Token,
		limiter:     NewRateLimiter(ratePerMinute, ratePerMinute, time.Minute),
		cache:       NewCache(cacheSize, cacheTTL),
		logger:      logger,
		backoffBase: backoffBase,
		backoffCap:  backoffCap,
	}
}

// Cache exposes the client's cache, mainly for stats reporting.
func (c *Client) Cache() *Cache {
	return c.cache
}

// Request issues a single API call with rate limiting and bounded retries.
// Retryable failures (429, 5xx, transport) are retried up to maxRetries
// times with the taxonomy's delay policy; everything else propagates
// immediately as an *APIError.
func (c *Client) Request(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Acquire(ctx); err != nil {
			return nil, err
		}

		data, apiErr := c.do(ctx, method, path, query, body)
		if apiErr == nil {
			return data, nil
		}

		if !apiErr.Retryable() || attempt >= maxRetries {
			return nil, apiErr
		}

		delay := retryDelay(apiErr, attempt, c.backoffBase, c.backoffCap)
		c.logger.WithFields(logrus.Fields{
			"method":  method,
			"path":    path,
			"status":  apiErr.StatusCode,
			"kind":    apiErr.Kind,
			"attempt": attempt + 1,
			"delay":   delay.String(),
		}).Warn("Retrying Productboard request after transient failure")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}

// do performs one HTTP round trip and classifies the outcome.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, *APIError) {
	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		// Write bodies are wrapped in the API's {"data": ...} envelope
		payload, err := json.Marshal(map[string]any{"data": body})
		if err != nil {
			return nil, &APIError{Kind: KindValidation, Message: fmt.Sprintf("failed to encode request body: %v", err)}
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, &APIError{Kind: KindValidation, Message: fmt.Sprintf("failed to build request: %v", err)}
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Version", "1")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err)
	}

	if resp.StatusCode >= 400 {
		return nil, classifyResponse(resp.StatusCode, resp.Header, respBody)
	}

	return respBody, nil
}

// page is the envelope shape of cursor-paginated list responses.
type page struct {
	Data  []json.RawMessage `json:"data"`
	Links struct {
		Next string `json:"next"`
	} `json:"links"`
}

// Paginate follows a cursor-paginated list endpoint to completion,
// accumulating the data arrays in page order. Page N+1 is never requested
// before page N completes, because its cursor comes from page N's
// response. When maxItems > 0 the result is truncated to exactly maxItems
// and remaining pages are not fetched.
func (c *Client) Paginate(ctx context.Context, path string, query url.Values, maxItems int) ([]json.RawMessage, error) {
	baseQuery := url.Values{}
	for k, v := range query {
		baseQuery[k] = v
	}

	var items []json.RawMessage
	currentQuery := baseQuery

	for {
		raw, err := c.Request(ctx, http.MethodGet, path, currentQuery, nil)
		if err != nil {
			return nil, err
		}

		var pg page
		if err := json.Unmarshal(raw, &pg); err != nil {
			return nil, &APIError{
				Kind:    KindUnknown,
				Message: fmt.Sprintf("malformed list response from %s: %v", path, err),
			}
		}

		items = append(items, pg.Data...)
		if maxItems > 0 && len(items) >= maxItems {
			return items[:maxItems], nil
		}

		cursor := nextCursor(pg.Links.Next)
		if cursor == "" {
			return items, nil
		}

		currentQuery = url.Values{}
		for k, v := range baseQuery {
			currentQuery[k] = v
		}
		currentQuery.Set("pageCursor", cursor)
	}
}

// nextCursor extracts the opaque pageCursor from a links.next URL.
// Anything unparseable ends pagination rather than erroring.
func nextCursor(next string) string {
	if next == "" {
		return ""
	}
	parsed, err := url.Parse(next)
	if err != nil {
		return ""
	}
	return parsed.Query().Get("pageCursor")
}

// decodeItems unmarshals accumulated raw list items into typed records.
func decodeItems[T any](items []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(items))
	for _, raw := range items {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, &APIError{
				Kind:    KindUnknown,
				Message: fmt.Sprintf("malformed list item: %v", err),
			}
		}
		out = append(out, v)
	}
	return out, nil
}

// decodeData unmarshals a single-record {"data": ...} response.
func decodeData[T any](raw json.RawMessage) (T, error) {
	var envelope struct {
		Data T `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		var zero T
		return zero, &APIError{
			Kind:    KindUnknown,
			Message: fmt.Sprintf("malformed response envelope: %v", err),
		}
	}
	return envelope.Data, nil
}
