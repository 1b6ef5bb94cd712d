package scheduler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Health reports the service's component status.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload Health
	if err := c.do(ctx, call{method: http.MethodGet, route: "/health", path: "/health", dest: &payload}); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Metrics fetches a fresh aggregate snapshot.
func (c *Client) Metrics(ctx context.Context) (*SystemMetrics, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload SystemMetrics
	if err := c.do(ctx, call{method: http.MethodGet, route: "/metrics", path: "/metrics", dest: &payload}); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Fetch issues method against an arbitrary service path and returns the body
// untouched. path may carry a query string.
func (c *Client) Fetch(ctx context.Context, method, path string) (*RawResponse, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}
	rel, err := url.Parse(strings.TrimSpace(path))
	if err != nil {
		return nil, fmt.Errorf("parse path %q: %w", path, err)
	}
	escaped := rel.EscapedPath()
	if !strings.HasPrefix(escaped, "/") {
		escaped = "/" + escaped
	}
	var out RawResponse
	err = c.do(ctx, call{
		method: method,
		route:  "raw",
		path:   escaped,
		query:  rel.Query(),
		dest:   &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListOptions selects one page of a listing. Zero values take the defaults.
type ListOptions struct {
	Page     int
	PageSize int
}

func (o ListOptions) values() url.Values {
	page, size := o.Page, o.PageSize
	if page <= 0 {
		page = defaultPage
	}
	if size <= 0 {
		size = defaultPageSize
	}
	values := url.Values{}
	values.Set("page", strconv.Itoa(page))
	values.Set("page_size", strconv.Itoa(size))
	return values
}

func setIfPresent(values url.Values, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		values.Set(key, v)
	}
}
