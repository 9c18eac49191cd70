// Package wordpress implements the WordPressClient port over the WordPress
// REST API (wp-json/wp/v2) using application password authentication.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ericfisherdev/wppanel/internal/domain/model"
	"github.com/ericfisherdev/wppanel/internal/domain/port/driven"
	"github.com/ericfisherdev/wppanel/internal/metrics"
)

// Compile-time interface satisfaction check.
var _ driven.WordPressClient = (*Client)(nil)

// apiPrefix is appended to the site URL to reach the core REST namespace.
const apiPrefix = "/wp-json/wp/v2"

// maxResponseBytes caps how much of an upstream response body is read.
const maxResponseBytes = 10 << 20

// Client issues authenticated requests against one WordPress site. It holds
// no per-request state and is safe for concurrent use.
type Client struct {
	http     *http.Client
	logger   *slog.Logger
	baseURL  string
	username string
	password string
}

// NewClient creates a Client for cred that sends requests through httpClient.
// cred.SiteURL is expected to be normalized (no trailing slash).
func NewClient(cred model.WordPressCredential, httpClient *http.Client, logger *slog.Logger) *Client {
	return &Client{
		http:     httpClient,
		logger:   logger,
		baseURL:  strings.TrimRight(cred.SiteURL, "/") + apiPrefix,
		username: cred.Username,
		password: cred.AppPassword,
	}
}

// BaseURL returns the REST namespace root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get issues GET {base}/{path}?{query}.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

// Post issues POST {base}/{path} with body encoded as JSON.
func (c *Client) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, path, nil, body)
}

// Put issues PUT {base}/{path} with body encoded as JSON.
func (c *Client) Put(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPut, path, nil, body)
}

// Delete issues DELETE {base}/{path}?{query}.
func (c *Client) Delete(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, path, query, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	endpoint := c.endpoint(path, query)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("creating %s %s request: %w", method, path, err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordWordPressRequest(method, 0, time.Since(start))
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.RecordWordPressRequest(method, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s %s response: %w", method, path, err)
	}

	c.logger.DebugContext(ctx, "wordpress request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"cached", resp.Header.Get("X-From-Cache") == "1",
		"duration", time.Since(start),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &driven.UpstreamError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("decoding %s %s response: invalid JSON", method, path)
	}

	return json.RawMessage(data), nil
}

// endpoint joins path onto the namespace root. An empty path addresses the
// root itself.
func (c *Client) endpoint(path string, query url.Values) string {
	endpoint := c.baseURL
	if p := strings.Trim(path, "/"); p != "" {
		endpoint += "/" + p
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	return endpoint
}
