package driven

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// UpstreamError is returned by WordPressClient for any response with a status
// code of 400 or above. Body is the raw upstream response body.
type UpstreamError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("WordPress API error: status %d: %s", e.StatusCode, e.Body)
}

// WordPressClient defines the driven port for the WordPress REST API
// (wp-json/wp/v2). Paths are relative to the namespace root; an empty path
// addresses the root itself. Each method issues exactly one HTTP request and
// never retries.
type WordPressClient interface {
	Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error)
	Post(ctx context.Context, path string, body any) (json.RawMessage, error)
	Put(ctx context.Context, path string, body any) (json.RawMessage, error)
	Delete(ctx context.Context, path string, query url.Values) (json.RawMessage, error)
}
