package wordpress

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/wppanel/internal/domain/model"
)

// ClientFactory builds Clients that share one long-lived base transport.
// Each credential gets its own in-memory HTTP cache layered over the base
// transport so conditional GETs (ETag/Last-Modified) are revalidated instead
// of refetched, and cached bodies are never served across credentials.
// Stored bodies are only reused after WordPress answers 304 Not Modified.
type ClientFactory struct {
	base    http.RoundTripper
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.Mutex
	key    string
	client *http.Client
}

// NewClientFactory creates a factory whose clients time out after timeout.
// A nil base uses a clone of http.DefaultTransport.
func NewClientFactory(base http.RoundTripper, timeout time.Duration, logger *slog.Logger) *ClientFactory {
	if base == nil {
		base = http.DefaultTransport.(*http.Transport).Clone()
	}
	return &ClientFactory{base: base, timeout: timeout, logger: logger}
}

// New returns a Client for cred. The cached http.Client is reused while the
// credential is unchanged and replaced (dropping its cache) when it changes.
func (f *ClientFactory) New(cred model.WordPressCredential) *Client {
	return NewClient(cred, f.httpClient(cred), f.logger)
}

func (f *ClientFactory) httpClient(cred model.WordPressCredential) *http.Client {
	key := cred.ID + "\x00" + cred.SiteURL + "\x00" + cred.Username + "\x00" + cred.AppPassword

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.client != nil && f.key == key {
		return f.client
	}

	cache := &httpcache.Transport{
		Transport:           revalidateTransport{next: f.base},
		Cache:               httpcache.NewMemoryCache(),
		MarkCachedResponses: true,
	}
	f.key = key
	f.client = &http.Client{Transport: cache, Timeout: f.timeout}
	return f.client
}

// revalidateTransport marks every storable response as needing revalidation
// so the cache above it never answers a read without asking WordPress.
// Upstream max-age and Expires are ignored.
type revalidateTransport struct {
	next http.RoundTripper
}

func (t revalidateTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	resp.Header.Del("Expires")
	if !strings.Contains(strings.ToLower(resp.Header.Get("Cache-Control")), "no-store") {
		resp.Header.Set("Cache-Control", "no-cache")
	}
	return resp, nil
}
