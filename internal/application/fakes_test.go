package application

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/ericfisherdev/wppanel/internal/domain/model"
	"github.com/ericfisherdev/wppanel/internal/domain/port/driven"
)

// --- fakeCredentialStore ---

type fakeCredentialStore struct {
	mu       sync.Mutex
	cred     *model.WordPressCredential
	getErr   error
	replaced int
}

func (f *fakeCredentialStore) Get(_ context.Context) (*model.WordPressCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.cred == nil {
		return nil, driven.ErrNotConfigured
	}
	c := *f.cred
	return &c, nil
}

func (f *fakeCredentialStore) Replace(_ context.Context, cred model.WordPressCredential) (*model.WordPressCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	normalized, err := model.NormalizeSiteURL(cred.SiteURL)
	if err != nil {
		return nil, err
	}
	cred.SiteURL = normalized
	cred.ID = fmt.Sprintf("cred-%d", f.replaced+1)
	f.cred = &cred
	f.replaced++
	c := cred
	return &c, nil
}

// --- fakeAnalyticsStore ---

type fakeAnalyticsStore struct {
	mu  sync.Mutex
	cfg *model.AnalyticsConfig
	n   int
}

func (f *fakeAnalyticsStore) Get(_ context.Context) (*model.AnalyticsConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cfg == nil {
		return nil, driven.ErrNotConfigured
	}
	c := *f.cfg
	return &c, nil
}

func (f *fakeAnalyticsStore) Replace(_ context.Context, cfg model.AnalyticsConfig) (*model.AnalyticsConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	cfg.ID = fmt.Sprintf("cfg-%d", f.n)
	f.cfg = &cfg
	c := cfg
	return &c, nil
}

// --- fakeWordPressClient ---

// fakeCall records one request made to fakeWordPressClient.
type fakeCall struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// fakeResponse is the canned result for a method+path key.
type fakeResponse struct {
	body string
	err  error
}

// fakeWordPressClient answers from a table keyed by "METHOD path". Unknown
// keys answer with a 404 UpstreamError.
type fakeWordPressClient struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	calls     []fakeCall
}

func newFakeWordPressClient() *fakeWordPressClient {
	return &fakeWordPressClient{responses: map[string]fakeResponse{}}
}

func (f *fakeWordPressClient) on(method, path, body string) *fakeWordPressClient {
	f.responses[method+" "+path] = fakeResponse{body: body}
	return f
}

func (f *fakeWordPressClient) fail(method, path string, err error) *fakeWordPressClient {
	f.responses[method+" "+path] = fakeResponse{err: err}
	return f
}

func (f *fakeWordPressClient) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.Method+" "+c.Path)
	}
	return out
}

func (f *fakeWordPressClient) lastCall() fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func (f *fakeWordPressClient) do(method, path string, query url.Values, body any) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fakeCall{Method: method, Path: path, Query: query, Body: body})

	resp, ok := f.responses[method+" "+path]
	if !ok {
		return nil, &driven.UpstreamError{StatusCode: 404, Body: `{"code":"rest_no_route"}`}
	}
	if resp.err != nil {
		return nil, resp.err
	}
	return json.RawMessage(resp.body), nil
}

func (f *fakeWordPressClient) Get(_ context.Context, path string, query url.Values) (json.RawMessage, error) {
	return f.do("GET", path, query, nil)
}

func (f *fakeWordPressClient) Post(_ context.Context, path string, body any) (json.RawMessage, error) {
	return f.do("POST", path, nil, body)
}

func (f *fakeWordPressClient) Put(_ context.Context, path string, body any) (json.RawMessage, error) {
	return f.do("PUT", path, nil, body)
}

func (f *fakeWordPressClient) Delete(_ context.Context, path string, query url.Values) (json.RawMessage, error) {
	return f.do("DELETE", path, query, nil)
}

// providerFor returns a provider whose store holds a credential and whose
// factory always hands out client.
func providerFor(client driven.WordPressClient) *WordPressClientProvider {
	store := &fakeCredentialStore{cred: &model.WordPressCredential{
		ID:          "cred-1",
		SiteURL:     "https://example.com",
		Username:    "admin",
		AppPassword: "secret-app-password",
	}}
	return NewWordPressClientProvider(store, func(model.WordPressCredential) driven.WordPressClient {
		return client
	})
}
