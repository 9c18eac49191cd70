package application

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/wppanel/internal/domain/model"
	"github.com/ericfisherdev/wppanel/internal/domain/port/driven"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewEventResolver(t *testing.T) {
	fixed, err := NewEventResolver(model.EventsPolicyFixed, "eventi", discardLogger())
	require.NoError(t, err)
	assert.Equal(t, model.EventsPolicyFixed, fixed.Policy())
	assert.Equal(t, "eventi", fixed.Endpoint())

	fallback, err := NewEventResolver(model.EventsPolicyFallback, "eventi", discardLogger())
	require.NoError(t, err)
	assert.Equal(t, model.EventsPolicyFallback, fallback.Policy())

	_, err = NewEventResolver("probe-everything", "eventi", discardLogger())
	require.Error(t, err)

	_, err = NewEventResolver(model.EventsPolicyFixed, "", discardLogger())
	require.Error(t, err)
}

func TestFirstSuccess_StopsAtFirstSuccess(t *testing.T) {
	// For every k, steps before k fail and step k succeeds: exactly k
	// attempts run, in order, and step k's result is returned.
	const total = 4
	for k := 1; k <= total; k++ {
		var attempted []int
		steps := make([]strategy, 0, total)
		for i := 1; i <= total; i++ {
			steps = append(steps, strategy{
				name: "step",
				run: func(context.Context, driven.WordPressClient) (json.RawMessage, error) {
					attempted = append(attempted, i)
					if i < k {
						return nil, errors.New("fail")
					}
					return json.RawMessage(`"result"`), nil
				},
			})
		}

		got, err := firstSuccess(context.Background(), discardLogger(), nil, steps)
		require.NoError(t, err)
		assert.Equal(t, `"result"`, string(got))

		want := make([]int, 0, k)
		for i := 1; i <= k; i++ {
			want = append(want, i)
		}
		assert.Equal(t, want, attempted, "k=%d", k)
	}
}

func TestFirstSuccess_ReturnsLastError(t *testing.T) {
	last := errors.New("last")
	steps := []strategy{
		{name: "a", run: func(context.Context, driven.WordPressClient) (json.RawMessage, error) { return nil, errors.New("first") }},
		{name: "b", run: func(context.Context, driven.WordPressClient) (json.RawMessage, error) { return nil, last }},
	}

	_, err := firstSuccess(context.Background(), discardLogger(), nil, steps)
	assert.ErrorIs(t, err, last)
}

func TestFirstSuccess_CancelledContextStopsChain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	steps := []strategy{
		{name: "a", run: func(context.Context, driven.WordPressClient) (json.RawMessage, error) {
			calls++
			cancel()
			return nil, context.Canceled
		}},
		{name: "b", run: func(context.Context, driven.WordPressClient) (json.RawMessage, error) {
			calls++
			return json.RawMessage(`[]`), nil
		}},
	}

	_, err := firstSuccess(ctx, discardLogger(), nil, steps)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

// --- FixedEventEndpoint ---

func TestFixedEventEndpoint_List(t *testing.T) {
	client := newFakeWordPressClient().on("GET", "eventi", `[{"id":1}]`)
	resolver := &FixedEventEndpoint{Slug: "eventi"}

	raw, err := resolver.List(context.Background(), client, model.Page{Number: 2, PerPage: 5})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1}]`, string(raw))

	call := client.lastCall()
	assert.Equal(t, "2", call.Query.Get("page"))
	assert.Equal(t, "5", call.Query.Get("per_page"))
}

func TestFixedEventEndpoint_CreateSurfacesUpstreamErrorWithoutFallback(t *testing.T) {
	client := newFakeWordPressClient()
	resolver := &FixedEventEndpoint{Slug: "eventi"}

	_, err := resolver.Create(context.Background(), client, map[string]any{"title": "Night"})
	require.Error(t, err)

	var upstream *driven.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, 404, upstream.StatusCode)
	assert.Equal(t, `{"code":"rest_no_route"}`, upstream.Body)
	assert.NotErrorIs(t, err, ErrCreateFailed)
	assert.Equal(t, []string{"POST eventi"}, client.paths())
}

func TestFixedEventEndpoint_ByIDPaths(t *testing.T) {
	client := newFakeWordPressClient().
		on("GET", "eventi/9", `{"id":9}`).
		on("PUT", "eventi/9", `{"id":9}`).
		on("DELETE", "eventi/9", `{"deleted":true}`)
	resolver := &FixedEventEndpoint{Slug: "eventi"}
	ctx := context.Background()

	_, err := resolver.Get(ctx, client, 9)
	require.NoError(t, err)
	_, err = resolver.Update(ctx, client, 9, map[string]any{})
	require.NoError(t, err)
	_, err = resolver.Delete(ctx, client, 9, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"GET eventi/9", "PUT eventi/9", "DELETE eventi/9"}, client.paths())
}

// --- FallbackEventChain ---

func TestFallbackEventChain_List(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(*fakeWordPressClient)
		wantPaths []string
		wantBody  string
	}{
		{
			name:      "events endpoint succeeds",
			setup:     func(c *fakeWordPressClient) { c.on("GET", "events", `[{"id":1}]`) },
			wantPaths: []string{"GET events"},
			wantBody:  `[{"id":1}]`,
		},
		{
			name:      "singular endpoint succeeds",
			setup:     func(c *fakeWordPressClient) { c.on("GET", "event", `[{"id":2}]`) },
			wantPaths: []string{"GET events", "GET event"},
			wantBody:  `[{"id":2}]`,
		},
		{
			name: "category posts succeed",
			setup: func(c *fakeWordPressClient) {
				c.on("GET", "categories", `[{"id":4},{"id":7}]`)
				c.on("GET", "posts", `[{"id":3}]`)
			},
			wantPaths: []string{"GET events", "GET event", "GET categories", "GET posts"},
			wantBody:  `[{"id":3}]`,
		},
		{
			name: "no matching category falls through to search",
			setup: func(c *fakeWordPressClient) {
				c.on("GET", "categories", `[]`)
				c.on("GET", "posts", `[{"id":5}]`)
			},
			wantPaths: []string{"GET events", "GET event", "GET categories", "GET posts"},
			wantBody:  `[{"id":5}]`,
		},
		{
			name:      "non-list response counts as failure",
			setup:     func(c *fakeWordPressClient) { c.on("GET", "events", `{"id":1}`).on("GET", "event", `[]`) },
			wantPaths: []string{"GET events", "GET event"},
			wantBody:  `[]`,
		},
		{
			name: "everything fails yields empty list",
			setup: func(c *fakeWordPressClient) {
				c.fail("GET", "categories", errors.New("timeout"))
			},
			wantPaths: []string{"GET events", "GET event", "GET categories", "GET posts"},
			wantBody:  `[]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeWordPressClient()
			tt.setup(client)
			chain := NewFallbackEventChain(discardLogger())

			raw, err := chain.List(context.Background(), client, model.DefaultPage)
			require.NoError(t, err)
			assert.JSONEq(t, tt.wantBody, string(raw))
			assert.Equal(t, tt.wantPaths, client.paths())
		})
	}
}

func TestFallbackEventChain_ListQueries(t *testing.T) {
	client := newFakeWordPressClient().
		on("GET", "categories", `[{"id":4},{"id":7}]`).
		on("GET", "posts", `[]`)
	chain := NewFallbackEventChain(discardLogger())

	_, err := chain.List(context.Background(), client, model.Page{Number: 3, PerPage: 20})
	require.NoError(t, err)

	call := client.lastCall()
	assert.Equal(t, "4,7", call.Query.Get("categories"))
	assert.Equal(t, "3", call.Query.Get("page"))
	assert.Equal(t, "20", call.Query.Get("per_page"))
}

func TestFallbackEventChain_SearchStepQuery(t *testing.T) {
	client := newFakeWordPressClient().on("GET", "categories", `[]`)
	client.on("GET", "posts", `[]`)
	chain := NewFallbackEventChain(discardLogger())

	_, err := chain.List(context.Background(), client, model.DefaultPage)
	require.NoError(t, err)
	assert.Equal(t, "event", client.lastCall().Query.Get("search"))
}

func TestFallbackEventChain_ListCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFallbackEventChain(discardLogger()).List(ctx, newFakeWordPressClient(), model.DefaultPage)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFallbackEventChain_Create(t *testing.T) {
	body := map[string]any{"title": "Night", "status": "publish"}

	t.Run("events endpoint", func(t *testing.T) {
		client := newFakeWordPressClient().on("POST", "events", `{"id":1}`)
		raw, err := NewFallbackEventChain(discardLogger()).Create(context.Background(), client, body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":1}`, string(raw))
		assert.Equal(t, []string{"POST events"}, client.paths())
	})

	t.Run("reuses existing category", func(t *testing.T) {
		client := newFakeWordPressClient().
			on("GET", "categories", `[{"id":12},{"id":13}]`).
			on("POST", "posts", `{"id":99}`)

		raw, err := NewFallbackEventChain(discardLogger()).Create(context.Background(), client, body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":99}`, string(raw))
		assert.Equal(t, []string{"POST events", "POST event", "GET categories", "POST posts"}, client.paths())

		sent := client.lastCall().Body.(map[string]any)
		assert.Equal(t, []int64{12}, sent["categories"])
		_, mutated := body["categories"]
		assert.False(t, mutated, "caller body must not be modified")
	})

	t.Run("creates events category", func(t *testing.T) {
		client := newFakeWordPressClient().
			on("GET", "categories", `[]`).
			on("POST", "categories", `{"id":50,"name":"Events"}`).
			on("POST", "posts", `{"id":100}`)

		_, err := NewFallbackEventChain(discardLogger()).Create(context.Background(), client, body)
		require.NoError(t, err)
		assert.Equal(t, []string{"POST events", "POST event", "GET categories", "POST categories", "POST posts"}, client.paths())
		assert.Equal(t, []int64{50}, client.lastCall().Body.(map[string]any)["categories"])
	})

	t.Run("all strategies fail", func(t *testing.T) {
		lastErr := &driven.UpstreamError{StatusCode: 403, Body: "forbidden"}
		client := newFakeWordPressClient().
			on("GET", "categories", `[{"id":12}]`).
			fail("POST", "posts", lastErr)

		_, err := NewFallbackEventChain(discardLogger()).Create(context.Background(), client, body)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCreateFailed)

		var upstream *driven.UpstreamError
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, 403, upstream.StatusCode)
	})
}

func TestFallbackEventChain_ByID(t *testing.T) {
	t.Run("falls back to posts", func(t *testing.T) {
		client := newFakeWordPressClient().on("GET", "posts/5", `{"id":5}`)
		raw, err := NewFallbackEventChain(discardLogger()).Get(context.Background(), client, 5)
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":5}`, string(raw))
		assert.Equal(t, []string{"GET events/5", "GET event/5", "GET posts/5"}, client.paths())
	})

	t.Run("update stops at singular endpoint", func(t *testing.T) {
		client := newFakeWordPressClient().on("PUT", "event/5", `{"id":5}`)
		_, err := NewFallbackEventChain(discardLogger()).Update(context.Background(), client, 5, map[string]any{})
		require.NoError(t, err)
		assert.Equal(t, []string{"PUT events/5", "PUT event/5"}, client.paths())
	})

	t.Run("delete surfaces last error", func(t *testing.T) {
		lastErr := &driven.UpstreamError{StatusCode: 410, Body: "gone"}
		client := newFakeWordPressClient().fail("DELETE", "posts/5", lastErr)
		_, err := NewFallbackEventChain(discardLogger()).Delete(context.Background(), client, 5, nil)
		assert.ErrorIs(t, err, lastErr)
	})
}
