package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/url"
	"strconv"
	"strings"

	"github.com/ericfisherdev/wppanel/internal/domain/model"
	"github.com/ericfisherdev/wppanel/internal/domain/port/driven"
	"github.com/ericfisherdev/wppanel/internal/metrics"
)

// ErrCreateFailed is returned when every event creation strategy failed.
var ErrCreateFailed = errors.New("failed to create event")

// errNoEventCategory marks the category lookup step as failed when no
// category matches.
var errNoEventCategory = errors.New("no category matching \"event\"")

// EventResolver decides which WordPress endpoint(s) hold event data. It
// returns raw upstream JSON; translation happens in EventService.
type EventResolver interface {
	// Policy names the resolution policy.
	Policy() model.EventsPolicy
	// Endpoint is the primary events collection, used for probing.
	Endpoint() string
	List(ctx context.Context, c driven.WordPressClient, page model.Page) (json.RawMessage, error)
	Get(ctx context.Context, c driven.WordPressClient, id int64) (json.RawMessage, error)
	Create(ctx context.Context, c driven.WordPressClient, body map[string]any) (json.RawMessage, error)
	Update(ctx context.Context, c driven.WordPressClient, id int64, body map[string]any) (json.RawMessage, error)
	Delete(ctx context.Context, c driven.WordPressClient, id int64, query url.Values) (json.RawMessage, error)
}

// NewEventResolver constructs the resolver for policy. Exactly one policy is
// active per process.
func NewEventResolver(policy model.EventsPolicy, slug string, logger *slog.Logger) (EventResolver, error) {
	switch policy {
	case model.EventsPolicyFixed, "":
		if slug == "" {
			return nil, errors.New("events slug must not be empty")
		}
		return &FixedEventEndpoint{Slug: slug}, nil
	case model.EventsPolicyFallback:
		return NewFallbackEventChain(logger), nil
	default:
		return nil, fmt.Errorf("unknown events policy %q", policy)
	}
}

// --- strategies ---

// strategy is one attempt at an events operation.
type strategy struct {
	name string
	run  func(ctx context.Context, c driven.WordPressClient) (json.RawMessage, error)
}

// firstSuccess runs steps strictly in order and returns the result of the
// first one that succeeds. Failures before the last step are logged and
// swallowed; if every step fails the last error is returned. A cancelled
// context stops the chain.
func firstSuccess(ctx context.Context, logger *slog.Logger, c driven.WordPressClient, steps []strategy) (json.RawMessage, error) {
	var lastErr error
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := step.run(ctx, c)
		metrics.RecordEventStrategy(step.name, err)
		if err == nil {
			logger.Debug("event strategy succeeded", "strategy", step.name)
			return result, nil
		}

		logger.Warn("event strategy failed", "strategy", step.name, "error", err)
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no strategies configured")
	}
	return nil, lastErr
}

func pageQuery(page model.Page) url.Values {
	return url.Values{
		"page":     {strconv.Itoa(page.Number)},
		"per_page": {strconv.Itoa(page.PerPage)},
	}
}

// requireArray rejects successful responses that are not collections, such
// as a site returning its HTML front page under a JSON route.
func requireArray(raw json.RawMessage) error {
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "[") {
		return errors.New("response is not a list")
	}
	return nil
}

func listStep(name, endpoint string, query url.Values) strategy {
	return strategy{
		name: name,
		run: func(ctx context.Context, c driven.WordPressClient) (json.RawMessage, error) {
			raw, err := c.Get(ctx, endpoint, query)
			if err != nil {
				return nil, err
			}
			if err := requireArray(raw); err != nil {
				return nil, fmt.Errorf("listing %s: %w", endpoint, err)
			}
			return raw, nil
		},
	}
}

type categoryRef struct {
	ID int64 `json:"id"`
}

func findEventCategories(ctx context.Context, c driven.WordPressClient) ([]categoryRef, error) {
	raw, err := c.Get(ctx, "categories", url.Values{"search": {"event"}})
	if err != nil {
		return nil, err
	}
	var cats []categoryRef
	if err := json.Unmarshal(raw, &cats); err != nil {
		return nil, fmt.Errorf("decoding categories: %w", err)
	}
	return cats, nil
}

func categoryPostsStep(page model.Page) strategy {
	return strategy{
		name: "event-categories",
		run: func(ctx context.Context, c driven.WordPressClient) (json.RawMessage, error) {
			cats, err := findEventCategories(ctx, c)
			if err != nil {
				return nil, err
			}
			if len(cats) == 0 {
				return nil, errNoEventCategory
			}

			ids := make([]string, 0, len(cats))
			for _, cat := range cats {
				ids = append(ids, strconv.FormatInt(cat.ID, 10))
			}
			query := pageQuery(page)
			query.Set("categories", strings.Join(ids, ","))

			raw, err := c.Get(ctx, "posts", query)
			if err != nil {
				return nil, err
			}
			if err := requireArray(raw); err != nil {
				return nil, fmt.Errorf("listing category posts: %w", err)
			}
			return raw, nil
		},
	}
}

func createStep(name, endpoint string, body map[string]any) strategy {
	return strategy{
		name: name,
		run: func(ctx context.Context, c driven.WordPressClient) (json.RawMessage, error) {
			return c.Post(ctx, endpoint, body)
		},
	}
}

// categoryPostStep creates the event as a generic post filed under an event
// category, creating an "Events" category when none exists.
func categoryPostStep(body map[string]any) strategy {
	return strategy{
		name: "category-post",
		run: func(ctx context.Context, c driven.WordPressClient) (json.RawMessage, error) {
			cats, err := findEventCategories(ctx, c)
			if err != nil {
				return nil, err
			}

			var categoryID int64
			if len(cats) > 0 {
				categoryID = cats[0].ID
			} else {
				raw, err := c.Post(ctx, "categories", map[string]any{"name": "Events", "slug": "events"})
				if err != nil {
					return nil, fmt.Errorf("creating events category: %w", err)
				}
				var created categoryRef
				if err := json.Unmarshal(raw, &created); err != nil {
					return nil, fmt.Errorf("decoding created category: %w", err)
				}
				categoryID = created.ID
			}

			postBody := maps.Clone(body)
			postBody["categories"] = []int64{categoryID}
			return c.Post(ctx, "posts", postBody)
		},
	}
}

// byIDSteps applies op to {endpoint}/{id} for each candidate endpoint.
func byIDSteps(id int64, op func(ctx context.Context, c driven.WordPressClient, path string) (json.RawMessage, error)) []strategy {
	endpoints := []string{"events", "event", "posts"}
	steps := make([]strategy, 0, len(endpoints))
	for _, endpoint := range endpoints {
		path := endpoint + "/" + strconv.FormatInt(id, 10)
		steps = append(steps, strategy{
			name: endpoint,
			run: func(ctx context.Context, c driven.WordPressClient) (json.RawMessage, error) {
				return op(ctx, c, path)
			},
		})
	}
	return steps
}

// --- FixedEventEndpoint ---

// FixedEventEndpoint targets a single custom post type slug. Every operation
// is one upstream call and errors are returned unchanged.
type FixedEventEndpoint struct {
	Slug string
}

var _ EventResolver = (*FixedEventEndpoint)(nil)

func (f *FixedEventEndpoint) Policy() model.EventsPolicy { return model.EventsPolicyFixed }

func (f *FixedEventEndpoint) Endpoint() string { return f.Slug }

func (f *FixedEventEndpoint) itemPath(id int64) string {
	return f.Slug + "/" + strconv.FormatInt(id, 10)
}

func (f *FixedEventEndpoint) List(ctx context.Context, c driven.WordPressClient, page model.Page) (json.RawMessage, error) {
	raw, err := c.Get(ctx, f.Slug, pageQuery(page))
	metrics.RecordEventStrategy(f.Slug, err)
	return raw, err
}

func (f *FixedEventEndpoint) Get(ctx context.Context, c driven.WordPressClient, id int64) (json.RawMessage, error) {
	raw, err := c.Get(ctx, f.itemPath(id), nil)
	metrics.RecordEventStrategy(f.Slug, err)
	return raw, err
}

func (f *FixedEventEndpoint) Create(ctx context.Context, c driven.WordPressClient, body map[string]any) (json.RawMessage, error) {
	raw, err := c.Post(ctx, f.Slug, body)
	metrics.RecordEventStrategy(f.Slug, err)
	return raw, err
}

func (f *FixedEventEndpoint) Update(ctx context.Context, c driven.WordPressClient, id int64, body map[string]any) (json.RawMessage, error) {
	raw, err := c.Put(ctx, f.itemPath(id), body)
	metrics.RecordEventStrategy(f.Slug, err)
	return raw, err
}

func (f *FixedEventEndpoint) Delete(ctx context.Context, c driven.WordPressClient, id int64, query url.Values) (json.RawMessage, error) {
	raw, err := c.Delete(ctx, f.itemPath(id), query)
	metrics.RecordEventStrategy(f.Slug, err)
	return raw, err
}

// --- FallbackEventChain ---

// FallbackEventChain probes candidate endpoints in a fixed order for sites
// whose event post type is unknown at deploy time.
//
// Reads: events, event, posts in an "event" category, posts matching the
// search "event"; if all fail the result is an empty list.
// Create: events, event, then a generic post in an event category.
// Get, update and delete by id: events, event, posts.
type FallbackEventChain struct {
	logger *slog.Logger
}

var _ EventResolver = (*FallbackEventChain)(nil)

// NewFallbackEventChain creates the compatibility resolver.
func NewFallbackEventChain(logger *slog.Logger) *FallbackEventChain {
	return &FallbackEventChain{logger: logger}
}

func (f *FallbackEventChain) Policy() model.EventsPolicy { return model.EventsPolicyFallback }

func (f *FallbackEventChain) Endpoint() string { return "events" }

func (f *FallbackEventChain) log() *slog.Logger {
	if f.logger == nil {
		return slog.Default()
	}
	return f.logger
}

// listStrategies returns the ordered read strategies for page.
func (f *FallbackEventChain) listStrategies(page model.Page) []strategy {
	search := pageQuery(page)
	search.Set("search", "event")

	return []strategy{
		listStep("events", "events", pageQuery(page)),
		listStep("event", "event", pageQuery(page)),
		categoryPostsStep(page),
		listStep("event-search", "posts", search),
	}
}

func (f *FallbackEventChain) List(ctx context.Context, c driven.WordPressClient, page model.Page) (json.RawMessage, error) {
	raw, err := firstSuccess(ctx, f.log(), c, f.listStrategies(page))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		f.log().Warn("all event read strategies failed, returning empty list", "error", err)
		return json.RawMessage("[]"), nil
	}
	return raw, nil
}

func (f *FallbackEventChain) Get(ctx context.Context, c driven.WordPressClient, id int64) (json.RawMessage, error) {
	return firstSuccess(ctx, f.log(), c, byIDSteps(id, func(ctx context.Context, c driven.WordPressClient, path string) (json.RawMessage, error) {
		return c.Get(ctx, path, nil)
	}))
}

func (f *FallbackEventChain) Create(ctx context.Context, c driven.WordPressClient, body map[string]any) (json.RawMessage, error) {
	steps := []strategy{
		createStep("events", "events", body),
		createStep("event", "event", body),
		categoryPostStep(body),
	}

	raw, err := firstSuccess(ctx, f.log(), c, steps)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", ErrCreateFailed, err)
	}
	return raw, nil
}

func (f *FallbackEventChain) Update(ctx context.Context, c driven.WordPressClient, id int64, body map[string]any) (json.RawMessage, error) {
	return firstSuccess(ctx, f.log(), c, byIDSteps(id, func(ctx context.Context, c driven.WordPressClient, path string) (json.RawMessage, error) {
		return c.Put(ctx, path, body)
	}))
}

func (f *FallbackEventChain) Delete(ctx context.Context, c driven.WordPressClient, id int64, query url.Values) (json.RawMessage, error) {
	return firstSuccess(ctx, f.log(), c, byIDSteps(id, func(ctx context.Context, c driven.WordPressClient, path string) (json.RawMessage, error) {
		return c.Delete(ctx, path, query)
	}))
}
