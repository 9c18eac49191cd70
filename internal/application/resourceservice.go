package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/ericfisherdev/wppanel/internal/domain/model"
)

func deleteQuery(force bool) url.Values {
	if !force {
		return nil
	}
	return url.Values{"force": {"true"}}
}

func itemPath(endpoint string, id int64) string {
	return endpoint + "/" + strconv.FormatInt(id, 10)
}

// PostService reads standard WordPress posts.
type PostService struct {
	clients    *WordPressClientProvider
	translator PostTranslator
}

// NewPostService creates a PostService.
func NewPostService(clients *WordPressClientProvider) *PostService {
	return &PostService{clients: clients}
}

// List returns one page of posts.
func (s *PostService) List(ctx context.Context, page model.Page) ([]model.Post, error) {
	client, err := s.clients.Get(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := client.Get(ctx, s.translator.Endpoint(), pageQuery(page))
	if err != nil {
		return nil, err
	}
	return FromUpstreamList[model.Post](s.translator, raw)
}

// Get returns one post by its WordPress id.
func (s *PostService) Get(ctx context.Context, id int64) (model.Post, error) {
	client, err := s.clients.Get(ctx)
	if err != nil {
		return model.Post{}, err
	}

	raw, err := client.Get(ctx, itemPath(s.translator.Endpoint(), id), nil)
	if err != nil {
		return model.Post{}, err
	}
	return s.translator.FromUpstream(raw)
}

// ProductService manages WooCommerce products through the wp/v2 "product"
// route.
type ProductService struct {
	clients    *WordPressClientProvider
	translator ProductTranslator
}

// NewProductService creates a ProductService.
func NewProductService(clients *WordPressClientProvider, logger *slog.Logger) *ProductService {
	return &ProductService{
		clients:    clients,
		translator: ProductTranslator{Logger: logger},
	}
}

func (s *ProductService) List(ctx context.Context, page model.Page) ([]model.Product, error) {
	client, err := s.clients.Get(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := client.Get(ctx, s.translator.Endpoint(), pageQuery(page))
	if err != nil {
		return nil, err
	}
	return FromUpstreamList[model.Product](s.translator, raw)
}

func (s *ProductService) Get(ctx context.Context, id int64) (model.Product, error) {
	client, err := s.clients.Get(ctx)
	if err != nil {
		return model.Product{}, err
	}

	raw, err := client.Get(ctx, itemPath(s.translator.Endpoint(), id), nil)
	if err != nil {
		return model.Product{}, err
	}
	return s.translator.FromUpstream(raw)
}

func (s *ProductService) Create(ctx context.Context, in model.ProductInput) (model.Product, error) {
	client, err := s.clients.Get(ctx)
	if err != nil {
		return model.Product{}, err
	}

	raw, err := client.Post(ctx, s.translator.Endpoint(), s.translator.ToUpstream(in))
	if err != nil {
		return model.Product{}, err
	}
	return s.translator.FromUpstream(raw)
}

func (s *ProductService) Update(ctx context.Context, id int64, in model.ProductInput) (model.Product, error) {
	client, err := s.clients.Get(ctx)
	if err != nil {
		return model.Product{}, err
	}

	raw, err := client.Put(ctx, itemPath(s.translator.Endpoint(), id), s.translator.ToUpstream(in))
	if err != nil {
		return model.Product{}, err
	}
	return s.translator.FromUpstream(raw)
}

// Delete trashes the product, or removes it permanently when force is set.
// The upstream response is returned as-is.
func (s *ProductService) Delete(ctx context.Context, id int64, force bool) (json.RawMessage, error) {
	client, err := s.clients.Get(ctx)
	if err != nil {
		return nil, err
	}
	return client.Delete(ctx, itemPath(s.translator.Endpoint(), id), deleteQuery(force))
}

// EventService manages events through the configured EventResolver.
type EventService struct {
	clients    *WordPressClientProvider
	resolver   EventResolver
	translator EventTranslator
}

// NewEventService creates an EventService that reaches events through
// resolver.
func NewEventService(clients *WordPressClientProvider, resolver EventResolver) *EventService {
	return &EventService{
		clients:    clients,
		resolver:   resolver,
		translator: EventTranslator{Slug: resolver.Endpoint()},
	}
}

// Resolver returns the active resolution policy.
func (s *EventService) Resolver() EventResolver {
	return s.resolver
}

func (s *EventService) List(ctx context.Context, page model.Page) ([]model.Event, error) {
	client, err := s.clients.Get(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := s.resolver.List(ctx, client, page)
	if err != nil {
		return nil, err
	}
	return FromUpstreamList[model.Event](s.translator, raw)
}

func (s *EventService) Get(ctx context.Context, id int64) (model.Event, error) {
	client, err := s.clients.Get(ctx)
	if err != nil {
		return model.Event{}, err
	}

	raw, err := s.resolver.Get(ctx, client, id)
	if err != nil {
		return model.Event{}, err
	}
	return s.translator.FromUpstream(raw)
}

func (s *EventService) Create(ctx context.Context, in model.EventInput) (model.Event, error) {
	client, err := s.clients.Get(ctx)
	if err != nil {
		return model.Event{}, err
	}

	raw, err := s.resolver.Create(ctx, client, s.translator.ToUpstream(in))
	if err != nil {
		return model.Event{}, err
	}
	event, err := s.translator.FromUpstream(raw)
	if err != nil {
		return model.Event{}, fmt.Errorf("event created but response unreadable: %w", err)
	}
	return event, nil
}

func (s *EventService) Update(ctx context.Context, id int64, in model.EventInput) (model.Event, error) {
	client, err := s.clients.Get(ctx)
	if err != nil {
		return model.Event{}, err
	}

	raw, err := s.resolver.Update(ctx, client, id, s.translator.ToUpstream(in))
	if err != nil {
		return model.Event{}, err
	}
	return s.translator.FromUpstream(raw)
}

// Delete trashes the event, or removes it permanently when force is set.
func (s *EventService) Delete(ctx context.Context, id int64, force bool) (json.RawMessage, error) {
	client, err := s.clients.Get(ctx)
	if err != nil {
		return nil, err
	}
	return s.resolver.Delete(ctx, client, id, deleteQuery(force))
}
