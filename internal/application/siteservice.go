package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"

	"github.com/ericfisherdev/wppanel/internal/domain/port/driven"
)

// PostTypes lists the content types registered on the site.
type PostTypes struct {
	Available []string
	Details   json.RawMessage
}

// EventsProbe reports whether the active events endpoint answers.
type EventsProbe struct {
	Policy     string
	Endpoint   string
	Reachable  bool
	StatusCode int    // Upstream status on failure, 0 for transport errors.
	Error      string // Empty when reachable.
	Sample     int    // Records returned by a one-item page.
}

// SiteService exposes site-level diagnostics.
type SiteService struct {
	clients  *WordPressClientProvider
	resolver EventResolver
	logger   *slog.Logger
}

// NewSiteService creates a SiteService.
func NewSiteService(clients *WordPressClientProvider, resolver EventResolver, logger *slog.Logger) *SiteService {
	return &SiteService{
		clients:  clients,
		resolver: resolver,
		logger:   logger,
	}
}

// SiteInfo returns the wp/v2 namespace index unchanged.
func (s *SiteService) SiteInfo(ctx context.Context) (json.RawMessage, error) {
	client, err := s.clients.Get(ctx)
	if err != nil {
		return nil, err
	}
	return client.Get(ctx, "", nil)
}

// TestConnection re-runs the posts handshake with the stored credential.
func (s *SiteService) TestConnection(ctx context.Context) error {
	client, err := s.clients.Get(ctx)
	if err != nil {
		return err
	}
	if _, err := client.Get(ctx, "posts", url.Values{"per_page": {"1"}}); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return nil
}

// PostTypes returns the registered post type slugs, sorted, together with
// the raw type descriptions.
func (s *SiteService) PostTypes(ctx context.Context) (*PostTypes, error) {
	client, err := s.clients.Get(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := client.Get(ctx, "types", nil)
	if err != nil {
		return nil, err
	}

	var types map[string]json.RawMessage
	if err := json.Unmarshal(raw, &types); err != nil {
		return nil, fmt.Errorf("decoding post types: %w", err)
	}

	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	slices.Sort(names)

	return &PostTypes{Available: names, Details: raw}, nil
}

// TestEvents probes the resolver's primary endpoint with a one-item page.
// Upstream failures are reported in the probe, not returned as errors.
func (s *SiteService) TestEvents(ctx context.Context) (*EventsProbe, error) {
	client, err := s.clients.Get(ctx)
	if err != nil {
		return nil, err
	}

	probe := &EventsProbe{
		Policy:   string(s.resolver.Policy()),
		Endpoint: s.resolver.Endpoint(),
	}

	raw, err := client.Get(ctx, probe.Endpoint, url.Values{"per_page": {"1"}})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var upstream *driven.UpstreamError
		if errors.As(err, &upstream) {
			probe.StatusCode = upstream.StatusCode
		}
		probe.Error = err.Error()
		s.logger.Warn("events endpoint probe failed", "endpoint", probe.Endpoint, "error", err)
		return probe, nil
	}

	probe.Reachable = true
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) == nil {
		probe.Sample = len(items)
	}
	return probe, nil
}
