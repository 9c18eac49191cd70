package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/ericfisherdev/wppanel/internal/domain/model"
	"github.com/ericfisherdev/wppanel/internal/domain/port/driven"
)

// ErrConnectionFailed is returned when the WordPress handshake fails. The
// candidate credential is not persisted.
var ErrConnectionFailed = errors.New("connection to WordPress failed")

// ConfigService manages the stored WordPress credential.
type ConfigService struct {
	store   driven.CredentialStore
	clients *WordPressClientProvider
	logger  *slog.Logger
}

// NewConfigService creates a ConfigService.
func NewConfigService(store driven.CredentialStore, clients *WordPressClientProvider, logger *slog.Logger) *ConfigService {
	return &ConfigService{
		store:   store,
		clients: clients,
		logger:  logger,
	}
}

// Get returns the stored credential or driven.ErrNotConfigured.
func (s *ConfigService) Get(ctx context.Context) (*model.WordPressCredential, error) {
	return s.store.Get(ctx)
}

// Configure verifies that candidate can read posts from the site and then
// replaces the stored credential with it.
func (s *ConfigService) Configure(ctx context.Context, candidate model.WordPressCredential) (*model.WordPressCredential, error) {
	siteURL, err := model.NormalizeSiteURL(candidate.SiteURL)
	if err != nil {
		return nil, err
	}
	candidate.SiteURL = siteURL

	if err := s.handshake(ctx, candidate); err != nil {
		s.logger.Warn("wordpress handshake failed", "site_url", siteURL, "username", candidate.Username, "error", err)
		return nil, err
	}

	stored, err := s.store.Replace(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("storing wordpress credential: %w", err)
	}

	s.logger.Info("wordpress credential replaced", "site_url", stored.SiteURL, "username", stored.Username)
	return stored, nil
}

func (s *ConfigService) handshake(ctx context.Context, cred model.WordPressCredential) error {
	client := s.clients.NewClient(cred)
	if _, err := client.Get(ctx, "posts", url.Values{"per_page": {"1"}}); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return nil
}
