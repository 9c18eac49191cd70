package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/ericfisherdev/wppanel/internal/domain/model"
	"github.com/ericfisherdev/wppanel/internal/domain/port/driven"
)

// ErrInvalidServiceAccount is returned when uploaded credentials are not a
// Google service account key.
var ErrInvalidServiceAccount = errors.New("invalid service account key")

// AnalyticsService resolves the stored analytics configuration into a
// reporter. The reporter is rebuilt only when the stored configuration is
// replaced.
type AnalyticsService struct {
	store           driven.AnalyticsConfigStore
	factory         RunnerFactory
	credentialsPath string
	logger          *slog.Logger

	mu       sync.Mutex
	cachedID string
	reporter *AnalyticsReporter
	demo     *AnalyticsReporter
}

// NewAnalyticsService creates an AnalyticsService. Uploaded service account
// keys are written to credentialsPath.
func NewAnalyticsService(store driven.AnalyticsConfigStore, factory RunnerFactory, credentialsPath string, logger *slog.Logger) *AnalyticsService {
	return &AnalyticsService{
		store:           store,
		factory:         factory,
		credentialsPath: credentialsPath,
		logger:          logger,
		demo:            NewDemoReporter(logger),
	}
}

// GetConfig returns the stored configuration or driven.ErrNotConfigured.
func (s *AnalyticsService) GetConfig(ctx context.Context) (*model.AnalyticsConfig, error) {
	return s.store.Get(ctx)
}

// Configure replaces the analytics configuration with propertyID. The
// credentials flag reflects whether a key file is already on disk.
func (s *AnalyticsService) Configure(ctx context.Context, propertyID string) (*model.AnalyticsConfig, error) {
	cfg, err := s.store.Replace(ctx, model.AnalyticsConfig{
		PropertyID:          propertyID,
		CredentialsUploaded: s.credentialsPresent(),
	})
	if err != nil {
		return nil, fmt.Errorf("storing analytics config: %w", err)
	}
	s.logger.Info("analytics config replaced", "property_id", cfg.PropertyID, "credentials_uploaded", cfg.CredentialsUploaded)
	return cfg, nil
}

// UploadCredentials stores a service account key and marks the active
// configuration as having credentials. A configuration must exist first.
func (s *AnalyticsService) UploadCredentials(ctx context.Context, key []byte) (*model.AnalyticsConfig, error) {
	if err := validateServiceAccount(key); err != nil {
		return nil, err
	}

	current, err := s.store.Get(ctx)
	if err != nil {
		return nil, err
	}

	if err := writeFileAtomic(s.credentialsPath, key, 0o600); err != nil {
		return nil, fmt.Errorf("writing analytics credentials: %w", err)
	}

	cfg, err := s.store.Replace(ctx, model.AnalyticsConfig{
		PropertyID:          current.PropertyID,
		CredentialsUploaded: true,
	})
	if err != nil {
		return nil, fmt.Errorf("storing analytics config: %w", err)
	}
	s.logger.Info("analytics credentials uploaded", "property_id", cfg.PropertyID)
	return cfg, nil
}

// Reporter returns the reporter for the stored configuration, or the demo
// reporter when none is stored.
func (s *AnalyticsService) Reporter(ctx context.Context) (*AnalyticsReporter, error) {
	cfg, err := s.store.Get(ctx)
	if errors.Is(err, driven.ErrNotConfigured) {
		return s.demo, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading analytics config: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reporter != nil && s.cachedID == cfg.ID {
		return s.reporter, nil
	}

	path := ""
	if cfg.CredentialsUploaded {
		path = s.credentialsPath
	}
	// The runner outlives this request; its token source must not inherit
	// the request's cancellation.
	s.reporter = NewAnalyticsReporter(context.WithoutCancel(ctx), cfg.PropertyID, path, s.factory, s.logger)
	s.cachedID = cfg.ID
	return s.reporter, nil
}

func (s *AnalyticsService) credentialsPresent() bool {
	info, err := os.Stat(s.credentialsPath)
	return err == nil && info.Mode().IsRegular()
}

func validateServiceAccount(key []byte) error {
	var sa struct {
		Type        string `json:"type"`
		ClientEmail string `json:"client_email"`
		PrivateKey  string `json:"private_key"`
	}
	if err := json.Unmarshal(key, &sa); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidServiceAccount, err)
	}
	if sa.Type != "service_account" || sa.ClientEmail == "" || sa.PrivateKey == "" {
		return fmt.Errorf("%w: type, client_email and private_key are required", ErrInvalidServiceAccount)
	}
	return nil
}

// writeFileAtomic writes data to a temp file in the same directory and
// renames it over path.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".ga-credentials-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
