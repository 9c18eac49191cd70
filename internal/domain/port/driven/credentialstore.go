package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/wppanel/internal/domain/model"
)

// ErrEncryptionKeyNotSet is returned by CredentialStore operations when
// WPPANEL_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set WPPANEL_SECRET_KEY")

// ErrNotConfigured is returned when no WordPress credential or analytics
// configuration has been stored yet.
var ErrNotConfigured = errors.New("not configured")

// CredentialStore defines the driven port for the single active WordPress
// credential. The adapter is responsible for at-rest encryption; this
// interface operates on plaintext values at the domain boundary.
type CredentialStore interface {
	// Get returns the active credential, or ErrNotConfigured when none exists.
	Get(ctx context.Context) (*model.WordPressCredential, error)

	// Replace atomically removes any existing credential and stores cred.
	// SiteURL is normalized before insert; the stored record is returned.
	// Reachability of the site is not checked here.
	Replace(ctx context.Context, cred model.WordPressCredential) (*model.WordPressCredential, error)
}

// AnalyticsConfigStore defines the driven port for the single analytics
// configuration record. It has the same replace-on-create lifecycle as
// CredentialStore.
type AnalyticsConfigStore interface {
	// Get returns the active configuration, or ErrNotConfigured.
	Get(ctx context.Context) (*model.AnalyticsConfig, error)

	// Replace atomically removes any existing configuration and stores cfg.
	Replace(ctx context.Context, cfg model.AnalyticsConfig) (*model.AnalyticsConfig, error)
}
