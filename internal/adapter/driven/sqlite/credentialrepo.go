package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/wppanel/internal/adapter/driven/secretbox"
	"github.com/ericfisherdev/wppanel/internal/domain/model"
	"github.com/ericfisherdev/wppanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the CredentialStore port.
// The application password is encrypted with AES-256-GCM before write and
// decrypted after read; the wp_config table never holds more than one row.
type CredentialRepo struct {
	db  *DB
	box secretbox.Box
}

// NewCredentialRepo creates a new CredentialRepo. A box without a key disables
// credential storage: Replace and reads of a stored row return
// driven.ErrEncryptionKeyNotSet.
func NewCredentialRepo(db *DB, box secretbox.Box) *CredentialRepo {
	return &CredentialRepo{db: db, box: box}
}

// Get returns the stored credential or driven.ErrNotConfigured.
func (r *CredentialRepo) Get(ctx context.Context) (*model.WordPressCredential, error) {
	const query = `SELECT id, site_url, username, app_password, created_at FROM wp_config LIMIT 1`

	var (
		cred      model.WordPressCredential
		sealed    string
		createdAt string
	)
	err := r.db.Reader.QueryRowContext(ctx, query).Scan(&cred.ID, &cred.SiteURL, &cred.Username, &sealed, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, driven.ErrNotConfigured
	}
	if err != nil {
		return nil, fmt.Errorf("get wordpress credential: %w", err)
	}

	cred.AppPassword, err = r.box.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("decrypt wordpress credential: %w", err)
	}

	cred.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at for wordpress credential: %w", err)
	}

	return &cred, nil
}

// Replace deletes any existing credential and inserts cred with a normalized
// site URL, in one transaction.
func (r *CredentialRepo) Replace(ctx context.Context, cred model.WordPressCredential) (*model.WordPressCredential, error) {
	siteURL, err := model.NormalizeSiteURL(cred.SiteURL)
	if err != nil {
		return nil, err
	}
	cred.SiteURL = siteURL

	if cred.ID == "" {
		cred.ID = uuid.NewString()
	}
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now().UTC()
	}

	sealed, err := r.box.Seal(cred.AppPassword)
	if err != nil {
		return nil, err
	}

	const insert = `INSERT INTO wp_config (id, site_url, username, app_password, created_at) VALUES (?, ?, ?, ?, ?)`
	if err := r.db.replaceRow(ctx, "wp_config", insert,
		cred.ID, cred.SiteURL, cred.Username, sealed, formatTime(cred.CreatedAt),
	); err != nil {
		return nil, fmt.Errorf("replace wordpress credential: %w", err)
	}

	return &cred, nil
}
