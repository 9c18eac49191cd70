package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/wppanel/internal/adapter/driven/secretbox"
	"github.com/ericfisherdev/wppanel/internal/domain/model"
	"github.com/ericfisherdev/wppanel/internal/domain/port/driven"
)

var _ driven.CredentialStore = (*CredentialRepo)(nil)

type credentialDoc struct {
	ID          string    `bson:"_id"`
	RecordID    string    `bson:"id"`
	SiteURL     string    `bson:"site_url"`
	Username    string    `bson:"username"`
	AppPassword string    `bson:"app_password"`
	CreatedAt   time.Time `bson:"created_at"`
}

// CredentialRepo is the MongoDB implementation of the CredentialStore port.
// The application password is sealed with the same box as the SQLite store.
type CredentialRepo struct {
	store *Store
	box   secretbox.Box
}

// NewCredentialRepo creates a new CredentialRepo.
func NewCredentialRepo(store *Store, box secretbox.Box) *CredentialRepo {
	return &CredentialRepo{store: store, box: box}
}

// Get returns the active credential or driven.ErrNotConfigured.
func (r *CredentialRepo) Get(ctx context.Context) (*model.WordPressCredential, error) {
	var doc credentialDoc
	found, err := r.store.findActive(ctx, credentialCollection, &doc)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, driven.ErrNotConfigured
	}

	password, err := r.box.Open(doc.AppPassword)
	if err != nil {
		return nil, fmt.Errorf("decrypt wordpress credential: %w", err)
	}

	return &model.WordPressCredential{
		ID:          doc.RecordID,
		SiteURL:     doc.SiteURL,
		Username:    doc.Username,
		AppPassword: password,
		CreatedAt:   doc.CreatedAt.UTC(),
	}, nil
}

// Replace stores cred as the only credential document.
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
		// BSON dates carry millisecond precision.
		cred.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}

	sealed, err := r.box.Seal(cred.AppPassword)
	if err != nil {
		return nil, err
	}

	doc := credentialDoc{
		ID:          activeID,
		RecordID:    cred.ID,
		SiteURL:     cred.SiteURL,
		Username:    cred.Username,
		AppPassword: sealed,
		CreatedAt:   cred.CreatedAt,
	}
	if err := r.store.replaceActive(ctx, credentialCollection, doc); err != nil {
		return nil, err
	}

	return &cred, nil
}
