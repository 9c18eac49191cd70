package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/wppanel/internal/domain/model"
	"github.com/ericfisherdev/wppanel/internal/domain/port/driven"
)

var _ driven.AnalyticsConfigStore = (*AnalyticsRepo)(nil)

type analyticsDoc struct {
	ID                  string    `bson:"_id"`
	RecordID            string    `bson:"id"`
	PropertyID          string    `bson:"property_id"`
	CredentialsUploaded bool      `bson:"credentials_uploaded"`
	CreatedAt           time.Time `bson:"created_at"`
}

// AnalyticsRepo is the MongoDB implementation of the AnalyticsConfigStore port.
type AnalyticsRepo struct {
	store *Store
}

// NewAnalyticsRepo creates a new AnalyticsRepo.
func NewAnalyticsRepo(store *Store) *AnalyticsRepo {
	return &AnalyticsRepo{store: store}
}

// Get returns the active analytics configuration or driven.ErrNotConfigured.
func (r *AnalyticsRepo) Get(ctx context.Context) (*model.AnalyticsConfig, error) {
	var doc analyticsDoc
	found, err := r.store.findActive(ctx, analyticsCollection, &doc)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, driven.ErrNotConfigured
	}

	return &model.AnalyticsConfig{
		ID:                  doc.RecordID,
		PropertyID:          doc.PropertyID,
		CredentialsUploaded: doc.CredentialsUploaded,
		CreatedAt:           doc.CreatedAt.UTC(),
	}, nil
}

// Replace stores cfg as the only analytics configuration document.
func (r *AnalyticsRepo) Replace(ctx context.Context, cfg model.AnalyticsConfig) (*model.AnalyticsConfig, error) {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}

	doc := analyticsDoc{
		ID:                  activeID,
		RecordID:            cfg.ID,
		PropertyID:          cfg.PropertyID,
		CredentialsUploaded: cfg.CredentialsUploaded,
		CreatedAt:           cfg.CreatedAt,
	}
	if err := r.store.replaceActive(ctx, analyticsCollection, doc); err != nil {
		return nil, err
	}

	return &cfg, nil
}
