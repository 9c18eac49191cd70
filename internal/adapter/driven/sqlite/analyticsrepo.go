package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/wppanel/internal/domain/model"
	"github.com/ericfisherdev/wppanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AnalyticsConfigStore = (*AnalyticsRepo)(nil)

// AnalyticsRepo is the SQLite implementation of the AnalyticsConfigStore port.
type AnalyticsRepo struct {
	db *DB
}

// NewAnalyticsRepo creates a new AnalyticsRepo.
func NewAnalyticsRepo(db *DB) *AnalyticsRepo {
	return &AnalyticsRepo{db: db}
}

// Get returns the stored analytics configuration or driven.ErrNotConfigured.
func (r *AnalyticsRepo) Get(ctx context.Context) (*model.AnalyticsConfig, error) {
	const query = `SELECT id, property_id, credentials_uploaded, created_at FROM analytics_config LIMIT 1`

	var (
		cfg       model.AnalyticsConfig
		uploaded  int
		createdAt string
	)
	err := r.db.Reader.QueryRowContext(ctx, query).Scan(&cfg.ID, &cfg.PropertyID, &uploaded, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, driven.ErrNotConfigured
	}
	if err != nil {
		return nil, fmt.Errorf("get analytics config: %w", err)
	}

	cfg.CredentialsUploaded = uploaded != 0
	cfg.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at for analytics config: %w", err)
	}

	return &cfg, nil
}

// Replace deletes any existing analytics configuration and inserts cfg.
func (r *AnalyticsRepo) Replace(ctx context.Context, cfg model.AnalyticsConfig) (*model.AnalyticsConfig, error) {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = time.Now().UTC()
	}

	uploaded := 0
	if cfg.CredentialsUploaded {
		uploaded = 1
	}

	const insert = `INSERT INTO analytics_config (id, property_id, credentials_uploaded, created_at) VALUES (?, ?, ?, ?)`
	if err := r.db.replaceRow(ctx, "analytics_config", insert,
		cfg.ID, cfg.PropertyID, uploaded, formatTime(cfg.CreatedAt),
	); err != nil {
		return nil, fmt.Errorf("replace analytics config: %w", err)
	}

	return &cfg, nil
}
