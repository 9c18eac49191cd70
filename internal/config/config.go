// Package config loads application configuration from environment variables.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ericfisherdev/wppanel/internal/domain/model"
)

// Store backends selectable with WPPANEL_STORE.
const (
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr        string
	Store             string
	DBPath            string
	MongoURI          string
	MongoDatabase     string
	SecretKey         []byte // nil when WPPANEL_SECRET_KEY is unset.
	EventsPolicy      model.EventsPolicy
	EventsSlug        string
	UpstreamTimeout   time.Duration
	CORSOrigins       []string
	RateLimit         int // Requests per minute per client IP; 0 disables.
	GACredentialsPath string
}

// HasSecretKey reports whether at-rest encryption of the application
// password is available.
func (c *Config) HasSecretKey() bool {
	return len(c.SecretKey) > 0
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; variables already set in the
// environment take precedence over it.
//
// Optional variables with defaults: WPPANEL_LISTEN_ADDR (127.0.0.1:8080),
// WPPANEL_STORE (sqlite), WPPANEL_DB_PATH (wppanel.db), WPPANEL_MONGO_DATABASE
// (wppanel), WPPANEL_EVENTS_POLICY (fixed), WPPANEL_EVENTS_SLUG (eventi),
// WPPANEL_UPSTREAM_TIMEOUT (15s), WPPANEL_CORS_ORIGINS (*),
// WPPANEL_RATE_LIMIT (120), WPPANEL_GA_CREDENTIALS_PATH (ga-credentials.json).
// WPPANEL_MONGO_URI is required when WPPANEL_STORE=mongo.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &Config{
		ListenAddr:        envOr("WPPANEL_LISTEN_ADDR", "127.0.0.1:8080"),
		Store:             strings.ToLower(envOr("WPPANEL_STORE", StoreSQLite)),
		DBPath:            envOr("WPPANEL_DB_PATH", "wppanel.db"),
		MongoURI:          os.Getenv("WPPANEL_MONGO_URI"),
		MongoDatabase:     envOr("WPPANEL_MONGO_DATABASE", "wppanel"),
		EventsPolicy:      model.EventsPolicy(strings.ToLower(envOr("WPPANEL_EVENTS_POLICY", string(model.EventsPolicyFixed)))),
		EventsSlug:        strings.Trim(envOr("WPPANEL_EVENTS_SLUG", "eventi"), "/ "),
		UpstreamTimeout:   15 * time.Second,
		CORSOrigins:       []string{"*"},
		RateLimit:         120,
		GACredentialsPath: envOr("WPPANEL_GA_CREDENTIALS_PATH", "ga-credentials.json"),
	}

	switch cfg.Store {
	case StoreSQLite:
	case StoreMongo:
		if cfg.MongoURI == "" {
			return nil, errors.New("WPPANEL_MONGO_URI is required when WPPANEL_STORE is mongo")
		}
	default:
		return nil, fmt.Errorf("WPPANEL_STORE has invalid value %q: want sqlite or mongo", cfg.Store)
	}

	switch cfg.EventsPolicy {
	case model.EventsPolicyFixed, model.EventsPolicyFallback:
	default:
		return nil, fmt.Errorf("WPPANEL_EVENTS_POLICY has invalid value %q: want fixed or fallback", cfg.EventsPolicy)
	}
	if cfg.EventsSlug == "" {
		return nil, errors.New("WPPANEL_EVENTS_SLUG must not be empty")
	}

	if v, ok := os.LookupEnv("WPPANEL_SECRET_KEY"); ok && v != "" {
		key, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("WPPANEL_SECRET_KEY is not valid base64: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("WPPANEL_SECRET_KEY must decode to 32 bytes, got %d", len(key))
		}
		cfg.SecretKey = key
	}

	if v, ok := os.LookupEnv("WPPANEL_UPSTREAM_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("WPPANEL_UPSTREAM_TIMEOUT has invalid duration %q: %w", v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("WPPANEL_UPSTREAM_TIMEOUT must be positive, got %s", parsed)
		}
		cfg.UpstreamTimeout = parsed
	}

	if v, ok := os.LookupEnv("WPPANEL_CORS_ORIGINS"); ok && v != "" {
		var origins []string
		for _, origin := range strings.Split(v, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				origins = append(origins, origin)
			}
		}
		if len(origins) > 0 {
			cfg.CORSOrigins = origins
		}
	}

	if v, ok := os.LookupEnv("WPPANEL_RATE_LIMIT"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("WPPANEL_RATE_LIMIT has invalid value %q: want a non-negative integer", v)
		}
		cfg.RateLimit = parsed
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
