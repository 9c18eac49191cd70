package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	analyticsadapter "github.com/ericfisherdev/wppanel/internal/adapter/driven/analytics"
	mongoadapter "github.com/ericfisherdev/wppanel/internal/adapter/driven/mongo"
	"github.com/ericfisherdev/wppanel/internal/adapter/driven/secretbox"
	sqliteadapter "github.com/ericfisherdev/wppanel/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/wppanel/internal/adapter/driven/wordpress"
	httphandler "github.com/ericfisherdev/wppanel/internal/adapter/driving/http"
	"github.com/ericfisherdev/wppanel/internal/application"
	"github.com/ericfisherdev/wppanel/internal/config"
	"github.com/ericfisherdev/wppanel/internal/domain/model"
	"github.com/ericfisherdev/wppanel/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on malformed env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"store", cfg.Store,
		"events_policy", cfg.EventsPolicy,
		"events_slug", cfg.EventsSlug,
		"upstream_timeout", cfg.UpstreamTimeout,
		"encryption", cfg.HasSecretKey(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open the configuration store.
	box, err := secretbox.New(cfg.SecretKey)
	if err != nil {
		return fmt.Errorf("create secret box: %w", err)
	}
	if !cfg.HasSecretKey() {
		slog.Warn("WPPANEL_SECRET_KEY not set, WordPress credentials cannot be stored")
	}

	stores, err := openStores(ctx, cfg, box)
	if err != nil {
		return err
	}
	defer stores.close()

	// 4. Wire the WordPress client and application services.
	factory := wordpress.NewClientFactory(nil, cfg.UpstreamTimeout, slog.Default())
	clients := application.NewWordPressClientProvider(stores.credentials, func(cred model.WordPressCredential) driven.WordPressClient {
		return factory.New(cred)
	})

	resolver, err := application.NewEventResolver(cfg.EventsPolicy, cfg.EventsSlug, slog.Default())
	if err != nil {
		return err
	}

	runnerFactory := func(ctx context.Context, credentialsPath string) (driven.ReportRunner, error) {
		if credentialsPath == "" {
			return nil, errors.New("no service account credentials uploaded")
		}
		return analyticsadapter.NewRunner(ctx, credentialsPath)
	}

	services := httphandler.Services{
		Config:    application.NewConfigService(stores.credentials, clients, slog.Default()),
		Posts:     application.NewPostService(clients),
		Products:  application.NewProductService(clients, slog.Default()),
		Events:    application.NewEventService(clients, resolver),
		Site:      application.NewSiteService(clients, resolver, slog.Default()),
		Analytics: application.NewAnalyticsService(stores.analytics, runnerFactory, cfg.GACredentialsPath, slog.Default()),
	}

	// 5. Create HTTP handler with middleware.
	apiHandler := httphandler.NewHandler(services, slog.Default())
	handler := httphandler.NewServeMux(apiHandler, httphandler.Options{
		CORSOrigins: cfg.CORSOrigins,
		RateLimit:   cfg.RateLimit,
	}, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.UpstreamTimeout*4 + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
			stop()
		}
	}()

	// 6. Log startup complete.
	slog.Info("wppanel started", "listen_addr", cfg.ListenAddr)

	// 7. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 8. Graceful shutdown with 10s timeout for in-flight proxy requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// stores holds the configuration store adapters selected by WPPANEL_STORE.
type stores struct {
	credentials driven.CredentialStore
	analytics   driven.AnalyticsConfigStore
	close       func()
}

func openStores(ctx context.Context, cfg *config.Config, box secretbox.Box) (*stores, error) {
	switch cfg.Store {
	case config.StoreMongo:
		store, err := mongoadapter.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		slog.Info("mongo connected", "database", cfg.MongoDatabase)

		return &stores{
			credentials: mongoadapter.NewCredentialRepo(store, box),
			analytics:   mongoadapter.NewAnalyticsRepo(store),
			close: func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := store.Close(closeCtx); err != nil {
					slog.Error("error closing mongo", "error", err)
				}
			},
		}, nil

	default:
		// Dual reader/writer with WAL mode.
		db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
		if err != nil {
			return nil, err
		}
		slog.Info("database opened", "path", cfg.DBPath)

		version, err := sqliteadapter.RunMigrations(db.Writer)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		slog.Info("migrations complete", "version", version)

		return &stores{
			credentials: sqliteadapter.NewCredentialRepo(db, box),
			analytics:   sqliteadapter.NewAnalyticsRepo(db),
			close: func() {
				if err := db.Close(); err != nil {
					slog.Error("error closing database", "error", err)
				}
			},
		}, nil
	}
}
