package httphandler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ericfisherdev/wppanel/internal/application"
)

// Services groups the application services the REST API delegates to.
type Services struct {
	Config    *application.ConfigService
	Posts     *application.PostService
	Products  *application.ProductService
	Events    *application.EventService
	Site      *application.SiteService
	Analytics *application.AnalyticsService
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	config    *application.ConfigService
	posts     *application.PostService
	products  *application.ProductService
	events    *application.EventService
	site      *application.SiteService
	analytics *application.AnalyticsService
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(svc Services, logger *slog.Logger) *Handler {
	return &Handler{
		config:    svc.Config,
		posts:     svc.Posts,
		products:  svc.Products,
		events:    svc.Events,
		site:      svc.Site,
		analytics: svc.Analytics,
		validate:  newValidator(),
		logger:    logger,
	}
}

// Options configures the cross-cutting middleware around the API.
type Options struct {
	CORSOrigins []string
	// RateLimit is the number of requests allowed per client IP per minute.
	// Zero disables limiting.
	RateLimit int
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with recovery, logging, rate limiting and CORS middleware.
func NewServeMux(h *Handler, opts Options, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/{$}", h.Root)
	mux.HandleFunc("GET /api/health", h.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/wp-config", h.GetWordPressConfig)
	mux.HandleFunc("POST /api/wp-config", h.SaveWordPressConfig)

	mux.HandleFunc("GET /api/posts", h.ListPosts)
	mux.HandleFunc("GET /api/posts/{id}", h.GetPost)

	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("POST /api/products", h.CreateProduct)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)
	mux.HandleFunc("PUT /api/products/{id}", h.UpdateProduct)
	mux.HandleFunc("DELETE /api/products/{id}", h.DeleteProduct)

	mux.HandleFunc("GET /api/events", h.ListEvents)
	mux.HandleFunc("POST /api/events", h.CreateEvent)
	mux.HandleFunc("GET /api/events/{id}", h.GetEvent)
	mux.HandleFunc("PUT /api/events/{id}", h.UpdateEvent)
	mux.HandleFunc("DELETE /api/events/{id}", h.DeleteEvent)

	mux.HandleFunc("GET /api/site-info", h.SiteInfo)
	mux.HandleFunc("GET /api/test-connection", h.TestConnection)
	mux.HandleFunc("GET /api/test-events", h.TestEvents)
	mux.HandleFunc("GET /api/post-types", h.PostTypes)

	mux.HandleFunc("GET /api/analytics/config", h.GetAnalyticsConfig)
	mux.HandleFunc("POST /api/analytics/config", h.SaveAnalyticsConfig)
	mux.HandleFunc("POST /api/analytics/credentials", h.UploadAnalyticsCredentials)
	mux.HandleFunc("GET /api/analytics/overview", h.AnalyticsOverview)
	mux.HandleFunc("GET /api/analytics/top-pages", h.AnalyticsTopPages)
	mux.HandleFunc("GET /api/analytics/traffic-sources", h.AnalyticsTrafficSources)
	mux.HandleFunc("GET /api/analytics/daily-visitors", h.AnalyticsDailyVisitors)

	// Recovery innermost so panics are caught before logging; CORS outermost
	// so preflight requests are answered without counting against the limit.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)
	wrapped = rateLimitMiddleware(opts.RateLimit, wrapped)
	wrapped = corsMiddleware(opts.CORSOrigins, wrapped)

	return wrapped
}

// Root identifies the API.
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, MessageResponse{Message: "WordPress Management API"})
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
