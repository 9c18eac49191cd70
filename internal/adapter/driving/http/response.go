package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ericfisherdev/wppanel/internal/application"
	"github.com/ericfisherdev/wppanel/internal/domain/model"
	"github.com/ericfisherdev/wppanel/internal/domain/port/driven"
)

// dataSourceHeader carries the analytics DataSource on list responses whose
// body is a bare JSON array.
const dataSourceHeader = "X-Data-Source"

// statusClientClosedRequest records a request abandoned by its client. The
// body is never read but the access log shows what happened.
const statusClientClosedRequest = 499

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeRaw writes an upstream JSON document unchanged.
func writeRaw(w http.ResponseWriter, status int, raw json.RawMessage) {
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeUpstreamError relays a WordPress error with its original status. A
// JSON body is passed through verbatim; anything else is wrapped.
func writeUpstreamError(w http.ResponseWriter, upstream *driven.UpstreamError) {
	if json.Valid([]byte(upstream.Body)) {
		writeRaw(w, upstream.StatusCode, json.RawMessage(upstream.Body))
		return
	}
	writeJSON(w, upstream.StatusCode, errorResponse{Error: "WordPress API error", Detail: upstream.Body})
}

// writeServiceError maps an application error onto an HTTP response. The
// order matters: ErrCreateFailed and ErrConnectionFailed wrap upstream errors
// and must win over the generic upstream passthrough.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	var upstream *driven.UpstreamError

	switch {
	case errors.Is(err, driven.ErrNotConfigured):
		writeError(w, http.StatusNotFound, "WordPress not configured")
	case errors.Is(err, application.ErrCreateFailed):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, application.ErrConnectionFailed):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &upstream):
		logger.Warn("upstream error", "op", op, "status", upstream.StatusCode)
		writeUpstreamError(w, upstream)
	case errors.Is(err, model.ErrInvalidSiteURL),
		errors.Is(err, application.ErrInvalidServiceAccount):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, driven.ErrEncryptionKeyNotSet):
		logger.Error("credential store unavailable", "op", op, "error", err)
		writeError(w, http.StatusServiceUnavailable, "credential encryption key not configured")
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("upstream timeout", "op", op, "error", err)
		writeError(w, http.StatusGatewayTimeout, "upstream request timed out")
	case errors.Is(err, context.Canceled):
		logger.Debug("request cancelled", "op", op)
		writeError(w, statusClientClosedRequest, "request cancelled")
	default:
		logger.Error("request failed", "op", op, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// MessageResponse is a one-line status body.
type MessageResponse struct {
	Message string `json:"message"`
}

// WordPressConfigResponse is the stored WordPress credential. The application
// password is never returned.
type WordPressConfigResponse struct {
	ID        string `json:"id"`
	SiteURL   string `json:"site_url"`
	Username  string `json:"username"`
	CreatedAt string `json:"created_at"`
}

// PostResponse is the JSON representation of a post.
type PostResponse struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	Status        string `json:"status"`
	Type          string `json:"type"`
	FeaturedMedia *int64 `json:"featured_media"`
	Date          string `json:"date"`
	Modified      string `json:"modified"`
	Link          string `json:"link"`
	Excerpt       string `json:"excerpt"`
}

// ProductResponse is the JSON representation of a product.
type ProductResponse struct {
	PostResponse
	ProductCat []int64 `json:"product_cat"`
	ProductTag []int64 `json:"product_tag"`
}

// EventResponse is the JSON representation of an event.
type EventResponse struct {
	PostResponse
	EventDate        *string `json:"event_date"`
	EventTime        *string `json:"event_time"`
	Venue            *string `json:"venue"`
	LocationDetail   *string `json:"location_detail"`
	DJ               *string `json:"dj"`
	Host             *string `json:"host"`
	GuestInfo        *string `json:"guest_info"`
	EventCategory    []int64 `json:"event_category"`
	FeaturedImageURL string  `json:"featured_image_url,omitempty"`
}

// PostTypesResponse lists the post types the site exposes.
type PostTypesResponse struct {
	AvailableTypes []string        `json:"available_types"`
	Details        json.RawMessage `json:"details"`
}

// EventsProbeResponse reports whether the active events endpoint answers.
type EventsProbeResponse struct {
	Policy     string `json:"policy"`
	Endpoint   string `json:"endpoint"`
	Reachable  bool   `json:"reachable"`
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
	Sample     int    `json:"sample_count"`
}

// AnalyticsConfigResponse is the stored analytics configuration.
type AnalyticsConfigResponse struct {
	ID                  string `json:"id"`
	PropertyID          string `json:"property_id"`
	CredentialsUploaded bool   `json:"credentials_uploaded"`
	CreatedAt           string `json:"created_at"`
}

// OverviewResponse is the analytics overview card.
type OverviewResponse struct {
	Sessions           int64  `json:"sessions"`
	TotalUsers         int64  `json:"total_users"`
	PageViews          int64  `json:"page_views"`
	BounceRate         string `json:"bounce_rate"`
	AvgSessionDuration string `json:"avg_session_duration"`
	Source             string `json:"source"`
}

// TopPageResponse is one row of the top pages report.
type TopPageResponse struct {
	Path      string `json:"path"`
	Title     string `json:"title"`
	PageViews int64  `json:"page_views"`
	Sessions  int64  `json:"sessions"`
}

// TrafficSourceResponse is one row of the traffic sources report.
type TrafficSourceResponse struct {
	SourceMedium string `json:"source_medium"`
	Sessions     int64  `json:"sessions"`
	Users        int64  `json:"users"`
	Percentage   string `json:"percentage"`
}

// DailyVisitorsResponse is one day of the daily visitors report.
type DailyVisitorsResponse struct {
	Date      string `json:"date"`
	Users     int64  `json:"users"`
	Sessions  int64  `json:"sessions"`
	PageViews int64  `json:"page_views"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

func toWordPressConfigResponse(cred model.WordPressCredential) WordPressConfigResponse {
	return WordPressConfigResponse{
		ID:        cred.ID,
		SiteURL:   cred.SiteURL,
		Username:  cred.Username,
		CreatedAt: formatTime(cred.CreatedAt),
	}
}

func toPostResponse(r model.Resource) PostResponse {
	return PostResponse{
		ID:            r.ID,
		Title:         r.Title,
		Content:       r.Content,
		Status:        string(r.Status),
		Type:          r.Type,
		FeaturedMedia: r.FeaturedMedia,
		Date:          r.Date,
		Modified:      r.Modified,
		Link:          r.Link,
		Excerpt:       r.Excerpt,
	}
}

func toProductResponse(p model.Product) ProductResponse {
	return ProductResponse{
		PostResponse: toPostResponse(p.Resource),
		ProductCat:   nonNil(p.Categories),
		ProductTag:   nonNil(p.Tags),
	}
}

func toEventResponse(e model.Event) EventResponse {
	return EventResponse{
		PostResponse:     toPostResponse(e.Resource),
		EventDate:        e.EventDate,
		EventTime:        e.EventTime,
		Venue:            e.Venue,
		LocationDetail:   e.LocationDetail,
		DJ:               e.DJ,
		Host:             e.Host,
		GuestInfo:        e.GuestInfo,
		EventCategory:    nonNil(e.EventCategories),
		FeaturedImageURL: e.FeaturedImageURL,
	}
}

func toAnalyticsConfigResponse(cfg model.AnalyticsConfig) AnalyticsConfigResponse {
	return AnalyticsConfigResponse{
		ID:                  cfg.ID,
		PropertyID:          cfg.PropertyID,
		CredentialsUploaded: cfg.CredentialsUploaded,
		CreatedAt:           formatTime(cfg.CreatedAt),
	}
}

func toOverviewResponse(m model.OverviewMetrics) OverviewResponse {
	return OverviewResponse{
		Sessions:           m.Sessions,
		TotalUsers:         m.TotalUsers,
		PageViews:          m.PageViews,
		BounceRate:         m.BounceRate,
		AvgSessionDuration: m.AvgSessionDuration,
		Source:             string(m.Source),
	}
}

func toTrafficSourceResponse(s model.TrafficSource) TrafficSourceResponse {
	return TrafficSourceResponse{
		SourceMedium: s.SourceMedium,
		Sessions:     s.Sessions,
		Users:        s.Users,
		Percentage:   strconv.FormatFloat(s.Percentage, 'f', 1, 64) + "%",
	}
}
