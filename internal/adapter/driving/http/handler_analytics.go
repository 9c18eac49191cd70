package httphandler

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/ericfisherdev/wppanel/internal/domain/model"
	"github.com/ericfisherdev/wppanel/internal/domain/port/driven"
)

const (
	maxCredentialsBody  = 64 << 10
	defaultTopPageLimit = 10
)

// GetAnalyticsConfig returns the stored analytics configuration.
func (h *Handler) GetAnalyticsConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.analytics.GetConfig(r.Context())
	if errors.Is(err, driven.ErrNotConfigured) {
		writeError(w, http.StatusNotFound, "analytics not configured")
		return
	}
	if err != nil {
		writeServiceError(w, h.logger, "get analytics config", err)
		return
	}

	writeJSON(w, http.StatusOK, toAnalyticsConfigResponse(*cfg))
}

// SaveAnalyticsConfig replaces the GA4 property id.
func (h *Handler) SaveAnalyticsConfig(w http.ResponseWriter, r *http.Request) {
	var req AnalyticsConfigRequest
	if !h.bind(w, r, &req) {
		return
	}

	cfg, err := h.analytics.Configure(r.Context(), req.PropertyID)
	if err != nil {
		writeServiceError(w, h.logger, "save analytics config", err)
		return
	}

	writeJSON(w, http.StatusOK, toAnalyticsConfigResponse(*cfg))
}

// UploadAnalyticsCredentials stores a service account key. The key is read
// from the "file" field of a multipart form or from a raw JSON body.
func (h *Handler) UploadAnalyticsCredentials(w http.ResponseWriter, r *http.Request) {
	key, err := readCredentials(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg, err := h.analytics.UploadCredentials(r.Context(), key)
	if errors.Is(err, driven.ErrNotConfigured) {
		writeError(w, http.StatusNotFound, "analytics not configured: save a property id first")
		return
	}
	if err != nil {
		writeServiceError(w, h.logger, "upload analytics credentials", err)
		return
	}

	writeJSON(w, http.StatusOK, toAnalyticsConfigResponse(*cfg))
}

func readCredentials(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCredentialsBody)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		key, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, errors.New("credentials body too large or unreadable")
		}
		if len(key) == 0 {
			return nil, errors.New("empty credentials body")
		}
		return key, nil
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, errors.New("missing credentials file")
	}
	defer file.Close()

	key, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.New("reading credentials file")
	}
	return key, nil
}

// AnalyticsOverview returns the summary card. Reporting failures degrade to
// demo numbers rather than an error status.
func (h *Handler) AnalyticsOverview(w http.ResponseWriter, r *http.Request) {
	reporter, err := h.analytics.Reporter(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, "analytics overview", err)
		return
	}

	overview := reporter.Overview(r.Context(), dateRangeParams(r))
	writeJSON(w, http.StatusOK, toOverviewResponse(overview))
}

// AnalyticsTopPages returns the most viewed pages.
func (h *Handler) AnalyticsTopPages(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", defaultTopPageLimit, 1, 100)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	reporter, err := h.analytics.Reporter(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, "analytics top pages", err)
		return
	}

	pages, source := reporter.TopPages(r.Context(), dateRangeParams(r), limit)

	resp := make([]TopPageResponse, 0, len(pages))
	for _, p := range pages {
		resp = append(resp, TopPageResponse(p))
	}
	writeSourced(w, source, resp)
}

// AnalyticsTrafficSources returns sessions by source and medium.
func (h *Handler) AnalyticsTrafficSources(w http.ResponseWriter, r *http.Request) {
	reporter, err := h.analytics.Reporter(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, "analytics traffic sources", err)
		return
	}

	sources, source := reporter.TrafficSources(r.Context(), dateRangeParams(r))

	resp := make([]TrafficSourceResponse, 0, len(sources))
	for _, s := range sources {
		resp = append(resp, toTrafficSourceResponse(s))
	}
	writeSourced(w, source, resp)
}

// AnalyticsDailyVisitors returns one row per day of the range.
func (h *Handler) AnalyticsDailyVisitors(w http.ResponseWriter, r *http.Request) {
	reporter, err := h.analytics.Reporter(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, "analytics daily visitors", err)
		return
	}

	days, source := reporter.DailyVisitors(r.Context(), dateRangeParams(r))

	resp := make([]DailyVisitorsResponse, 0, len(days))
	for _, d := range days {
		resp = append(resp, DailyVisitorsResponse(d))
	}
	writeSourced(w, source, resp)
}

func writeSourced(w http.ResponseWriter, source model.DataSource, v any) {
	w.Header().Set(dataSourceHeader, string(source))
	writeJSON(w, http.StatusOK, v)
}
