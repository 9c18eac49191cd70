package httphandler

import (
	"net/http"
)

// normalizer is implemented by request DTOs that sanitize their own fields
// before validation.
type normalizer interface {
	normalize()
}

// bind decodes, normalizes and validates a request body. It writes the error
// response and returns false when the body is unusable.
func (h *Handler) bind(w http.ResponseWriter, r *http.Request, req normalizer) bool {
	if err := decodeJSON(w, r, req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}

	req.normalize()

	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationMessage(err))
		return false
	}
	return true
}

// GetWordPressConfig returns the stored WordPress credential without its
// application password.
func (h *Handler) GetWordPressConfig(w http.ResponseWriter, r *http.Request) {
	cred, err := h.config.Get(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, "get wp-config", err)
		return
	}

	writeJSON(w, http.StatusOK, toWordPressConfigResponse(*cred))
}

// SaveWordPressConfig verifies a credential against the site and, on success,
// replaces the stored one.
func (h *Handler) SaveWordPressConfig(w http.ResponseWriter, r *http.Request) {
	var req WordPressConfigRequest
	if !h.bind(w, r, &req) {
		return
	}

	cred, err := h.config.Configure(r.Context(), req.toModel())
	if err != nil {
		writeServiceError(w, h.logger, "save wp-config", err)
		return
	}

	writeJSON(w, http.StatusOK, toWordPressConfigResponse(*cred))
}

// ListPosts returns one page of posts.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	posts, err := h.posts.List(r.Context(), page)
	if err != nil {
		writeServiceError(w, h.logger, "list posts", err)
		return
	}

	resp := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		resp = append(resp, toPostResponse(p.Resource))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetPost returns a single post.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	post, err := h.posts.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, "get post", err)
		return
	}

	writeJSON(w, http.StatusOK, toPostResponse(post.Resource))
}

// ListProducts returns one page of products.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	products, err := h.products.List(r.Context(), page)
	if err != nil {
		writeServiceError(w, h.logger, "list products", err)
		return
	}

	resp := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetProduct returns a single product.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := h.products.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, "get product", err)
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(product))
}

// CreateProduct creates a product. Status defaults to draft.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !h.bind(w, r, &req) {
		return
	}

	product, err := h.products.Create(r.Context(), req.toModel())
	if err != nil {
		writeServiceError(w, h.logger, "create product", err)
		return
	}

	writeJSON(w, http.StatusCreated, toProductResponse(product))
}

// UpdateProduct replaces the writable fields of a product.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req ProductRequest
	if !h.bind(w, r, &req) {
		return
	}

	product, err := h.products.Update(r.Context(), id, req.toModel())
	if err != nil {
		writeServiceError(w, h.logger, "update product", err)
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(product))
}

// DeleteProduct trashes a product, or removes it for good with ?force=true.
// The WordPress response is relayed unchanged.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	raw, err := h.products.Delete(r.Context(), id, forceParam(r))
	if err != nil {
		writeServiceError(w, h.logger, "delete product", err)
		return
	}

	writeRaw(w, http.StatusOK, raw)
}

// ListEvents returns one page of events from the active events endpoint.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	events, err := h.events.List(r.Context(), page)
	if err != nil {
		writeServiceError(w, h.logger, "list events", err)
		return
	}

	resp := make([]EventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, toEventResponse(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetEvent returns a single event.
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	event, err := h.events.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, "get event", err)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponse(event))
}

// CreateEvent publishes a new event.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if !h.bind(w, r, &req) {
		return
	}

	event, err := h.events.Create(r.Context(), req.toModel())
	if err != nil {
		writeServiceError(w, h.logger, "create event", err)
		return
	}

	writeJSON(w, http.StatusCreated, toEventResponse(event))
}

// UpdateEvent replaces the writable fields of an event.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req EventRequest
	if !h.bind(w, r, &req) {
		return
	}

	event, err := h.events.Update(r.Context(), id, req.toModel())
	if err != nil {
		writeServiceError(w, h.logger, "update event", err)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponse(event))
}

// DeleteEvent trashes an event, or removes it for good with ?force=true.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	raw, err := h.events.Delete(r.Context(), id, forceParam(r))
	if err != nil {
		writeServiceError(w, h.logger, "delete event", err)
		return
	}

	writeRaw(w, http.StatusOK, raw)
}

// SiteInfo relays the WordPress namespace root document.
func (h *Handler) SiteInfo(w http.ResponseWriter, r *http.Request) {
	raw, err := h.site.SiteInfo(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, "site info", err)
		return
	}

	writeRaw(w, http.StatusOK, raw)
}

// TestConnection checks that the stored credential can read posts.
func (h *Handler) TestConnection(w http.ResponseWriter, r *http.Request) {
	if err := h.site.TestConnection(r.Context()); err != nil {
		writeServiceError(w, h.logger, "test connection", err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}{Status: "connected", Message: "WordPress connection successful"})
}

// TestEvents probes the active events endpoint. Upstream failures are
// reported in the body with a 200 status.
func (h *Handler) TestEvents(w http.ResponseWriter, r *http.Request) {
	probe, err := h.site.TestEvents(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, "test events", err)
		return
	}

	writeJSON(w, http.StatusOK, EventsProbeResponse{
		Policy:     probe.Policy,
		Endpoint:   probe.Endpoint,
		Reachable:  probe.Reachable,
		StatusCode: probe.StatusCode,
		Error:      probe.Error,
		Sample:     probe.Sample,
	})
}

// PostTypes lists the content types registered on the site.
func (h *Handler) PostTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.site.PostTypes(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, "post types", err)
		return
	}

	available := types.Available
	if available == nil {
		available = []string{}
	}
	writeJSON(w, http.StatusOK, PostTypesResponse{AvailableTypes: available, Details: types.Details})
}
