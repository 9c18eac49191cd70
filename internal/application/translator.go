package application

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/wppanel/internal/domain/model"
)

// Decoder maps one upstream WordPress record onto a domain record.
type Decoder[R any] interface {
	// Endpoint is the wp/v2 collection the resource lives under.
	Endpoint() string
	FromUpstream(raw json.RawMessage) (R, error)
}

// Translator is a Decoder that can also encode the writable field set In
// into the body WordPress expects on create and update.
type Translator[R, In any] interface {
	Decoder[R]
	ToUpstream(in In) map[string]any
}

// FromUpstreamList decodes a JSON array of upstream records with d.
func FromUpstreamList[R any](d Decoder[R], raw json.RawMessage) ([]R, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decoding %s list: %w", d.Endpoint(), err)
	}

	out := make([]R, 0, len(items))
	for i, item := range items {
		rec, err := d.FromUpstream(item)
		if err != nil {
			return nil, fmt.Errorf("decoding %s item %d: %w", d.Endpoint(), i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// rendered accepts WordPress's {"rendered": "..."} wrapper as well as a bare
// string, which is what create/update bodies carry.
type rendered string

func (r *rendered) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = rendered(s)
		return nil
	}

	var wrapped struct {
		Rendered string `json:"rendered"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return fmt.Errorf("decoding rendered field: %w", err)
	}
	*r = rendered(wrapped.Rendered)
	return nil
}

// upstreamResource is the subset of a wp/v2 post object shared by every kind.
type upstreamResource struct {
	ID            int64    `json:"id"`
	Title         rendered `json:"title"`
	Content       rendered `json:"content"`
	Excerpt       rendered `json:"excerpt"`
	Status        string   `json:"status"`
	Type          string   `json:"type"`
	FeaturedMedia int64    `json:"featured_media"`
	Date          string   `json:"date"`
	Modified      string   `json:"modified"`
	Link          string   `json:"link"`
}

func (u upstreamResource) toModel(defaultType string) model.Resource {
	res := model.Resource{
		ID:       u.ID,
		Title:    string(u.Title),
		Content:  string(u.Content),
		Excerpt:  string(u.Excerpt),
		Status:   model.PostStatus(u.Status),
		Type:     u.Type,
		Date:     u.Date,
		Modified: u.Modified,
		Link:     u.Link,
	}
	if res.Type == "" {
		res.Type = defaultType
	}
	// WordPress reports 0 when no featured image is attached.
	if u.FeaturedMedia != 0 {
		media := u.FeaturedMedia
		res.FeaturedMedia = &media
	}
	return res
}

func nonNilIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

// PostTranslator decodes standard posts. Posts are read-only in the proxy.
type PostTranslator struct{}

var _ Decoder[model.Post] = PostTranslator{}

func (PostTranslator) Endpoint() string { return "posts" }

func (PostTranslator) FromUpstream(raw json.RawMessage) (model.Post, error) {
	var u upstreamResource
	if err := json.Unmarshal(raw, &u); err != nil {
		return model.Post{}, fmt.Errorf("decoding post: %w", err)
	}
	return model.Post{Resource: u.toModel("post")}, nil
}

// ProductTranslator maps WooCommerce products exposed on the wp/v2 "product"
// route.
type ProductTranslator struct {
	Logger *slog.Logger
}

var _ Translator[model.Product, model.ProductInput] = ProductTranslator{}

func (ProductTranslator) Endpoint() string { return "product" }

func (ProductTranslator) FromUpstream(raw json.RawMessage) (model.Product, error) {
	var u struct {
		upstreamResource
		Categories []int64 `json:"product_cat"`
		Tags       []int64 `json:"product_tag"`
	}
	if err := json.Unmarshal(raw, &u); err != nil {
		return model.Product{}, fmt.Errorf("decoding product: %w", err)
	}
	return model.Product{
		Resource:   u.toModel("product"),
		Categories: nonNilIDs(u.Categories),
		Tags:       nonNilIDs(u.Tags),
	}, nil
}

// ToUpstream builds a product create/update body. A featured image URL is
// accepted but not attached; WordPress needs a media upload for that.
func (t ProductTranslator) ToUpstream(in model.ProductInput) map[string]any {
	if in.FeaturedImageURL != "" && t.Logger != nil {
		t.Logger.Debug("featured image url ignored for product", "url", in.FeaturedImageURL)
	}
	status := in.Status
	if status == "" {
		status = model.PostStatusDraft
	}
	return map[string]any{
		"title":   in.Title,
		"content": in.Content,
		"status":  string(status),
		"type":    "product",
	}
}

// Event meta keys registered by the events post type.
const (
	metaEventDate      = "event_date"
	metaEventTime      = "event_time"
	metaVenue          = "venue"
	metaLocationDetail = "location_detail"
	metaDJ             = "dj"
	metaHost           = "host"
	metaGuestInfo      = "guest_info"
)

// EventTranslator maps entries of the events custom post type, including the
// custom meta fields.
type EventTranslator struct {
	Slug string
}

var _ Translator[model.Event, model.EventInput] = EventTranslator{}

func (t EventTranslator) Endpoint() string { return t.Slug }

func (t EventTranslator) FromUpstream(raw json.RawMessage) (model.Event, error) {
	var u struct {
		upstreamResource
		Meta             eventMeta `json:"meta"`
		EventCategories  []int64   `json:"event_category"`
		FeaturedImageURL string    `json:"featured_image_url"`
	}
	if err := json.Unmarshal(raw, &u); err != nil {
		return model.Event{}, fmt.Errorf("decoding event: %w", err)
	}

	return model.Event{
		Resource:         u.toModel(t.Slug),
		EventDate:        u.Meta.value(metaEventDate),
		EventTime:        u.Meta.value(metaEventTime),
		Venue:            u.Meta.value(metaVenue),
		LocationDetail:   u.Meta.value(metaLocationDetail),
		DJ:               u.Meta.value(metaDJ),
		Host:             u.Meta.value(metaHost),
		GuestInfo:        u.Meta.value(metaGuestInfo),
		EventCategories:  nonNilIDs(u.EventCategories),
		FeaturedImageURL: u.FeaturedImageURL,
	}, nil
}

// ToUpstream builds an event create/update body. Events are always
// published. The featured image URL is forwarded as data only.
func (EventTranslator) ToUpstream(in model.EventInput) map[string]any {
	meta := map[string]any{
		metaEventDate:      in.EventDate,
		metaEventTime:      in.EventTime,
		metaVenue:          in.Venue,
		metaLocationDetail: in.LocationDetail,
		metaDJ:             in.DJ,
		metaHost:           in.Host,
		metaGuestInfo:      in.GuestInfo,
	}

	body := map[string]any{
		"title":   in.Title,
		"content": in.Content,
		"status":  string(model.PostStatusPublish),
		"meta":    meta,
	}
	if len(in.EventCategories) > 0 {
		body["event_category"] = in.EventCategories
	}
	if in.FeaturedImageURL != "" {
		body["featured_image_url"] = in.FeaturedImageURL
	}
	return body
}

// eventMeta holds the raw meta map. WordPress encodes an empty meta object
// as [] and registered single-value keys as either a scalar or an array.
type eventMeta map[string]json.RawMessage

func (m *eventMeta) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("[]")) {
		*m = eventMeta{}
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return fmt.Errorf("decoding event meta: %w", err)
	}
	*m = raw
	return nil
}

// value unwraps meta[key]: the first element of an array or a scalar.
// Absent, null, empty arrays and empty strings all yield nil.
func (m eventMeta) value(key string) *string {
	raw, ok := m[key]
	if !ok {
		return nil
	}

	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil {
		if len(arr) == 0 {
			return nil
		}
		raw = arr[0]
	}

	s, ok := scalarString(raw)
	if !ok || s == "" {
		return nil
	}
	return &s
}

// scalarString renders a JSON string, number or bool as a string.
func scalarString(raw json.RawMessage) (string, bool) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return val, true
	case float64, bool:
		return string(bytes.TrimSpace(raw)), true
	default:
		return "", false
	}
}
