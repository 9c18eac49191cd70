package application

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/wppanel/internal/domain/model"
)

func strPtr(s string) *string { return &s }

const upstreamPost = `{
	"id": 12,
	"date": "2024-05-01T10:00:00",
	"modified": "2024-05-02T11:00:00",
	"link": "https://example.com/hello",
	"status": "publish",
	"type": "post",
	"title": {"rendered": "Hello"},
	"content": {"rendered": "<p>Body</p>", "protected": false},
	"excerpt": {"rendered": "<p>Sum</p>"},
	"featured_media": 0,
	"author": 1,
	"_links": {"self": [{"href": "https://example.com"}]}
}`

func TestPostTranslator_FromUpstream(t *testing.T) {
	post, err := PostTranslator{}.FromUpstream(json.RawMessage(upstreamPost))
	require.NoError(t, err)

	assert.Equal(t, int64(12), post.ID)
	assert.Equal(t, "Hello", post.Title)
	assert.Equal(t, "<p>Body</p>", post.Content)
	assert.Equal(t, "<p>Sum</p>", post.Excerpt)
	assert.Equal(t, model.PostStatusPublish, post.Status)
	assert.Equal(t, "post", post.Type)
	assert.Nil(t, post.FeaturedMedia, "featured_media 0 means none")
	assert.Equal(t, "2024-05-01T10:00:00", post.Date)
	assert.Equal(t, "2024-05-02T11:00:00", post.Modified)
	assert.Equal(t, "https://example.com/hello", post.Link)
}

func TestPostTranslator_UnknownStatusPassesThrough(t *testing.T) {
	post, err := PostTranslator{}.FromUpstream(json.RawMessage(`{"id":1,"status":"future","title":"T"}`))
	require.NoError(t, err)
	assert.Equal(t, model.PostStatus("future"), post.Status)
	assert.Equal(t, "T", post.Title)
}

func TestProductTranslator_FromUpstream(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantCats []int64
		wantTags []int64
		wantImg  *int64
	}{
		{
			name:     "with taxonomies",
			raw:      `{"id":5,"title":{"rendered":"Mug"},"status":"draft","featured_media":33,"product_cat":[4,9],"product_tag":[2]}`,
			wantCats: []int64{4, 9},
			wantTags: []int64{2},
			wantImg:  func() *int64 { v := int64(33); return &v }(),
		},
		{
			name:     "missing lists default to empty",
			raw:      `{"id":6,"title":{"rendered":"Cap"},"status":"publish"}`,
			wantCats: []int64{},
			wantTags: []int64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product, err := ProductTranslator{}.FromUpstream(json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.wantCats, product.Categories)
			assert.Equal(t, tt.wantTags, product.Tags)
			assert.Equal(t, tt.wantImg, product.FeaturedMedia)
			assert.Equal(t, "product", product.Type)
		})
	}
}

func TestProductTranslator_ToUpstream(t *testing.T) {
	body := ProductTranslator{}.ToUpstream(model.ProductInput{
		Title:            "Mug",
		Content:          "<p>Ceramic</p>",
		Status:           model.PostStatusPrivate,
		FeaturedImageURL: "https://example.com/mug.jpg",
	})

	assert.Equal(t, map[string]any{
		"title":   "Mug",
		"content": "<p>Ceramic</p>",
		"status":  "private",
		"type":    "product",
	}, body, "featured image url is not forwarded")
}

func TestProductTranslator_RoundTrip(t *testing.T) {
	in := model.ProductInput{Title: "Mug", Content: "<p>Ceramic</p>", Status: model.PostStatusPending}
	tr := ProductTranslator{}

	raw, err := json.Marshal(tr.ToUpstream(in))
	require.NoError(t, err)

	product, err := tr.FromUpstream(raw)
	require.NoError(t, err)
	assert.Equal(t, in.Title, product.Title)
	assert.Equal(t, in.Content, product.Content)
	assert.Equal(t, in.Status, product.Status)
}

func TestEventTranslator_MetaUnwrap(t *testing.T) {
	tests := []struct {
		name string
		meta string
		want *string
	}{
		{name: "array first element", meta: `{"venue":["Club X"]}`, want: strPtr("Club X")},
		{name: "array uses only first element", meta: `{"venue":["Club X","Club Y"]}`, want: strPtr("Club X")},
		{name: "scalar string", meta: `{"venue":"Club X"}`, want: strPtr("Club X")},
		{name: "empty array", meta: `{"venue":[]}`, want: nil},
		{name: "empty string", meta: `{"venue":""}`, want: nil},
		{name: "array of empty string", meta: `{"venue":[""]}`, want: nil},
		{name: "null", meta: `{"venue":null}`, want: nil},
		{name: "missing key", meta: `{"dj":["Someone"]}`, want: nil},
		{name: "empty meta encoded as array", meta: `[]`, want: nil},
		{name: "no meta", meta: `null`, want: nil},
	}

	tr := EventTranslator{Slug: "eventi"}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := `{"id":1,"title":{"rendered":"Party"},"status":"publish","meta":` + tt.meta + `}`
			event, err := tr.FromUpstream(json.RawMessage(raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, event.Venue)
		})
	}
}

func TestEventTranslator_FromUpstream(t *testing.T) {
	raw := `{
		"id": 77,
		"type": "eventi",
		"status": "publish",
		"title": {"rendered": "Night"},
		"content": {"rendered": "<p>Music</p>"},
		"excerpt": {"rendered": ""},
		"featured_media": 10,
		"event_category": [3],
		"meta": {
			"event_date": ["2024-12-31"],
			"event_time": ["22:00"],
			"venue": ["Club X"],
			"location_detail": [],
			"dj": ["DJ One"],
			"host": [""],
			"guest_info": ["<b>List</b>"],
			"unrelated": ["dropped"]
		}
	}`

	event, err := EventTranslator{Slug: "eventi"}.FromUpstream(json.RawMessage(raw))
	require.NoError(t, err)

	assert.Equal(t, int64(77), event.ID)
	assert.Equal(t, "eventi", event.Type)
	assert.Equal(t, strPtr("2024-12-31"), event.EventDate)
	assert.Equal(t, strPtr("22:00"), event.EventTime)
	assert.Equal(t, strPtr("Club X"), event.Venue)
	assert.Nil(t, event.LocationDetail)
	assert.Equal(t, strPtr("DJ One"), event.DJ)
	assert.Nil(t, event.Host)
	assert.Equal(t, strPtr("<b>List</b>"), event.GuestInfo)
	assert.Equal(t, []int64{3}, event.EventCategories)
}

func TestEventTranslator_ToUpstream(t *testing.T) {
	body := EventTranslator{Slug: "eventi"}.ToUpstream(model.EventInput{
		Title:            "Night",
		Content:          "<p>Music</p>",
		EventDate:        "2024-12-31",
		EventTime:        "22:00",
		Venue:            "Club X",
		EventCategories:  []int64{3},
		FeaturedImageURL: "https://example.com/poster.jpg",
	})

	assert.Equal(t, "Night", body["title"])
	assert.Equal(t, "publish", body["status"])
	assert.Equal(t, []int64{3}, body["event_category"])
	assert.Equal(t, "https://example.com/poster.jpg", body["featured_image_url"])

	meta, ok := body["meta"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2024-12-31", meta["event_date"])
	assert.Equal(t, "Club X", meta["venue"])
}

func TestEventTranslator_ToUpstreamOmitsOptionalTopLevelFields(t *testing.T) {
	body := EventTranslator{Slug: "eventi"}.ToUpstream(model.EventInput{Title: "Night"})

	_, hasImage := body["featured_image_url"]
	_, hasCategories := body["event_category"]
	assert.False(t, hasImage)
	assert.False(t, hasCategories)
}

// Translating an input to the upstream body and reading it back must
// reproduce every declared field.
func TestEventTranslator_RoundTrip(t *testing.T) {
	inputs := []model.EventInput{
		{
			Title:            "Full",
			Content:          "<p>All fields</p>",
			EventDate:        "2024-12-31T20:00",
			EventTime:        "20:00:00",
			Venue:            "Club X",
			LocationDetail:   "Room 2",
			DJ:               "DJ One",
			Host:             "Host",
			GuestInfo:        "<i>Guests</i>",
			EventCategories:  []int64{1, 2},
			FeaturedImageURL: "https://example.com/p.jpg",
		},
		{
			Title:     "Sparse",
			Content:   "",
			EventDate: "2025-01-01",
			Venue:     "Hall",
		},
	}

	tr := EventTranslator{Slug: "eventi"}
	for _, in := range inputs {
		t.Run(in.Title, func(t *testing.T) {
			raw, err := json.Marshal(tr.ToUpstream(in))
			require.NoError(t, err)

			got, err := tr.FromUpstream(raw)
			require.NoError(t, err)

			assert.Equal(t, in.Title, got.Title)
			assert.Equal(t, in.Content, got.Content)
			assert.Equal(t, model.PostStatusPublish, got.Status)
			assert.Equal(t, in.EventDate, deref(got.EventDate))
			assert.Equal(t, in.EventTime, deref(got.EventTime))
			assert.Equal(t, in.Venue, deref(got.Venue))
			assert.Equal(t, in.LocationDetail, deref(got.LocationDetail))
			assert.Equal(t, in.DJ, deref(got.DJ))
			assert.Equal(t, in.Host, deref(got.Host))
			assert.Equal(t, in.GuestInfo, deref(got.GuestInfo))
			assert.Equal(t, nonNilIDs(in.EventCategories), got.EventCategories)
			assert.Equal(t, in.FeaturedImageURL, got.FeaturedImageURL)
		})
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func TestFromUpstreamList(t *testing.T) {
	raw := json.RawMessage(`[` + upstreamPost + `,{"id":13,"title":{"rendered":"Second"},"status":"draft"}]`)

	posts, err := FromUpstreamList[model.Post](PostTranslator{}, raw)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, int64(12), posts[0].ID)
	assert.Equal(t, "Second", posts[1].Title)
}

func TestFromUpstreamList_Errors(t *testing.T) {
	_, err := FromUpstreamList[model.Post](PostTranslator{}, json.RawMessage(`{"code":"rest_no_route"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding posts list")

	_, err = FromUpstreamList[model.Post](PostTranslator{}, json.RawMessage(`[{"id":"not-a-number"}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item 0")
}
