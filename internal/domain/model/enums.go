package model

// PostStatus is the WordPress publication status of a resource.
type PostStatus string

const (
	PostStatusDraft   PostStatus = "draft"
	PostStatusPublish PostStatus = "publish"
	PostStatusPrivate PostStatus = "private"
	PostStatusPending PostStatus = "pending"
)

// IsWritable reports whether s may be sent to WordPress on create or update.
// Reads pass any upstream status through unchanged.
func (s PostStatus) IsWritable() bool {
	switch s {
	case PostStatusDraft, PostStatusPublish, PostStatusPrivate, PostStatusPending:
		return true
	}
	return false
}

// EventsPolicy selects how the events resource is located on the WordPress site.
type EventsPolicy string

const (
	// EventsPolicyFixed targets one configured custom post type slug.
	EventsPolicyFixed EventsPolicy = "fixed"
	// EventsPolicyFallback probes candidate endpoints in order. Compatibility
	// mode for sites whose event post type is not known at deploy time.
	EventsPolicyFallback EventsPolicy = "fallback"
)

// DataSource labels where analytics numbers came from.
type DataSource string

const (
	DataSourceGA4  DataSource = "Google Analytics 4"
	DataSourceDemo DataSource = "Demo Data (Connect GA4 for real data)"
)
