package model

// Resource holds the fields shared by every WordPress content kind the proxy
// manages. ID is assigned by WordPress and never generated locally.
type Resource struct {
	ID            int64
	Title         string
	Content       string
	Status        PostStatus
	Type          string
	FeaturedMedia *int64
	Date          string // Site-local timestamp as returned by WordPress.
	Modified      string
	Link          string
	Excerpt       string
}

// Post is a standard WordPress post.
type Post struct {
	Resource
}

// Product is a WooCommerce product exposed through the wp/v2 "product" route.
type Product struct {
	Resource
	Categories []int64
	Tags       []int64
}

// Event is an entry of the site's events custom post type. Nil pointer fields
// mean the meta key was absent or empty upstream.
type Event struct {
	Resource
	EventDate       *string
	EventTime       *string
	Venue           *string
	LocationDetail  *string
	DJ              *string
	Host            *string
	GuestInfo       *string
	EventCategories []int64

	// FeaturedImageURL is forwarded to WordPress as plain data; no media
	// upload is performed.
	FeaturedImageURL string
}

// ProductInput is the writable field set of a product.
type ProductInput struct {
	Title            string
	Content          string
	Status           PostStatus
	FeaturedImageURL string
}

// EventInput is the writable field set of an event.
type EventInput struct {
	Title            string
	Content          string
	EventDate        string
	EventTime        string
	Venue            string
	LocationDetail   string
	DJ               string
	Host             string
	GuestInfo        string
	EventCategories  []int64
	FeaturedImageURL string
}

// Page selects one page of a WordPress collection.
type Page struct {
	Number  int
	PerPage int
}

// DefaultPage is used when the caller does not ask for a specific page.
var DefaultPage = Page{Number: 1, PerPage: 10}
