package httphandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ericfisherdev/wppanel/internal/domain/model"
)

const maxRequestBody = 1 << 20

var (
	eventDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(T\d{2}:\d{2}(:\d{2})?)?$`)
	eventTimePattern = regexp.MustCompile(`^\d{2}:\d{2}(:\d{2})?$`)
)

// errInvalidJSON marks a request body that could not be decoded.
var errInvalidJSON = errors.New("invalid JSON body")

// newValidator builds the request validator with the custom tags used by the
// DTOs in this file.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("eventdate", func(fl validator.FieldLevel) bool {
		return eventDatePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("eventtime", func(fl validator.FieldLevel) bool {
		return eventTimePattern.MatchString(fl.Field().String())
	})
	return v
}

// decodeJSON reads a JSON body of at most maxRequestBody bytes into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errInvalidJSON)
		}
		return fmt.Errorf("%w: %w", errInvalidJSON, err)
	}
	return nil
}

// validationMessage flattens validator errors into one readable line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "required_without":
			parts = append(parts, fe.Field()+" is required")
		case "min", "max":
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
		case "eventdate":
			parts = append(parts, fe.Field()+" must be YYYY-MM-DD or YYYY-MM-DDTHH:MM[:SS]")
		case "eventtime":
			parts = append(parts, fe.Field()+" must be HH:MM or HH:MM:SS")
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

// WordPressConfigRequest is the JSON body for POST /api/wp-config. SiteURL
// also accepts the "url" key.
type WordPressConfigRequest struct {
	SiteURL     string `json:"site_url" validate:"required"`
	URL         string `json:"url,omitempty" validate:"-"`
	Username    string `json:"username" validate:"required,min=3,max=60"`
	AppPassword string `json:"app_password" validate:"required,min=10"`
}

func (req *WordPressConfigRequest) normalize() {
	if req.SiteURL == "" {
		req.SiteURL = req.URL
	}
	req.SiteURL = strings.TrimSpace(req.SiteURL)
	req.Username = sanitizeText(req.Username)
	req.AppPassword = strings.TrimSpace(req.AppPassword)
}

func (req *WordPressConfigRequest) toModel() model.WordPressCredential {
	return model.WordPressCredential{
		SiteURL:     req.SiteURL,
		Username:    req.Username,
		AppPassword: req.AppPassword,
	}
}

// ProductRequest is the JSON body for creating or updating a product.
type ProductRequest struct {
	Title            string `json:"title" validate:"required,max=200"`
	Content          string `json:"content"`
	ContentFormat    string `json:"content_format" validate:"omitempty,oneof=html markdown"`
	Status           string `json:"status" validate:"omitempty,oneof=draft publish private pending"`
	FeaturedImageURL string `json:"featured_image_url" validate:"omitempty,url,max=2048"`
}

func (req *ProductRequest) normalize() {
	req.Title = sanitizeText(req.Title)
	req.Content = prepareContent(req.Content, req.ContentFormat)
	req.Status = strings.TrimSpace(req.Status)
	req.FeaturedImageURL = strings.TrimSpace(req.FeaturedImageURL)
}

func (req *ProductRequest) toModel() model.ProductInput {
	status := model.PostStatus(req.Status)
	if status == "" {
		status = model.PostStatusDraft
	}
	return model.ProductInput{
		Title:            req.Title,
		Content:          req.Content,
		Status:           status,
		FeaturedImageURL: req.FeaturedImageURL,
	}
}

// EventRequest is the JSON body for creating or updating an event. Location
// is accepted as an alias of Venue.
type EventRequest struct {
	Title            string  `json:"title" validate:"required,max=200"`
	Content          string  `json:"content" validate:"required"`
	ContentFormat    string  `json:"content_format" validate:"omitempty,oneof=html markdown"`
	EventDate        string  `json:"event_date" validate:"required,eventdate"`
	EventTime        string  `json:"event_time" validate:"omitempty,eventtime"`
	Venue            string  `json:"venue" validate:"required_without=Location,max=200"`
	Location         string  `json:"location" validate:"max=200"`
	LocationDetail   string  `json:"location_detail" validate:"max=500"`
	DJ               string  `json:"dj" validate:"max=200"`
	Host             string  `json:"host" validate:"max=200"`
	GuestInfo        string  `json:"guest_info" validate:"max=2000"`
	EventCategory    []int64 `json:"event_category" validate:"omitempty,dive,gt=0"`
	FeaturedImageURL string  `json:"featured_image_url" validate:"omitempty,url,max=2048"`
}

func (req *EventRequest) normalize() {
	req.Title = sanitizeText(req.Title)
	req.Content = prepareContent(req.Content, req.ContentFormat)
	req.EventDate = strings.TrimSpace(req.EventDate)
	req.EventTime = strings.TrimSpace(req.EventTime)
	req.Venue = sanitizeText(req.Venue)
	req.Location = sanitizeText(req.Location)
	req.LocationDetail = sanitizeText(req.LocationDetail)
	req.DJ = sanitizeText(req.DJ)
	req.Host = sanitizeText(req.Host)
	req.GuestInfo = sanitizeHTML(req.GuestInfo)
	req.FeaturedImageURL = strings.TrimSpace(req.FeaturedImageURL)
}

func (req *EventRequest) toModel() model.EventInput {
	venue := req.Venue
	if venue == "" {
		venue = req.Location
	}
	return model.EventInput{
		Title:            req.Title,
		Content:          req.Content,
		EventDate:        req.EventDate,
		EventTime:        req.EventTime,
		Venue:            venue,
		LocationDetail:   req.LocationDetail,
		DJ:               req.DJ,
		Host:             req.Host,
		GuestInfo:        req.GuestInfo,
		EventCategories:  req.EventCategory,
		FeaturedImageURL: req.FeaturedImageURL,
	}
}

// AnalyticsConfigRequest is the JSON body for POST /api/analytics/config.
type AnalyticsConfigRequest struct {
	PropertyID string `json:"property_id" validate:"required,numeric,max=20"`
}

// pageParams reads page and per_page from the query string. Missing values
// fall back to model.DefaultPage.
func pageParams(r *http.Request) (model.Page, error) {
	page := model.DefaultPage

	var err error
	if page.Number, err = intParam(r, "page", page.Number, 1, 1<<20); err != nil {
		return model.Page{}, err
	}
	if page.PerPage, err = intParam(r, "per_page", page.PerPage, 1, 100); err != nil {
		return model.Page{}, err
	}
	return page, nil
}

func intParam(r *http.Request, name string, def, lo, hi int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", name, lo, hi)
	}
	return n, nil
}

// idParam parses the {id} path segment as a positive WordPress id.
func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// forceParam reports whether ?force=true was requested on a delete.
func forceParam(r *http.Request) bool {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	return force
}

// dateRangeParams reads start_date and end_date, defaulting to the last 30
// days.
func dateRangeParams(r *http.Request) model.DateRange {
	dr := model.DefaultDateRange
	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("start_date")); v != "" {
		dr.StartDate = v
	}
	if v := strings.TrimSpace(q.Get("end_date")); v != "" {
		dr.EndDate = v
	}
	return dr
}

func (req *AnalyticsConfigRequest) normalize() {
	req.PropertyID = strings.TrimPrefix(strings.TrimSpace(req.PropertyID), "properties/")
}
