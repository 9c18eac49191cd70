package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ErrInvalidSiteURL is returned when a WordPress site URL cannot be normalized.
var ErrInvalidSiteURL = errors.New("invalid WordPress site URL")

// WordPressCredential is the single active set of WordPress application
// credentials. SiteURL is always stored in normalized form.
type WordPressCredential struct {
	ID          string
	SiteURL     string
	Username    string
	AppPassword string // Never logged.
	CreatedAt   time.Time
}

// AnalyticsConfig identifies the GA4 property used by the analytics dashboard.
type AnalyticsConfig struct {
	ID                  string
	PropertyID          string
	CredentialsUploaded bool
	CreatedAt           time.Time
}

// NormalizeSiteURL trims whitespace and trailing slashes and checks that raw is
// an http(s) URL whose host looks like host.tld (or localhost), optionally
// with a port.
func NormalizeSiteURL(raw string) (string, error) {
	s := strings.TrimRight(strings.TrimSpace(raw), "/")
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidSiteURL)
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSiteURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme must be http or https", ErrInvalidSiteURL)
	}
	if u.User != nil || u.RawQuery != "" || u.Fragment != "" {
		return "", fmt.Errorf("%w: unexpected userinfo, query or fragment", ErrInvalidSiteURL)
	}
	if !isValidHost(u.Hostname()) {
		return "", fmt.Errorf("%w: host %q", ErrInvalidSiteURL, u.Hostname())
	}

	return s, nil
}

// isValidHost accepts localhost or dot-separated labels of letters, digits
// and hyphens with at least two labels.
func isValidHost(host string) bool {
	if host == "localhost" {
		return true
	}

	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return false
	}

	for _, label := range labels {
		if label == "" || strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return false
		}
		for _, ch := range label {
			if !isValidHostChar(ch) {
				return false
			}
		}
	}

	return true
}

func isValidHostChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '-'
}
