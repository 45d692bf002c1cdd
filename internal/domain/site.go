package domain

import (
	"net/url"
	"strings"
)

// NormalizeURL adds an https scheme to bare host names.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return "https://" + raw
	}
	return raw
}

// SiteDomain returns the lower-cased host of a URL without a leading "www.".
func SiteDomain(raw string) string {
	parsed, err := url.Parse(NormalizeURL(raw))
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Host)
	return strings.TrimPrefix(host, "www.")
}
