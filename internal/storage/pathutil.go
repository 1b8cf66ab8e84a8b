package storage

import (
	"net/url"
	"strings"
)

// HostOf returns the lowercased host (with port) of rawURL, or "" when it has
// none.
func HostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Host)
}

// ShortTabID returns the first 8 chars of a CDP target ID for compact records.
func ShortTabID(targetID string) string {
	if len(targetID) >= 8 {
		return targetID[:8]
	}
	return targetID
}
