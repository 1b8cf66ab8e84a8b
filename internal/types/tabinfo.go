package types

import "strings"

// TabID identifies a browser tab. It carries the CDP target ID and is never
// interpreted beyond equality.
type TabID string

func (id TabID) String() string { return string(id) }

// TabInfo holds metadata about an attached page target.
type TabInfo struct {
	ID    TabID  `json:"tab_id"`
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// IsHTTP reports whether the tab shows an http(s) document. Detection only runs
// on those.
func (t TabInfo) IsHTTP() bool {
	return IsHTTPURL(t.URL)
}

// IsHTTPURL reports whether url uses the http or https scheme.
func IsHTTPURL(url string) bool {
	lower := strings.ToLower(url)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
