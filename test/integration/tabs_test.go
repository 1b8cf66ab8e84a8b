//go:build integration

package integration

import (
	"net/http"
	"testing"
	"time"
)

func TestListTabs(t *testing.T) {
	resp := env.GET(t, "/api/v1/tabs")
	requireStatus(t, resp, http.StatusOK)
	listing := decodeJSON[tabsListing](t, resp)
	t.Logf("attached tabs: %d", len(listing.Tabs))
}

func TestOpenTabRejectsUnsupportedScheme(t *testing.T) {
	resp := env.POST(t, "/api/v1/tabs", map[string]any{"url": "file:///etc/passwd"})
	requireStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestDetectionUnknownTab(t *testing.T) {
	resp := env.GET(t, "/api/v1/tabs/does-not-exist/detection")
	requireStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

func TestBlankTabDetectsNothing(t *testing.T) {
	tabID := env.openTab(t, "about:blank")

	resp := env.POST(t, "/api/v1/tabs/"+tabID+"/detection", nil)
	requireStatus(t, resp, http.StatusOK)
	det := decodeJSON[detectionBody](t, resp)
	requireField(t, det.Version.Kind, "none", "version.kind")
	requireField(t, det.Family, "none", "family")
	requireField(t, det.Icon, "disabled", "icon")
	requireField(t, det.RootSelector, "", "root_selector")
}

func TestActivateTab(t *testing.T) {
	tabID := env.openTab(t, "about:blank")
	resp := env.POST(t, "/api/v1/tabs/"+tabID+"/activate", nil)
	requireStatus(t, resp, http.StatusOK)
	result := decodeJSON[struct {
		TabID string `json:"tab_id"`
	}](t, resp)
	requireField(t, result.TabID, tabID, "tab_id")
}

func TestVueTabDetectionAndInspection(t *testing.T) {
	if env.VueURL == "" {
		t.Skip("ENABLER_TEST_VUE_URL not set")
	}
	tabID := env.openTab(t, env.VueURL)
	det := env.waitForDetection(t, tabID, 15*time.Second)
	if det.Family != "legacy" && det.Family != "modern" {
		t.Fatalf("family = %q, want legacy or modern", det.Family)
	}
	requireField(t, det.Icon, "enabled", "icon")
	if det.RootSelector == "" {
		t.Fatal("expected a root selector for a detected runtime")
	}

	resp := env.POST(t, "/api/v1/tabs/"+tabID+"/inspection", nil)
	requireStatus(t, resp, http.StatusAccepted)
	insp := decodeJSON[struct {
		RequestID string `json:"request_id"`
	}](t, resp)
	if insp.RequestID == "" {
		t.Fatal("expected a request id")
	}
}
