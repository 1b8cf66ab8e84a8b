//go:build integration

package integration

import (
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestHealth(t *testing.T) {
	resp := env.GET(t, "/api/v1/health")
	requireStatus(t, resp, http.StatusOK)
	result := decodeJSON[struct {
		Status string `json:"status"`
	}](t, resp)
	requireField(t, result.Status, "ok", "status")
}

func TestOpenAPIDocument(t *testing.T) {
	resp := env.GET(t, "/openapi.json")
	requireStatus(t, resp, http.StatusOK)
	doc := decodeJSON[struct {
		Paths map[string]any `json:"paths"`
	}](t, resp)
	for _, path := range []string{"/api/v1/tabs", "/api/v1/tabs/{tab_id}/inspection", "/api/v1/selectors"} {
		if _, ok := doc.Paths[path]; !ok {
			t.Fatalf("openapi document missing %s", path)
		}
	}
}

func TestEventsRejectUnknownFeed(t *testing.T) {
	resp := env.GET(t, "/api/v1/events?feeds=bogus")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, want 400; body: %s", resp.StatusCode, body)
	}
}

func TestEventsDocsPage(t *testing.T) {
	resp := env.GET(t, "/docs/events")
	requireStatus(t, resp, http.StatusOK)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "injected") {
		t.Fatal("expected events docs to describe the injected feed")
	}
}
