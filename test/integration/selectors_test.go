//go:build integration

package integration

import (
	"net/http"
	"testing"
)

type override struct {
	Host     string `json:"host"`
	Selector string `json:"selector"`
}

type selectorsBody struct {
	Overrides []override `json:"overrides"`
}

func TestSelectorsRoundTrip(t *testing.T) {
	resp := env.GET(t, "/api/v1/selectors")
	requireStatus(t, resp, http.StatusOK)
	original := decodeJSON[selectorsBody](t, resp)
	if original.Overrides == nil {
		original.Overrides = []override{}
	}
	t.Cleanup(func() {
		resp := env.PUT(t, "/api/v1/selectors", original)
		resp.Body.Close()
	})

	want := append(append([]override{}, original.Overrides...), override{Host: "integration.invalid:8080", Selector: "body > div#app"})
	resp = env.PUT(t, "/api/v1/selectors", selectorsBody{Overrides: want})
	requireStatus(t, resp, http.StatusOK)
	saved := decodeJSON[selectorsBody](t, resp)
	requireField(t, len(saved.Overrides), len(want), "len(overrides)")

	resp = env.GET(t, "/api/v1/selectors")
	requireStatus(t, resp, http.StatusOK)
	got := decodeJSON[selectorsBody](t, resp)
	last := got.Overrides[len(got.Overrides)-1]
	requireField(t, last.Host, "integration.invalid:8080", "host")
}

func TestSelectorsRejectDuplicateHost(t *testing.T) {
	resp := env.PUT(t, "/api/v1/selectors", selectorsBody{Overrides: []override{
		{Host: "dup.invalid", Selector: "#a"},
		{Host: "DUP.invalid", Selector: "#b"},
	}})
	requireStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}
