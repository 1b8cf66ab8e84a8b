package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgnsrekt/vue_devtools_enabler/internal/cdpcontrol"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/controller"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/types"
)

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestListTabsShape(t *testing.T) {
	legacy := types.NewDetectionResult(types.Unknown2x(), "div#app")
	svc := &stubService{views: []controller.TabView{
		{TabInfo: types.TabInfo{ID: "t1", URL: "https://example.com/"}, Detection: &legacy},
		{TabInfo: types.TabInfo{ID: "t2", URL: "chrome://newtab/"}},
	}}
	w := do(t, NewServer(svc, Options{}), http.MethodGet, "/api/v1/tabs", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out struct {
		Tabs []struct {
			TabID     string         `json:"tab_id"`
			Detection map[string]any `json:"detection"`
		} `json:"tabs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out.Tabs, 2)
	assert.Equal(t, "legacy", out.Tabs[0].Detection["family"])
	assert.Equal(t, "enabled", out.Tabs[0].Detection["icon"])
	assert.Equal(t, map[string]any{"kind": "unknown2x"}, out.Tabs[0].Detection["version"])
	assert.Nil(t, out.Tabs[1].Detection)
}

func TestInspectionAccepted(t *testing.T) {
	svc := &stubService{detection: types.NewDetectionResult(types.Exact("3.4.0"), "div#app")}
	w := do(t, NewServer(svc, Options{}), http.MethodPost, "/api/v1/tabs/t1/inspection", "")
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"request_id":"req-1"`)
	assert.Contains(t, w.Body.String(), `"root_selector":"div#app"`)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{cdpcontrol.NewError(cdpcontrol.CodeValidation, "tab_id is required", nil), http.StatusBadRequest},
		{cdpcontrol.NewError(cdpcontrol.CodeTabNotFound, "tab not found", nil), http.StatusNotFound},
		{cdpcontrol.NewError(cdpcontrol.CodeEvalTimeout, "timeout", nil), http.StatusGatewayTimeout},
		{cdpcontrol.NewError(cdpcontrol.CodeBridgeUnavailable, "bridge not ready", nil), http.StatusBadGateway},
		{cdpcontrol.NewError(cdpcontrol.CodeCDPUnavailable, "down", nil), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := do(t, NewServer(&stubService{err: tc.err}, Options{}), http.MethodGet, "/api/v1/tabs/t1/detection", "")
		assert.Equal(t, tc.want, w.Code, "error %v", tc.err)
	}
}

func TestPutSelectorsValidation(t *testing.T) {
	svc := &stubService{}
	h := NewServer(svc, Options{})

	w := do(t, h, http.MethodPut, "/api/v1/selectors", `{"overrides":[{"host":"example.com","selector":""}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPut, "/api/v1/selectors", `{"overrides":[{"host":"example.com","selector":"#app"}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, h, http.MethodGet, "/api/v1/selectors", "")
	assert.Contains(t, w.Body.String(), `"selector":"#app"`)
}

func TestActivateAndOpen(t *testing.T) {
	svc := &stubService{}
	h := NewServer(svc, Options{})

	w := do(t, h, http.MethodPost, "/api/v1/tabs/t9/activate", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"t9"}, svc.activated)

	w = do(t, h, http.MethodPost, "/api/v1/tabs", `{"url":"https://example.com"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"tab_id":"opened"`)

	w = do(t, h, http.MethodDelete, "/api/v1/tabs/t9", "")
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	assert.Equal(t, []string{"t9"}, svc.closed)
}

func TestEventsHandlerMounted(t *testing.T) {
	events := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(": ok\n\n"))
	})
	w := do(t, NewServer(&stubService{}, Options{Events: events}), http.MethodGet, "/api/v1/events", "")
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
}

func TestHealth(t *testing.T) {
	w := do(t, NewServer(&stubService{}, Options{}), http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Status string       `json:"status"`
		Stats  *HealthStats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "ok", out.Status)
	assert.Nil(t, out.Stats)

	stats := func() HealthStats { return HealthStats{TrackedTabs: 3, DetectedTabs: 1, EventsDropped: 2} }
	w = do(t, NewServer(&stubService{}, Options{Health: stats}), http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.NotNil(t, out.Stats)
	assert.Equal(t, 3, out.Stats.TrackedTabs)
	assert.Equal(t, int64(2), out.Stats.EventsDropped)
}
