package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// HealthStats is the daemon state reported next to the health status.
type HealthStats struct {
	TrackedTabs   int   `json:"tracked_tabs" doc:"Tabs with a cached detection result"`
	DetectedTabs  int   `json:"detected_tabs" doc:"Tabs whose cached result names a runtime"`
	EventClients  int   `json:"event_clients" doc:"Connected SSE subscribers"`
	EventsDropped int64 `json:"events_dropped" doc:"Events dropped for slow SSE subscribers since start"`
}

func registerMiscHandlers(api huma.API, stats func() HealthStats) {
	type healthOutput struct {
		Body struct {
			Status string       `json:"status"`
			Stats  *HealthStats `json:"stats,omitempty"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "health", Method: http.MethodGet, Path: "/api/v1/health", Summary: "Health check", Tags: []string{"Health"}},
		func(ctx context.Context, input *struct{}) (*healthOutput, error) {
			out := &healthOutput{}
			out.Body.Status = "ok"
			if stats != nil {
				s := stats()
				out.Body.Stats = &s
			}
			return out, nil
		})
}
