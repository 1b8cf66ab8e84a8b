package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func registerTabHandlers(api huma.API, svc Service) {
	type tabsOutput struct {
		Body struct {
			Tabs []tabBody `json:"tabs"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-tabs", Method: http.MethodGet, Path: "/api/v1/tabs", Summary: "List attached tabs with their cached detection", Tags: []string{"Tabs"}},
		func(ctx context.Context, input *struct{}) (*tabsOutput, error) {
			views, err := svc.ListTabs(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &tabsOutput{}
			out.Body.Tabs = toTabs(views)
			return out, nil
		})

	type openTabInput struct {
		Body struct {
			URL string `json:"url" doc:"http(s) URL or about:blank"`
		}
	}
	type openTabOutput struct {
		Body struct {
			TabID string `json:"tab_id"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "open-tab", Method: http.MethodPost, Path: "/api/v1/tabs", Summary: "Open a new tab", Tags: []string{"Tabs"}, DefaultStatus: http.StatusCreated},
		func(ctx context.Context, input *openTabInput) (*openTabOutput, error) {
			id, err := svc.OpenTab(ctx, input.Body.URL)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &openTabOutput{}
			out.Body.TabID = string(id)
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "redetect-all", Method: http.MethodPost, Path: "/api/v1/detections", Summary: "Re-run detection on every http(s) tab", Tags: []string{"Detection"}},
		func(ctx context.Context, input *struct{}) (*tabsOutput, error) {
			views, err := svc.RedetectAll(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &tabsOutput{}
			out.Body.Tabs = toTabs(views)
			return out, nil
		})

	type detectionOutput struct {
		Body detectionBody
	}
	huma.Register(api, huma.Operation{OperationID: "get-detection", Method: http.MethodGet, Path: "/api/v1/tabs/{tab_id}/detection", Summary: "Get the detection result, probing when none is cached", Tags: []string{"Detection"}},
		func(ctx context.Context, input *tabIDInput) (*detectionOutput, error) {
			result, err := svc.GetDetection(ctx, input.TabID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &detectionOutput{Body: toDetection(result)}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "redetect", Method: http.MethodPost, Path: "/api/v1/tabs/{tab_id}/detection", Summary: "Force re-detection", Tags: []string{"Detection"}},
		func(ctx context.Context, input *tabIDInput) (*detectionOutput, error) {
			result, err := svc.Redetect(ctx, input.TabID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &detectionOutput{Body: toDetection(result)}, nil
		})

	type inspectionOutput struct {
		Body struct {
			RequestID string        `json:"request_id" doc:"Correlates with the INJECTED event on the injected feed"`
			TabID     string        `json:"tab_id"`
			Detection detectionBody `json:"detection"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "enable-inspection", Method: http.MethodPost, Path: "/api/v1/tabs/{tab_id}/inspection", Summary: "Enable devtools inspection", Description: "Sends ENABLE_INSPECTION to the tab's bridge. The outcome is published on the injected SSE feed, as a failure when nothing was detected in the tab.", Tags: []string{"Inspection"}, DefaultStatus: http.StatusAccepted},
		func(ctx context.Context, input *tabIDInput) (*inspectionOutput, error) {
			insp, err := svc.EnableInspection(ctx, input.TabID)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &inspectionOutput{}
			out.Body.RequestID = insp.RequestID
			out.Body.TabID = string(insp.TabID)
			out.Body.Detection = toDetection(insp.Detection)
			return out, nil
		})

	type activateOutput struct {
		Body struct {
			TabID  string `json:"tab_id"`
			Status string `json:"status"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "activate-tab", Method: http.MethodPost, Path: "/api/v1/tabs/{tab_id}/activate", Summary: "Bring a tab to the foreground", Tags: []string{"Tabs"}},
		func(ctx context.Context, input *tabIDInput) (*activateOutput, error) {
			if err := svc.ActivateTab(ctx, input.TabID); err != nil {
				return nil, mapErr(err)
			}
			out := &activateOutput{}
			out.Body.TabID = input.TabID
			out.Body.Status = "activated"
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "close-tab", Method: http.MethodDelete, Path: "/api/v1/tabs/{tab_id}", Summary: "Close a tab", Tags: []string{"Tabs"}, DefaultStatus: http.StatusNoContent},
		func(ctx context.Context, input *tabIDInput) (*struct{}, error) {
			if err := svc.CloseTab(ctx, input.TabID); err != nil {
				return nil, mapErr(err)
			}
			return nil, nil
		})
}
