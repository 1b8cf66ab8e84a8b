package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dgnsrekt/vue_devtools_enabler/internal/settings"
)

func registerSelectorHandlers(api huma.API, svc Service) {
	type selectorsOutput struct {
		Body struct {
			Overrides []settings.Override `json:"overrides"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "get-selectors", Method: http.MethodGet, Path: "/api/v1/selectors", Summary: "List per-site root selector overrides", Tags: []string{"Selectors"}},
		func(ctx context.Context, input *struct{}) (*selectorsOutput, error) {
			out := &selectorsOutput{}
			out.Body.Overrides = svc.Selectors()
			return out, nil
		})

	type putSelectorsInput struct {
		Body struct {
			Overrides []settings.Override `json:"overrides"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "put-selectors", Method: http.MethodPut, Path: "/api/v1/selectors", Summary: "Replace per-site root selector overrides", Tags: []string{"Selectors"}},
		func(ctx context.Context, input *putSelectorsInput) (*selectorsOutput, error) {
			saved, err := svc.ReplaceSelectors(input.Body.Overrides)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &selectorsOutput{}
			out.Body.Overrides = saved
			return out, nil
		})
}
