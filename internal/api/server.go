package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgnsrekt/vue_devtools_enabler/internal/cdpcontrol"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/controller"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/router"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/settings"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/types"
)

type Service interface {
	ListTabs(ctx context.Context) ([]controller.TabView, error)
	OpenTab(ctx context.Context, url string) (types.TabID, error)
	GetDetection(ctx context.Context, tabID string) (types.DetectionResult, error)
	Redetect(ctx context.Context, tabID string) (types.DetectionResult, error)
	RedetectAll(ctx context.Context) ([]controller.TabView, error)
	EnableInspection(ctx context.Context, tabID string) (controller.Inspection, error)
	ActivateTab(ctx context.Context, tabID string) error
	CloseTab(ctx context.Context, tabID string) error
	Selectors() []settings.Override
	ReplaceSelectors(overrides []settings.Override) ([]settings.Override, error)
}

// Options mounts optional raw handlers next to the huma API.
type Options struct {
	// Events serves the SSE stream at /api/v1/events.
	Events http.Handler
	// MCP serves the streamable HTTP MCP endpoint at /mcp.
	MCP http.Handler
	// Health adds daemon stats to /api/v1/health.
	Health func() HealthStats
}

type tabIDInput struct {
	TabID string `path:"tab_id" doc:"CDP target id of the tab"`
}

func NewServer(svc Service, opts Options) http.Handler {
	mux := chi.NewMux()
	mux.Use(middleware.RequestID)
	mux.Use(requestLogger)
	mux.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("Vue Devtools Enabler API", "1.0.0")
	cfg.DocsPath = ""
	api := humachi.New(mux, cfg)

	mux.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(docsHTML)); err != nil {
			slog.Debug("docs response write failed", "error", err)
		}
	})
	mux.Get("/docs/events", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(eventsDocsHTML)); err != nil {
			slog.Debug("events docs response write failed", "error", err)
		}
	})
	if opts.Events != nil {
		mux.Method(http.MethodGet, "/api/v1/events", opts.Events)
	}
	if opts.MCP != nil {
		mux.Handle("/mcp", opts.MCP)
		mux.Handle("/mcp/*", opts.MCP)
	}

	registerTabHandlers(api, svc)
	registerSelectorHandlers(api, svc)
	registerMiscHandlers(api, opts.Health)

	return mux
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, router.ErrNoTab) {
		return huma.Error400BadRequest(err.Error())
	}
	var coded *cdpcontrol.CodedError
	if errors.As(err, &coded) {
		switch coded.Code {
		case cdpcontrol.CodeValidation:
			return huma.Error400BadRequest(coded.Message)
		case cdpcontrol.CodeTabNotFound:
			return huma.Error404NotFound(coded.Message)
		case cdpcontrol.CodeEvalTimeout:
			return huma.Error504GatewayTimeout(coded.Message)
		case cdpcontrol.CodeCDPUnavailable, cdpcontrol.CodeBridgeUnavailable:
			return huma.Error502BadGateway(coded.Message)
		default:
			return huma.Error500InternalServerError(fmt.Sprintf("%s: %s", coded.Code, coded.Message))
		}
	}
	return huma.Error500InternalServerError(err.Error())
}
