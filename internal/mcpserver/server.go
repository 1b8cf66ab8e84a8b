// Package mcpserver exposes tab detection and inspection as MCP tools.
package mcpserver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dgnsrekt/vue_devtools_enabler/internal/controller"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/icon"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/types"
)

// version is set by the linker at build time.
var version = "dev"

// Service is the slice of the controller the tools call.
type Service interface {
	ListTabs(ctx context.Context) ([]controller.TabView, error)
	GetDetection(ctx context.Context, tabID string) (types.DetectionResult, error)
	EnableInspection(ctx context.Context, tabID string) (controller.Inspection, error)
}

// ListTabsInput is the input of list_tabs.
type ListTabsInput struct {
	HTTPOnly bool `json:"httpOnly,omitempty" jsonschema:"only return tabs showing http(s) documents"`
}

// TabInput names one tab.
type TabInput struct {
	TabID string `json:"tabId" jsonschema:"CDP target id of the tab, as returned by list_tabs"`
}

// Detection is a detection result in tool output.
type Detection struct {
	VersionKind  string `json:"versionKind" jsonschema:"none, unknown2x or exact"`
	Version      string `json:"version,omitempty" jsonschema:"exact version string when versionKind is exact"`
	RootSelector string `json:"rootSelector,omitempty" jsonschema:"CSS selector of the application root element"`
	Family       string `json:"family" jsonschema:"none, legacy or modern"`
	Icon         string `json:"icon" jsonschema:"enabled or disabled"`
}

// Tab is one attached tab.
type Tab struct {
	TabID     string     `json:"tabId"`
	URL       string     `json:"url"`
	Title     string     `json:"title,omitempty"`
	Detection *Detection `json:"detection,omitempty"`
}

// ListTabsOutput is the output of list_tabs.
type ListTabsOutput struct {
	Tabs []Tab `json:"tabs"`
}

// GetDetectionOutput is the output of get_detection.
type GetDetectionOutput struct {
	TabID     string    `json:"tabId"`
	Detection Detection `json:"detection"`
}

// EnableInspectionOutput is the output of enable_inspection.
type EnableInspectionOutput struct {
	RequestID string    `json:"requestId"`
	TabID     string    `json:"tabId"`
	Detection Detection `json:"detection"`
}

// Tools adapts a Service to MCP tool handlers.
type Tools struct {
	svc Service
}

func NewServer(svc Service) *mcp.Server {
	t := &Tools{svc: svc}
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "vue-devtools-enabler",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_tabs",
		Description: "List attached browser tabs with their cached Vue detection. Does not probe any tab.",
	}, t.ListTabs)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_detection",
		Description: "Return the Vue runtime detected in a tab. Uses the cached result, or probes the page when there is none.",
	}, t.GetDetection)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "enable_inspection",
		Description: "Enable Vue devtools inspection in a tab. Returns a request id; the outcome is published on the injected event feed.",
	}, t.EnableInspection)

	return server
}

// HTTPHandler serves server over streamable HTTP.
func HTTPHandler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)
}

// RunStdio serves server on stdin/stdout until ctx is done.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

func (t *Tools) ListTabs(ctx context.Context, _ *mcp.CallToolRequest, input ListTabsInput) (*mcp.CallToolResult, ListTabsOutput, error) {
	views, err := t.svc.ListTabs(ctx)
	if err != nil {
		return nil, ListTabsOutput{}, fmt.Errorf("list tabs: %w", err)
	}
	out := ListTabsOutput{Tabs: make([]Tab, 0, len(views))}
	for _, v := range views {
		if input.HTTPOnly && !v.IsHTTP() {
			continue
		}
		tab := Tab{TabID: string(v.ID), URL: v.URL, Title: v.Title}
		if v.Detection != nil {
			d := toDetection(*v.Detection)
			tab.Detection = &d
		}
		out.Tabs = append(out.Tabs, tab)
	}
	return nil, out, nil
}

func (t *Tools) GetDetection(ctx context.Context, _ *mcp.CallToolRequest, input TabInput) (*mcp.CallToolResult, GetDetectionOutput, error) {
	result, err := t.svc.GetDetection(ctx, input.TabID)
	if err != nil {
		return nil, GetDetectionOutput{}, err
	}
	return nil, GetDetectionOutput{TabID: input.TabID, Detection: toDetection(result)}, nil
}

func (t *Tools) EnableInspection(ctx context.Context, _ *mcp.CallToolRequest, input TabInput) (*mcp.CallToolResult, EnableInspectionOutput, error) {
	insp, err := t.svc.EnableInspection(ctx, input.TabID)
	if err != nil {
		return nil, EnableInspectionOutput{}, err
	}
	return nil, EnableInspectionOutput{
		RequestID: insp.RequestID,
		TabID:     string(insp.TabID),
		Detection: toDetection(insp.Detection),
	}, nil
}

func toDetection(r types.DetectionResult) Detection {
	return Detection{
		VersionKind:  string(r.Version.Kind()),
		Version:      r.Version.Value(),
		RootSelector: r.RootSelector,
		Family:       string(r.Family()),
		Icon:         string(icon.For(r)),
	}
}
