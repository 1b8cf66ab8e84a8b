package mcpserver

import (
	"context"
	"encoding/json"
	"sort"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgnsrekt/vue_devtools_enabler/internal/cdpcontrol"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/controller"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/types"
)

type stubService struct {
	views []controller.TabView
	asked []string
}

func (s *stubService) ListTabs(context.Context) ([]controller.TabView, error) {
	return s.views, nil
}

func (s *stubService) GetDetection(_ context.Context, tabID string) (types.DetectionResult, error) {
	s.asked = append(s.asked, tabID)
	if tabID != "t1" {
		return types.DetectionResult{}, cdpcontrol.NewError(cdpcontrol.CodeTabNotFound, "tab not found: "+tabID, nil)
	}
	return types.NewDetectionResult(types.Exact("3.4.0"), "div#app"), nil
}

func (s *stubService) EnableInspection(ctx context.Context, tabID string) (controller.Inspection, error) {
	r, err := s.GetDetection(ctx, tabID)
	if err != nil {
		return controller.Inspection{}, err
	}
	return controller.Inspection{RequestID: "req-1", TabID: types.TabID(tabID), Detection: r}, nil
}

// setupServerClient wires the server and a client over in-memory transports.
func setupServerClient(t *testing.T, svc Service) *mcp.ClientSession {
	t.Helper()
	server := NewServer(svc)
	st, ct := mcp.NewInMemoryTransports()
	ctx := context.Background()

	_, err := server.Connect(ctx, st, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func decode[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	require.False(t, res.IsError)
	require.NotNil(t, res.StructuredContent)
	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestListTools(t *testing.T) {
	session := setupServerClient(t, &stubService{})
	result, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
	}
	sort.Strings(names)
	assert.Equal(t, []string{"enable_inspection", "get_detection", "list_tabs"}, names)
}

func TestListTabsHTTPOnly(t *testing.T) {
	legacy := types.NewDetectionResult(types.Unknown2x(), "div#app")
	svc := &stubService{views: []controller.TabView{
		{TabInfo: types.TabInfo{ID: "t1", URL: "https://example.com/"}, Detection: &legacy},
		{TabInfo: types.TabInfo{ID: "t2", URL: "chrome://newtab/"}},
	}}
	session := setupServerClient(t, svc)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "list_tabs",
		Arguments: ListTabsInput{HTTPOnly: true},
	})
	require.NoError(t, err)
	out := decode[ListTabsOutput](t, res)
	require.Len(t, out.Tabs, 1)
	assert.Equal(t, "legacy", out.Tabs[0].Detection.Family)
	assert.Equal(t, "unknown2x", out.Tabs[0].Detection.VersionKind)
}

func TestGetDetectionAndInspection(t *testing.T) {
	svc := &stubService{}
	session := setupServerClient(t, svc)
	ctx := context.Background()

	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "get_detection", Arguments: TabInput{TabID: "t1"}})
	require.NoError(t, err)
	det := decode[GetDetectionOutput](t, res)
	assert.Equal(t, "3.4.0", det.Detection.Version)
	assert.Equal(t, "modern", det.Detection.Family)

	res, err = session.CallTool(ctx, &mcp.CallToolParams{Name: "enable_inspection", Arguments: TabInput{TabID: "t1"}})
	require.NoError(t, err)
	insp := decode[EnableInspectionOutput](t, res)
	assert.Equal(t, "req-1", insp.RequestID)
	assert.Equal(t, "div#app", insp.Detection.RootSelector)
}

func TestToolErrorIsReportedInResult(t *testing.T) {
	session := setupServerClient(t, &stubService{})
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: "get_detection", Arguments: TabInput{TabID: "nope"}})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
