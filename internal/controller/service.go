// Package controller implements the operations shared by the HTTP API and the
// MCP tool server.
package controller

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/dgnsrekt/vue_devtools_enabler/internal/cdpcontrol"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/icon"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/protocol"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/settings"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/types"
)

// Tabs is the attached page population.
type Tabs interface {
	ListTabs(ctx context.Context) ([]types.TabInfo, error)
	Tab(tab types.TabID) (types.TabInfo, bool)
}

// Lookup reads cached detection results.
type Lookup interface {
	Get(tab types.TabID) (types.DetectionResult, bool)
}

// Router routes protocol messages; the service is a sender-less caller.
type Router interface {
	Handle(ctx context.Context, sender types.TabID, msg protocol.Message) (protocol.Message, error)
}

// Detector forces detection.
type Detector interface {
	Detect(ctx context.Context, tab types.TabID) types.DetectionResult
	DetectAll(ctx context.Context, tabs []types.TabInfo, limit int)
}

// Inspector hands ENABLE_INSPECTION to a tab's bridge.
type Inspector interface {
	EnableInspection(ctx context.Context, tab types.TabID, result types.DetectionResult, requestID string) error
}

// Rejecter settles an inspection request that cannot activate anything, so
// observers still see exactly one outcome per request.
type Rejecter interface {
	Reject(ctx context.Context, tab types.TabID, requestID string) types.ActivationResult
}

// Navigator performs browser-level tab operations.
type Navigator interface {
	Open(ctx context.Context, url string) (types.TabID, error)
	Activate(ctx context.Context, tab types.TabID) error
	CloseTab(ctx context.Context, tab types.TabID) error
}

// Activations receives explicit foreground changes.
type Activations interface {
	TabActivated(tab types.TabID)
}

// Selectors is the editable set of per-site selector overrides.
type Selectors interface {
	List() []settings.Override
	Replace(overrides []settings.Override) error
}

// Deps bundles the collaborators of a Service. Navigator, Activations and
// Selectors may be nil; the operations needing them then fail with
// CDP_UNAVAILABLE or VALIDATION.
type Deps struct {
	Tabs        Tabs
	Store       Lookup
	Router      Router
	Detector    Detector
	Inspector   Inspector
	Rejecter    Rejecter
	Navigator   Navigator
	Activations Activations
	Selectors   Selectors
	Concurrency int
}

// TabView is one tab with its cached detection. Detection is nil when the tab
// was never probed.
type TabView struct {
	types.TabInfo
	Detection *types.DetectionResult `json:"detection,omitempty"`
	Family    types.Family           `json:"family"`
	Icon      icon.State             `json:"icon"`
}

// Inspection is the accepted ENABLE_INSPECTION request.
type Inspection struct {
	RequestID string                `json:"request_id"`
	TabID     types.TabID           `json:"tab_id"`
	Detection types.DetectionResult `json:"detection"`
}

type Service struct {
	deps Deps
}

func NewService(deps Deps) *Service {
	if deps.Concurrency < 1 {
		deps.Concurrency = 1
	}
	return &Service{deps: deps}
}

func (s *Service) requireNonEmpty(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return &cdpcontrol.CodedError{Code: cdpcontrol.CodeValidation, Message: fieldName + " is required"}
	}
	return nil
}

// requireTab validates id and checks it is an attached page.
func (s *Service) requireTab(id string) (types.TabInfo, error) {
	if err := s.requireNonEmpty(id, "tab_id"); err != nil {
		return types.TabInfo{}, err
	}
	tab := types.TabID(strings.TrimSpace(id))
	info, ok := s.deps.Tabs.Tab(tab)
	if !ok {
		return types.TabInfo{}, cdpcontrol.NewError(cdpcontrol.CodeTabNotFound, "tab not found: "+string(tab), nil)
	}
	return info, nil
}

// ListTabs refreshes the page list and joins each tab with its cached result.
// Nothing is probed.
func (s *Service) ListTabs(ctx context.Context) ([]TabView, error) {
	tabs, err := s.deps.Tabs.ListTabs(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]TabView, 0, len(tabs))
	for _, t := range tabs {
		out = append(out, s.view(t))
	}
	return out, nil
}

// GetDetection answers GET_VERSION for id: the cached result, or a fresh
// probe when there is none.
func (s *Service) GetDetection(ctx context.Context, id string) (types.DetectionResult, error) {
	info, err := s.requireTab(id)
	if err != nil {
		return types.DetectionResult{}, err
	}
	reply, err := s.deps.Router.Handle(ctx, "", protocol.GetVersion{TabID: info.ID})
	if err != nil {
		return types.DetectionResult{}, err
	}
	version, ok := reply.(protocol.Version)
	if !ok {
		return types.DetectionResult{}, fmt.Errorf("unexpected reply %T to GET_VERSION", reply)
	}
	return version.Result, nil
}

// Redetect forces a probe of id.
func (s *Service) Redetect(ctx context.Context, id string) (types.DetectionResult, error) {
	info, err := s.requireTab(id)
	if err != nil {
		return types.DetectionResult{}, err
	}
	return s.deps.Detector.Detect(ctx, info.ID), nil
}

// RedetectAll probes every attached http(s) tab and returns the refreshed
// list.
func (s *Service) RedetectAll(ctx context.Context) ([]TabView, error) {
	tabs, err := s.deps.Tabs.ListTabs(ctx)
	if err != nil {
		return nil, err
	}
	s.deps.Detector.DetectAll(ctx, tabs, s.deps.Concurrency)
	out := make([]TabView, 0, len(tabs))
	for _, t := range tabs {
		out = append(out, s.view(t))
	}
	return out, nil
}

// EnableInspection sends ENABLE_INSPECTION to the tab's bridge with the
// current detection. The activation outcome arrives later as INJECTED. When
// nothing was detected the bridge only shows its notice, and the failed
// outcome is published right away through the Rejecter.
func (s *Service) EnableInspection(ctx context.Context, id string) (Inspection, error) {
	result, err := s.GetDetection(ctx, id)
	if err != nil {
		return Inspection{}, err
	}
	tab := types.TabID(strings.TrimSpace(id))
	requestID := uuid.NewString()
	if err := s.deps.Inspector.EnableInspection(ctx, tab, result, requestID); err != nil {
		return Inspection{}, err
	}
	if !result.Detected() && s.deps.Rejecter != nil {
		s.deps.Rejecter.Reject(ctx, tab, requestID)
	}
	slog.Info("inspection requested", "tab_id", tab, "request_id", requestID, "family", result.Family())
	return Inspection{RequestID: requestID, TabID: tab, Detection: result}, nil
}

// ActivateTab brings id to the foreground and runs the activation path.
func (s *Service) ActivateTab(ctx context.Context, id string) error {
	info, err := s.requireTab(id)
	if err != nil {
		return err
	}
	if s.deps.Navigator == nil {
		return cdpcontrol.NewError(cdpcontrol.CodeCDPUnavailable, "navigator not configured", nil)
	}
	if err := s.deps.Navigator.Activate(ctx, info.ID); err != nil {
		return cdpcontrol.NewError(cdpcontrol.CodeCDPUnavailable, "failed to activate tab", err)
	}
	if s.deps.Activations != nil {
		s.deps.Activations.TabActivated(info.ID)
	}
	return nil
}

// OpenTab opens url in a new tab. Detection follows once the page target is
// attached.
func (s *Service) OpenTab(ctx context.Context, url string) (types.TabID, error) {
	url = strings.TrimSpace(url)
	if err := s.requireNonEmpty(url, "url"); err != nil {
		return "", err
	}
	if !types.IsHTTPURL(url) && url != "about:blank" {
		return "", cdpcontrol.NewError(cdpcontrol.CodeValidation, "url must be http(s) or about:blank", nil)
	}
	if s.deps.Navigator == nil {
		return "", cdpcontrol.NewError(cdpcontrol.CodeCDPUnavailable, "navigator not configured", nil)
	}
	id, err := s.deps.Navigator.Open(ctx, url)
	if err != nil {
		return "", cdpcontrol.NewError(cdpcontrol.CodeCDPUnavailable, "failed to open tab", err)
	}
	return id, nil
}

// CloseTab closes id. Its cached detection is dropped when the target is
// destroyed.
func (s *Service) CloseTab(ctx context.Context, id string) error {
	info, err := s.requireTab(id)
	if err != nil {
		return err
	}
	if s.deps.Navigator == nil {
		return cdpcontrol.NewError(cdpcontrol.CodeCDPUnavailable, "navigator not configured", nil)
	}
	if err := s.deps.Navigator.CloseTab(ctx, info.ID); err != nil {
		return cdpcontrol.NewError(cdpcontrol.CodeCDPUnavailable, "failed to close tab", err)
	}
	return nil
}

// Selectors returns the current selector overrides.
func (s *Service) Selectors() []settings.Override {
	if s.deps.Selectors == nil {
		return []settings.Override{}
	}
	return s.deps.Selectors.List()
}

// ReplaceSelectors validates and stores a new set of overrides.
func (s *Service) ReplaceSelectors(overrides []settings.Override) ([]settings.Override, error) {
	if s.deps.Selectors == nil {
		return nil, cdpcontrol.NewError(cdpcontrol.CodeValidation, "selector overrides are disabled", nil)
	}
	if err := settings.Validate(overrides); err != nil {
		return nil, cdpcontrol.NewError(cdpcontrol.CodeValidation, err.Error(), nil)
	}
	if err := s.deps.Selectors.Replace(overrides); err != nil {
		return nil, err
	}
	return s.deps.Selectors.List(), nil
}

func (s *Service) view(t types.TabInfo) TabView {
	v := TabView{TabInfo: t, Family: types.FamilyNone, Icon: icon.Disabled}
	if result, ok := s.deps.Store.Get(t.ID); ok {
		r := result
		v.Detection = &r
		v.Family = result.Family()
		v.Icon = icon.For(result)
	}
	return v
}
