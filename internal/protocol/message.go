// Package protocol defines the closed set of messages exchanged between the
// daemon, the page bridge and the control surfaces.
package protocol

import (
	"github.com/dgnsrekt/vue_devtools_enabler/internal/types"
)

// Tag is the wire discriminator of a message.
type Tag string

const (
	TagGetVersion       Tag = "GET_VERSION"
	TagVersion          Tag = "VERSION"
	TagActivateLegacy   Tag = "ACTIVATE_LEGACY"
	TagActivateModern   Tag = "ACTIVATE_MODERN"
	TagEnableInspection Tag = "ENABLE_INSPECTION"
	TagInjected         Tag = "INJECTED"
	TagTabVisible       Tag = "TAB_VISIBLE"
)

// Kind says how a message is answered.
type Kind int

const (
	// KindRequest expects a reply, either inline or as a follow-up message.
	KindRequest Kind = iota
	// KindResponse answers a request and carries its request id.
	KindResponse
	// KindNotify is one-way.
	KindNotify
)

func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindResponse:
		return "response"
	default:
		return "notify"
	}
}

// Message is implemented only by the types in this package.
type Message interface {
	Tag() Tag
	Kind() Kind
	sealed()
}

// GetVersion asks for the detection result of a tab. TabID is empty when the
// tab is implied by the sender.
type GetVersion struct {
	RequestID string
	TabID     types.TabID
}

// Version answers GetVersion.
type Version struct {
	RequestID string
	Result    types.DetectionResult
}

// ActivateLegacy triggers the legacy-family activation probe.
type ActivateLegacy struct {
	RequestID string
	TabID     types.TabID
	Result    *types.DetectionResult
}

// ActivateModern triggers the modern-family activation probe against the
// root selector in Result.
type ActivateModern struct {
	RequestID string
	TabID     types.TabID
	Result    types.DetectionResult
}

// EnableInspection asks the bridge of TabID to start activation for Result.
type EnableInspection struct {
	RequestID string
	TabID     types.TabID
	Result    types.DetectionResult
}

// Injected reports the outcome of one activation attempt to the bridge.
type Injected struct {
	RequestID string
	Result    types.ActivationResult
}

// TabVisible is sent by the bridge when its document becomes visible.
type TabVisible struct {
	TabID types.TabID
}

func (GetVersion) Tag() Tag       { return TagGetVersion }
func (Version) Tag() Tag          { return TagVersion }
func (ActivateLegacy) Tag() Tag   { return TagActivateLegacy }
func (ActivateModern) Tag() Tag   { return TagActivateModern }
func (EnableInspection) Tag() Tag { return TagEnableInspection }
func (Injected) Tag() Tag         { return TagInjected }
func (TabVisible) Tag() Tag       { return TagTabVisible }

func (GetVersion) Kind() Kind       { return KindRequest }
func (Version) Kind() Kind          { return KindResponse }
func (ActivateLegacy) Kind() Kind   { return KindRequest }
func (ActivateModern) Kind() Kind   { return KindRequest }
func (EnableInspection) Kind() Kind { return KindNotify }
func (Injected) Kind() Kind         { return KindNotify }
func (TabVisible) Kind() Kind       { return KindNotify }

func (GetVersion) sealed()       {}
func (Version) sealed()          {}
func (ActivateLegacy) sealed()   {}
func (ActivateModern) sealed()   {}
func (EnableInspection) sealed() {}
func (Injected) sealed()         {}
func (TabVisible) sealed()       {}

// TabOf returns the tab named in the payload, if any.
func TabOf(m Message) types.TabID {
	switch v := m.(type) {
	case GetVersion:
		return v.TabID
	case ActivateLegacy:
		return v.TabID
	case ActivateModern:
		return v.TabID
	case EnableInspection:
		return v.TabID
	case TabVisible:
		return v.TabID
	default:
		return ""
	}
}
