package cdpcontrol

import (
	"fmt"

	"github.com/dgnsrekt/vue_devtools_enabler/internal/types"
)

const (
	CodeValidation        = "VALIDATION"
	CodeTabNotFound       = "TAB_NOT_FOUND"
	CodeEvalFailure       = "EVAL_FAILURE"
	CodeEvalTimeout       = "EVAL_TIMEOUT"
	CodeCDPUnavailable    = "CDP_UNAVAILABLE"
	CodeBridgeUnavailable = "BRIDGE_UNAVAILABLE"
)

// CodedError is a typed error used for stable API mapping.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *CodedError) Unwrap() error { return e.Cause }

func newError(code, msg string, cause error) error {
	return &CodedError{Code: code, Message: msg, Cause: cause}
}

// NewError builds a CodedError for callers outside this package.
func NewError(code, msg string, cause error) error {
	return newError(code, msg, cause)
}

// TabEventKind classifies a TabEvent.
type TabEventKind string

const (
	// TabAttached is emitted once a page target has a session and the bridge
	// world installed.
	TabAttached TabEventKind = "attached"
	// TabNavigated is emitted on main-frame load completion.
	TabNavigated TabEventKind = "navigated"
	// TabClosed is emitted when the page target is destroyed.
	TabClosed TabEventKind = "closed"
	// TabMessage carries a payload sent by the bridge through its binding.
	TabMessage TabEventKind = "message"
)

// TabEvent is a browser-side occurrence for one tab.
type TabEvent struct {
	Kind    TabEventKind
	Tab     types.TabInfo
	Payload string
}

// BridgeConfig describes the isolated-world script installed into every
// attached page and the binding it uses to reach the daemon.
type BridgeConfig struct {
	WorldName   string
	BindingName string
	Script      string
}
