// Package icon derives the enabled/disabled indicator from detection results.
package icon

import (
	"log/slog"
	"sync"

	"github.com/dgnsrekt/vue_devtools_enabler/internal/types"
)

// State is the indicator variant.
type State string

const (
	Enabled  State = "enabled"
	Disabled State = "disabled"
)

// For maps a detection result to its indicator.
func For(result types.DetectionResult) State {
	if result.Detected() {
		return Enabled
	}
	return Disabled
}

// Sink receives indicator changes for the visible tab.
type Sink interface {
	IconChanged(tab types.TabID, state State)
}

// Applier tracks which tab is in the foreground and pushes the indicator for
// it whenever that tab's detection settles. It remembers the visible tab only;
// the indicator is recomputed from the result every time.
type Applier struct {
	mu      sync.Mutex
	visible types.TabID
	sinks   []Sink
}

func NewApplier(sinks ...Sink) *Applier {
	return &Applier{sinks: sinks}
}

// Refresh recomputes the indicator for tab. Nothing is pushed unless tab is
// the visible one, or no tab has been seen in the foreground yet.
func (a *Applier) Refresh(tab types.TabID, result types.DetectionResult) {
	a.mu.Lock()
	visible := a.visible
	a.mu.Unlock()
	if visible != "" && visible != tab {
		return
	}
	a.apply(tab, For(result))
}

// Show marks tab as the foreground tab and pushes its indicator.
func (a *Applier) Show(tab types.TabID, result types.DetectionResult) {
	a.mu.Lock()
	a.visible = tab
	a.mu.Unlock()
	a.apply(tab, For(result))
}

// Forget clears the foreground marker if it points at tab.
func (a *Applier) Forget(tab types.TabID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.visible == tab {
		a.visible = ""
	}
}

// Visible returns the foreground tab, if known.
func (a *Applier) Visible() (types.TabID, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.visible, a.visible != ""
}

func (a *Applier) apply(tab types.TabID, state State) {
	slog.Info("icon applied", "tab_id", tab, "icon", state)
	for _, s := range a.sinks {
		s.IconChanged(tab, state)
	}
}
