// Package lifecycle keeps the tab state store in step with the browser's tab
// population by reacting to CDP tab events.
package lifecycle

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dgnsrekt/vue_devtools_enabler/internal/cdpcontrol"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/types"
)

// Store is the part of the tab state store the listener touches.
type Store interface {
	Get(tab types.TabID) (types.DetectionResult, bool)
	Remove(tab types.TabID)
}

// Tabs looks up the last known state of a tracked tab.
type Tabs interface {
	Tab(tab types.TabID) (types.TabInfo, bool)
}

// Detector runs a detection probe and stores its result.
type Detector interface {
	Detect(ctx context.Context, tab types.TabID) types.DetectionResult
}

// Icons tracks the foreground tab indicator.
type Icons interface {
	Show(tab types.TabID, result types.DetectionResult)
	Forget(tab types.TabID)
}

// BridgeHandler routes a payload emitted by a tab's bridge.
type BridgeHandler interface {
	HandleBridge(ctx context.Context, tab types.TabID, payload string) error
}

// Listener is a single event loop over tab events and foreground changes.
// Probes and bridge messages run on their own goroutines so the loop never
// waits on a page.
type Listener struct {
	tabs     Tabs
	store    Store
	detector Detector
	icons    Icons
	bridge   BridgeHandler

	activations chan types.TabID
	done        chan struct{}
	wg          sync.WaitGroup
}

func New(tabs Tabs, store Store, detector Detector, icons Icons, bridge BridgeHandler) *Listener {
	return &Listener{
		tabs:        tabs,
		store:       store,
		detector:    detector,
		icons:       icons,
		bridge:      bridge,
		activations: make(chan types.TabID, 16),
		done:        make(chan struct{}),
	}
}

// TabActivated reports tab as brought to the foreground. It is safe to call
// from any goroutine and returns immediately once Run has stopped.
func (l *Listener) TabActivated(tab types.TabID) {
	select {
	case l.activations <- tab:
	case <-l.done:
	}
}

// Run consumes events until ctx is done or events is closed. It waits for
// in-flight probes before returning.
func (l *Listener) Run(ctx context.Context, events <-chan cdpcontrol.TabEvent) error {
	defer l.wg.Wait()
	defer close(l.done)

	slog.Info("lifecycle listener started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("lifecycle listener stopped", "reason", ctx.Err())
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				slog.Info("lifecycle listener stopped", "reason", "event stream closed")
				return nil
			}
			l.handle(ctx, ev)
		case tab := <-l.activations:
			l.activate(ctx, tab)
		}
	}
}

func (l *Listener) handle(ctx context.Context, ev cdpcontrol.TabEvent) {
	tab := ev.Tab.ID
	switch ev.Kind {
	case cdpcontrol.TabAttached, cdpcontrol.TabNavigated:
		if !ev.Tab.IsHTTP() {
			slog.Debug("lifecycle skip non-http document", "tab_id", tab, "kind", ev.Kind, "url", ev.Tab.URL)
			return
		}
		slog.Debug("lifecycle detect", "tab_id", tab, "kind", ev.Kind)
		l.spawn(func() { l.detector.Detect(ctx, tab) })

	case cdpcontrol.TabClosed:
		l.store.Remove(tab)
		l.icons.Forget(tab)
		slog.Info("lifecycle tab removed", "tab_id", tab)

	case cdpcontrol.TabMessage:
		payload := ev.Payload
		l.spawn(func() {
			if err := l.bridge.HandleBridge(ctx, tab, payload); err != nil {
				slog.Debug("lifecycle bridge message dropped", "tab_id", tab, "error", err)
			}
		})
	}
}

// activate shows the cached indicator at once, then re-detects http(s)
// documents. The probe's settle refreshes the indicator again because the
// tab is now visible.
func (l *Listener) activate(ctx context.Context, tab types.TabID) {
	cached, ok := l.store.Get(tab)
	if !ok {
		cached = types.NotDetected()
	}
	l.icons.Show(tab, cached)
	slog.Info("lifecycle tab activated", "tab_id", tab)

	info, ok := l.tabs.Tab(tab)
	if !ok || !info.IsHTTP() {
		slog.Debug("lifecycle skip non-http activation", "tab_id", tab, "url", info.URL)
		return
	}
	l.spawn(func() { l.detector.Detect(ctx, tab) })
}

func (l *Listener) spawn(fn func()) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		fn()
	}()
}
