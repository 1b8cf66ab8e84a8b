// Package router is the single entry point for protocol messages from the
// bridge and the control surfaces.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/dgnsrekt/vue_devtools_enabler/internal/protocol"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/types"
)

var (
	// ErrNoTab means neither the payload nor the sender named a tab.
	ErrNoTab = errors.New("router: tab could not be resolved")
	// ErrUnexpected means the message type is not handled by the router.
	ErrUnexpected = errors.New("router: unexpected message type")
)

// Lookup reads cached detection results.
type Lookup interface {
	Get(tab types.TabID) (types.DetectionResult, bool)
}

// Detector runs a detection probe and stores its result.
type Detector interface {
	Detect(ctx context.Context, tab types.TabID) types.DetectionResult
}

// Activator activates a runtime and relays the outcome as INJECTED.
type Activator interface {
	ActivateAndRelay(ctx context.Context, tab types.TabID, result types.DetectionResult, requestID string) types.ActivationResult
}

// VisibilityHandler is told when a bridge reports its tab in the foreground.
type VisibilityHandler interface {
	TabActivated(tab types.TabID)
}

// Deliverer sends replies back to a bridge.
type Deliverer interface {
	Deliver(ctx context.Context, tab types.TabID, msg protocol.Message) error
}

type Router struct {
	store      Lookup
	detector   Detector
	activator  Activator
	visibility VisibilityHandler
	bridge     Deliverer

	wg sync.WaitGroup
}

func New(store Lookup, detector Detector, activator Activator, bridge Deliverer) *Router {
	return &Router{store: store, detector: detector, activator: activator, bridge: bridge}
}

// SetVisibilityHandler wires TAB_VISIBLE handling. The lifecycle listener
// owns the router, so this is set after construction.
func (r *Router) SetVisibilityHandler(v VisibilityHandler) {
	r.visibility = v
}

// Handle routes msg. sender is the tab of the bridge that sent it, or empty
// for surface callers. A tab named in the payload wins over the sender.
//
// The returned message is the inline reply, or nil when the reply is
// asynchronous or there is none.
func (r *Router) Handle(ctx context.Context, sender types.TabID, msg protocol.Message) (protocol.Message, error) {
	tab := protocol.TabOf(msg)
	if tab == "" {
		tab = sender
	}
	if tab == "" {
		slog.Warn("router rejected message without tab", "type", msg.Tag())
		return nil, ErrNoTab
	}

	switch m := msg.(type) {
	case protocol.GetVersion:
		result, ok := r.store.Get(tab)
		if !ok {
			result = r.detector.Detect(ctx, tab)
		}
		return protocol.Version{RequestID: m.RequestID, Result: result}, nil

	case protocol.ActivateLegacy:
		result := r.legacyResult(tab, m.Result)
		r.activateAsync(ctx, tab, result, m.RequestID)
		return nil, nil

	case protocol.ActivateModern:
		r.activateAsync(ctx, tab, m.Result, m.RequestID)
		return nil, nil

	case protocol.TabVisible:
		if r.visibility != nil {
			r.visibility.TabActivated(tab)
		}
		return nil, nil

	default:
		slog.Warn("router protocol violation", "type", msg.Tag(), "kind", msg.Kind(), "tab_id", tab)
		return nil, fmt.Errorf("%w: %s", ErrUnexpected, msg.Tag())
	}
}

// HandleBridge decodes a payload emitted by the bridge in tab and sends any
// inline reply back to it.
func (r *Router) HandleBridge(ctx context.Context, tab types.TabID, payload string) error {
	msg, err := protocol.Decode([]byte(payload))
	if err != nil {
		slog.Warn("router bridge payload rejected", "tab_id", tab, "error", err)
		return err
	}

	reply, err := r.Handle(ctx, tab, msg)
	if err != nil {
		return err
	}
	if reply == nil || r.bridge == nil {
		return nil
	}
	if err := r.bridge.Deliver(ctx, tab, reply); err != nil {
		slog.Warn("router reply to bridge failed", "tab_id", tab, "type", reply.Tag(), "error", err)
		return err
	}
	return nil
}

// Wait blocks until every asynchronous activation has settled.
func (r *Router) Wait() {
	r.wg.Wait()
}

func (r *Router) activateAsync(ctx context.Context, tab types.TabID, result types.DetectionResult, requestID string) {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx = context.WithoutCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.activator.ActivateAndRelay(ctx, tab, result, requestID)
	}()
}

// legacyResult picks the result handed to the legacy probe. The probe
// re-traverses the page, so only the family matters.
func (r *Router) legacyResult(tab types.TabID, payload *types.DetectionResult) types.DetectionResult {
	if payload != nil && payload.Family() == types.FamilyLegacy {
		return *payload
	}
	if cached, ok := r.store.Get(tab); ok && cached.Family() == types.FamilyLegacy {
		return cached
	}
	return types.NewDetectionResult(types.Unknown2x(), "")
}
