// Package inject runs the activation probes that expose a detected runtime to
// the inspection hook.
package inject

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dgnsrekt/vue_devtools_enabler/internal/cdpcontrol"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/protocol"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/types"
)

// Evaluator runs a wrapped JS expression in a tab's main world.
type Evaluator interface {
	EvalMain(ctx context.Context, tab types.TabID, js string, out any) error
}

// Deliverer sends a message to the bridge of a tab.
type Deliverer interface {
	Deliver(ctx context.Context, tab types.TabID, msg protocol.Message) error
}

// SelectorResolver may replace the detected root selector for a tab.
type SelectorResolver interface {
	Resolve(tab types.TabID, detected string) string
}

// Outcome is one finished activation attempt.
type Outcome struct {
	TabID     types.TabID            `json:"tab_id"`
	RequestID string                 `json:"request_id,omitempty"`
	Family    types.Family           `json:"family"`
	Selector  string                 `json:"selector,omitempty"`
	Result    types.ActivationResult `json:"result"`
}

// Observer is told about every activation outcome.
type Observer interface {
	ActivationSettled(outcome Outcome)
}

type Dispatcher struct {
	eval      Evaluator
	bridge    Deliverer
	selectors SelectorResolver
	observers []Observer
}

// NewDispatcher builds a dispatcher. selectors may be nil.
func NewDispatcher(eval Evaluator, bridge Deliverer, selectors SelectorResolver, observers ...Observer) *Dispatcher {
	return &Dispatcher{eval: eval, bridge: bridge, selectors: selectors, observers: observers}
}

// Activate runs the probe matching the family of result. It never returns an
// error: every failure is folded into the ActivationResult.
func (d *Dispatcher) Activate(ctx context.Context, tab types.TabID, result types.DetectionResult) types.ActivationResult {
	res, _ := d.activate(ctx, tab, result)
	return res
}

func (d *Dispatcher) activate(ctx context.Context, tab types.TabID, result types.DetectionResult) (types.ActivationResult, string) {
	switch result.Family() {
	case types.FamilyLegacy:
		return d.run(ctx, tab, jsActivateLegacy()), ""

	case types.FamilyModern:
		selector := result.RootSelector
		if d.selectors != nil {
			selector = d.selectors.Resolve(tab, selector)
		}
		if selector == "" {
			return types.ActivationFailed(reasonNoSelector), ""
		}
		return d.run(ctx, tab, jsActivateModern(selector)), selector

	default:
		return types.ActivationFailed(reasonNotDetected), ""
	}
}

func (d *Dispatcher) run(ctx context.Context, tab types.TabID, js string) types.ActivationResult {
	var out types.ActivationResult
	if err := d.eval.EvalMain(ctx, tab, js, &out); err != nil {
		return types.ActivationFailed(failureReason(err))
	}
	return out
}

// ActivateAndRelay activates, then sends exactly one INJECTED message to the
// tab's bridge and reports the outcome to observers.
func (d *Dispatcher) ActivateAndRelay(ctx context.Context, tab types.TabID, result types.DetectionResult, requestID string) types.ActivationResult {
	res, selector := d.activate(ctx, tab, result)

	level := slog.LevelInfo
	if !res.Success {
		level = slog.LevelWarn
	}
	slog.Log(ctx, level, "inject activation settled",
		"tab_id", tab,
		"request_id", requestID,
		"family", result.Family(),
		"success", res.Success,
		"error", res.Error,
		"detail", res.Detail,
	)

	if d.bridge != nil {
		if err := d.bridge.Deliver(ctx, tab, protocol.Injected{RequestID: requestID, Result: res}); err != nil {
			slog.Warn("inject relay to bridge failed", "tab_id", tab, "request_id", requestID, "error", err)
		}
	}

	d.publish(Outcome{TabID: tab, RequestID: requestID, Family: result.Family(), Selector: selector, Result: res})
	return res
}

// Reject settles an inspection request for a tab where nothing was detected.
// The bridge has already told the user, so only observers hear about it.
func (d *Dispatcher) Reject(ctx context.Context, tab types.TabID, requestID string) types.ActivationResult {
	res := types.ActivationFailed(reasonNotDetected)
	slog.Log(ctx, slog.LevelWarn, "inject activation rejected",
		"tab_id", tab,
		"request_id", requestID,
		"error", res.Error,
	)
	d.publish(Outcome{TabID: tab, RequestID: requestID, Family: types.FamilyNone, Result: res})
	return res
}

func (d *Dispatcher) publish(outcome Outcome) {
	for _, o := range d.observers {
		o.ActivationSettled(outcome)
	}
}

func failureReason(err error) string {
	var coded *cdpcontrol.CodedError
	if errors.As(err, &coded) && coded.Message != "" {
		if coded.Cause != nil {
			return coded.Message + ": " + coded.Cause.Error()
		}
		return coded.Message
	}
	return err.Error()
}
