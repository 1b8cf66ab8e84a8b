// Package detect runs the in-page runtime probe and normalizes its findings.
package detect

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/dgnsrekt/vue_devtools_enabler/internal/tabstate"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/types"
)

// Evaluator runs a wrapped JS expression in a tab's main world and decodes the
// envelope data into out. It is a remote call and may fail independently of
// the caller.
type Evaluator interface {
	EvalMain(ctx context.Context, tab types.TabID, js string, out any) error
}

// IconRefresher recomputes the icon for a tab after its state changed.
type IconRefresher interface {
	Refresh(tab types.TabID, result types.DetectionResult)
}

// Observer is told about every settled detection.
type Observer interface {
	DetectionSettled(tab types.TabID, result types.DetectionResult)
}

// Executor detects runtimes in tabs and keeps the store current.
type Executor struct {
	eval      Evaluator
	store     *tabstate.Store
	icons     IconRefresher
	observers []Observer
}

func NewExecutor(eval Evaluator, store *tabstate.Store, icons IconRefresher, observers ...Observer) *Executor {
	return &Executor{eval: eval, store: store, icons: icons, observers: observers}
}

// Detect probes tab and returns the normalized result. The store is updated
// before Detect returns. Probe failures are logged and stored as not detected.
func (e *Executor) Detect(ctx context.Context, tab types.TabID) types.DetectionResult {
	seq := e.store.Begin(tab)

	result := types.NotDetected()
	var report ProbeReport
	if err := e.eval.EvalMain(ctx, tab, jsDetect(), &report); err != nil {
		slog.Warn("detect probe failed", "tab_id", tab, "seq", seq, "error", err)
	} else {
		result = Normalize(report)
	}

	if !e.store.Apply(tab, seq, result) {
		if current, ok := e.store.Get(tab); ok {
			return current
		}
		return result
	}

	slog.Info("detect settled",
		"tab_id", tab,
		"version", result.Version.String(),
		"family", result.Family(),
		"root_selector", result.RootSelector,
	)

	if e.icons != nil {
		e.icons.Refresh(tab, result)
	}
	for _, o := range e.observers {
		o.DetectionSettled(tab, result)
	}
	return result
}

// DetectAll probes every http(s) tab with at most limit probes in flight.
func (e *Executor) DetectAll(ctx context.Context, tabs []types.TabInfo, limit int) {
	if limit < 1 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, tab := range tabs {
		if !tab.IsHTTP() {
			continue
		}
		g.Go(func() error {
			e.Detect(gctx, tab.ID)
			return nil
		})
	}
	_ = g.Wait()
	slog.Debug("detect sweep complete", "tabs", len(tabs))
}
