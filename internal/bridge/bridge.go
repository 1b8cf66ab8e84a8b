// Package bridge talks to the script the daemon installs in each page's
// isolated world.
package bridge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgnsrekt/vue_devtools_enabler/internal/cdpcontrol"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/protocol"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/types"
)

// Evaluator runs a wrapped expression in a tab's bridge world.
type Evaluator interface {
	EvalBridge(ctx context.Context, tab types.TabID, js string, out any) error
}

type Bridge struct {
	eval Evaluator
}

func New(eval Evaluator) *Bridge {
	return &Bridge{eval: eval}
}

// Deliver hands msg to the bridge in tab.
func (b *Bridge) Deliver(ctx context.Context, tab types.TabID, msg protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}

	var out struct {
		Handled bool `json:"handled"`
	}
	if err := b.eval.EvalBridge(ctx, tab, jsReceive(string(data)), &out); err != nil {
		return err
	}
	if !out.Handled {
		return cdpcontrol.NewError(cdpcontrol.CodeBridgeUnavailable, fmt.Sprintf("bridge ignored %s", msg.Tag()), nil)
	}
	slog.Debug("bridge delivered", "tab_id", tab, "type", msg.Tag())
	return nil
}

// EnableInspection starts activation in tab. The bridge answers by emitting
// the family-specific activation request, and the outcome arrives later as
// INJECTED.
func (b *Bridge) EnableInspection(ctx context.Context, tab types.TabID, result types.DetectionResult, requestID string) error {
	return b.Deliver(ctx, tab, protocol.EnableInspection{RequestID: requestID, TabID: tab, Result: result})
}

func jsReceive(payload string) string {
	return cdpcontrol.WrapJSEval(`
var bridge = window.__vueEnablerBridge;
if (!bridge) {
  return JSON.stringify({ok:false, error_code:"` + cdpcontrol.CodeBridgeUnavailable + `", error_message:"bridge not installed"});
}
var handled = bridge.receive(` + payload + `);
return JSON.stringify({ok:true, data:{handled: !!handled}});`)
}
