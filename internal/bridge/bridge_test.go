package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgnsrekt/vue_devtools_enabler/internal/cdpcontrol"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/protocol"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/types"
)

type fakeBridgeEval struct {
	tab     types.TabID
	js      string
	handled string
	err     error
}

func (f *fakeBridgeEval) EvalBridge(_ context.Context, tab types.TabID, js string, out any) error {
	f.tab, f.js = tab, js
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.handled), out)
}

func TestDeliverEmbedsEncodedMessage(t *testing.T) {
	eval := &fakeBridgeEval{handled: `{"handled":true}`}
	b := New(eval)

	err := b.Deliver(context.Background(), "tab-1", protocol.Injected{RequestID: "r-1", Result: types.ActivationFailed("hook not found")})
	require.NoError(t, err)

	assert.Equal(t, types.TabID("tab-1"), eval.tab)
	assert.Contains(t, eval.js, `bridge.receive({"type":"INJECTED","requestId":"r-1","success":false,"error":"hook not found"})`)
	assert.True(t, strings.HasPrefix(eval.js, "(function(){"))
}

func TestDeliverUnhandledIsBridgeUnavailable(t *testing.T) {
	b := New(&fakeBridgeEval{handled: `{"handled":false}`})

	err := b.Deliver(context.Background(), "tab-1", protocol.TabVisible{})
	var coded *cdpcontrol.CodedError
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, cdpcontrol.CodeBridgeUnavailable, coded.Code)
}

func TestDeliverPropagatesEvalError(t *testing.T) {
	boom := errors.New("target closed")
	b := New(&fakeBridgeEval{err: boom})

	err := b.EnableInspection(context.Background(), "tab-1", types.NotDetected(), "r")
	assert.ErrorIs(t, err, boom)
}

func TestEnableInspectionMessage(t *testing.T) {
	eval := &fakeBridgeEval{handled: `{"handled":true}`}
	b := New(eval)

	result := types.NewDetectionResult(types.Exact("3.4.0"), "body > div.root")
	require.NoError(t, b.EnableInspection(context.Background(), "tab-9", result, "req-7"))
	assert.Contains(t, eval.js, `"type":"ENABLE_INSPECTION"`)
	assert.Contains(t, eval.js, `"tabId":"tab-9"`)
	assert.Contains(t, eval.js, `"requestId":"req-7"`)
}

func TestScriptWiring(t *testing.T) {
	src := Script()
	assert.Contains(t, src, `window["__vueEnablerEmit"]`)
	assert.Contains(t, src, `"Please open Chrome DevTools to use Vue DevTools"`)
	assert.Contains(t, src, `"Injection failed"`)
	assert.Contains(t, src, `"No vue version detected"`)
	assert.Contains(t, src, `"ACTIVATE_LEGACY"`)
	assert.Contains(t, src, `"ACTIVATE_MODERN"`)
	assert.Contains(t, src, `addEventListener("visibilitychange", announceVisible)`)
	// A page that is already in front announces itself once on install.
	assert.Less(t, strings.Index(src, `addEventListener("visibilitychange"`), strings.LastIndex(src, "announceVisible();"))
	assert.NotContains(t, src, "__BINDING__")

	cfg := Config()
	assert.Equal(t, WorldName, cfg.WorldName)
	assert.Equal(t, BindingName, cfg.BindingName)
	assert.Equal(t, src, cfg.Script)
}
