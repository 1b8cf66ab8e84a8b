package bridge

import (
	"strings"

	"github.com/dgnsrekt/vue_devtools_enabler/internal/cdpcontrol"
)

const (
	// WorldName is the isolated world the bridge runs in. Page scripts cannot
	// see it and it cannot see page globals, only the shared DOM.
	WorldName = "vue-enabler-bridge"
	// BindingName is the function exposed in WorldName that hands a JSON
	// payload to the daemon.
	BindingName = "__vueEnablerEmit"

	MsgInspectHint   = "Please open Chrome DevTools to use Vue DevTools"
	MsgInjectFailed  = "Injection failed"
	MsgNoVueDetected = "No vue version detected"
)

const scriptTemplate = `(function () {
  if (window.__vueEnablerBridge) return;
  var emit = window[__BINDING__];
  var pending = {};
  var seq = 0;

  function send(msg) {
    try { emit(JSON.stringify(msg)); } catch (_) {}
  }

  function toast(text, ok) {
    var root = document.body || document.documentElement;
    if (!root) return;
    var el = document.createElement("div");
    el.setAttribute("data-vue-enabler-toast", ok ? "success" : "error");
    el.textContent = text;
    el.style.cssText = "position:fixed;top:16px;right:16px;z-index:2147483647;padding:10px 14px;" +
      "border-radius:4px;font:13px/1.4 sans-serif;color:#fff;box-shadow:0 2px 8px rgba(0,0,0,.3);" +
      "background:" + (ok ? "#41b883" : "#d9534f");
    root.appendChild(el);
    setTimeout(function () { if (el.parentNode) el.parentNode.removeChild(el); }, 4000);
  }

  function familyOf(result) {
    var v = result && result.version;
    if (!v || v.kind === "none") return "none";
    if (v.kind === "unknown2x") return "legacy";
    var major = parseInt(String(v.value || "").replace(/^v/, ""), 10);
    return major >= 3 ? "modern" : "legacy";
  }

  function receive(msg) {
    switch (msg && msg.type) {
    case "ENABLE_INSPECTION":
      var family = familyOf(msg.detectionResult);
      if (family === "none") {
        toast(__NO_VUE__, false);
      } else if (family === "legacy") {
        send({type: "ACTIVATE_LEGACY", requestId: msg.requestId, detectionResult: msg.detectionResult});
      } else {
        send({type: "ACTIVATE_MODERN", requestId: msg.requestId, detectionResult: msg.detectionResult});
      }
      return true;
    case "INJECTED":
      if (msg.success) {
        toast(__HINT__, true);
      } else {
        toast(__FAILED__ + (msg.error ? ": " + msg.error : ""), false);
      }
      return true;
    case "VERSION":
      var resolve = pending[msg.requestId];
      if (resolve) {
        delete pending[msg.requestId];
        resolve(msg.detectionResult);
      }
      return true;
    }
    return false;
  }

  function getVersion() {
    return new Promise(function (resolve) {
      var id = "q" + (++seq);
      pending[id] = resolve;
      send({type: "GET_VERSION", requestId: id});
    });
  }

  function announceVisible() {
    if (document.visibilityState === "visible") send({type: "TAB_VISIBLE"});
  }

  document.addEventListener("visibilitychange", announceVisible);
  announceVisible();

  window.__vueEnablerBridge = {receive: receive, getVersion: getVersion};
})();`

// Script returns the bridge source installed into every page.
func Script() string {
	r := strings.NewReplacer(
		"__BINDING__", cdpcontrol.JSString(BindingName),
		"__NO_VUE__", cdpcontrol.JSString(MsgNoVueDetected),
		"__HINT__", cdpcontrol.JSString(MsgInspectHint),
		"__FAILED__", cdpcontrol.JSString(MsgInjectFailed),
	)
	return r.Replace(scriptTemplate)
}

// Config is what the CDP client needs to install the bridge.
func Config() cdpcontrol.BridgeConfig {
	return cdpcontrol.BridgeConfig{
		WorldName:   WorldName,
		BindingName: BindingName,
		Script:      Script(),
	}
}
