package inject

import (
	"strings"

	"github.com/dgnsrekt/vue_devtools_enabler/internal/cdpcontrol"
)

const (
	reasonMarkerNotFound = "marker not found"
	reasonConfigMissing  = "runtime config not reachable"
	reasonHookNotFound   = "hook not found"
	reasonRootNotFound   = "root element not found"
	reasonNoSelector     = "root selector missing"
	reasonNotDetected    = "no runtime detected"
)

// jsActivateLegacyBody re-walks the body because the legacy marker cannot be
// looked up directly. A missing hook still counts as success.
const jsActivateLegacyBody = `
var walker = document.createTreeWalker(document.body, NodeFilter.SHOW_ELEMENT);
var node;
while ((node = walker.nextNode())) {
  if (!node.__vue__) continue;
  var vm = node.__vue__;
  var Vue = (vm.$options && vm.$options._base) || vm.constructor;
  if (!Vue || !Vue.config) {
    return JSON.stringify({ok:true, data:{success:false, error:"` + reasonConfigMissing + `"}});
  }
  Vue.config.devtools = true;
  var hook = window.__VUE_DEVTOOLS_GLOBAL_HOOK__;
  if (hook) {
    hook.emit("init", Vue);
    return JSON.stringify({ok:true, data:{success:true}});
  }
  return JSON.stringify({ok:true, data:{success:true, detail:"` + reasonHookNotFound + `"}});
}
return JSON.stringify({ok:true, data:{success:false, error:"` + reasonMarkerNotFound + `"}});`

// jsActivateModernBody resolves the root with a single query. Registration in
// hook.apps is skipped when an entry already references the same app.
const jsActivateModernBody = `
var el = document.querySelector(__SELECTOR__);
if (!el) return JSON.stringify({ok:true, data:{success:false, error:"` + reasonRootNotFound + `"}});
var app = el.__vue_app__;
if (!app) return JSON.stringify({ok:true, data:{success:false, error:"` + reasonMarkerNotFound + `"}});
var hook = window.__VUE_DEVTOOLS_GLOBAL_HOOK__;
if (!hook) return JSON.stringify({ok:true, data:{success:false, error:"` + reasonHookNotFound + `"}});

var types = {
  Comment: Symbol("Comment"),
  Fragment: Symbol("Fragment"),
  Static: Symbol("Static"),
  Text: Symbol("Text")
};
hook.enabled = true;
var registered = false;
if (Array.isArray(hook.apps)) {
  var known = hook.apps.some(function (entry) {
    return entry === app || (entry && entry.app === app);
  });
  if (!known) {
    hook.apps.push({app: app, version: app.version, types: types});
    registered = true;
  }
}
if (app.config) app.config.devtools = true;
hook.emit("app:init", app, app.version, types);
return JSON.stringify({ok:true, data:{success:true, detail: registered ? "registered" : "already registered"}});`

func jsActivateLegacy() string {
	return cdpcontrol.WrapJSEval(jsActivateLegacyBody)
}

func jsActivateModern(selector string) string {
	return cdpcontrol.WrapJSEval(strings.Replace(jsActivateModernBody, "__SELECTOR__", cdpcontrol.JSString(selector), 1))
}
