package detect

import "github.com/dgnsrekt/vue_devtools_enabler/internal/cdpcontrol"

// jsDetectBody walks document.body depth-first and reports the first element
// carrying a legacy (__vue__) or modern (__vue_app__) marker, together with
// its ancestor chain below the document element.
const jsDetectBody = `
var report = {legacy:{found:false}, modern:{found:false}, chain:[]};
if (!document.body) return JSON.stringify({ok:true, data:report});
var walker = document.createTreeWalker(document.body, NodeFilter.SHOW_ELEMENT);
var node;
while ((node = walker.nextNode())) {
  var legacy = false, modern = false;
  try { legacy = !!node.__vue__; } catch (_) {}
  try { modern = !!node.__vue_app__; } catch (_) {}
  if (!legacy && !modern) continue;

  if (legacy) {
    report.legacy.found = true;
    var v = null;
    try { v = window.Vue && window.Vue.version; } catch (_) {}
    if (!v) { try { v = node.__vue__.constructor && node.__vue__.constructor.version; } catch (_) {} }
    if (!v) { try { var base = node.__vue__.$options && node.__vue__.$options._base; v = base && base.version; } catch (_) {} }
    if (v) report.legacy.version = String(v);
  }
  if (modern) {
    report.modern.found = true;
    try { if (node.__vue_app__.version) report.modern.version = String(node.__vue_app__.version); } catch (_) {}
  }

  for (var el = node; el && el !== document.documentElement; el = el.parentElement) {
    var info = {tag: el.tagName.toLowerCase()};
    if (el.id) info.id = el.id;
    if (el.classList && el.classList.length) info.classes = Array.prototype.slice.call(el.classList);
    report.chain.push(info);
  }
  break;
}
return JSON.stringify({ok:true, data:report});`

func jsDetect() string {
	return cdpcontrol.WrapJSEval(jsDetectBody)
}
