package cdpcontrol

import (
	"bytes"
	"encoding/json"
)

// JSString renders v as a JS string literal. HTML escaping is off so CSS
// combinators such as ">" stay readable in the generated source.
func JSString(v string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}

// JSJSON renders v as a JS object literal.
func JSJSON(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func buildIIFE(async bool, body string) string {
	prefix := "(function(){\n"
	if async {
		prefix = "(async function(){\n"
	}
	return prefix + `try {
` + body + `
} catch (err) {
return JSON.stringify({ok:false,error_code:"` + CodeEvalFailure + `",error_message:String(err && err.message || err)});
}
})()`
}

// WrapJSEval wraps body in an IIFE that converts thrown exceptions into a
// failed evaluation envelope. body must return a JSON-encoded envelope.
func WrapJSEval(body string) string { return buildIIFE(false, body) }

// WrapJSEvalAsync is WrapJSEval for bodies that await.
func WrapJSEvalAsync(body string) string { return buildIIFE(true, body) }
