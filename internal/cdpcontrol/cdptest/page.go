// Package cdptest evaluates page scripts in a headless browser so tests can
// run them against a real DOM. Tests skip when no Chrome binary is installed
// or when -short is set.
package cdptest

import (
	"context"
	"testing"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/dgnsrekt/vue_devtools_enabler/internal/browser"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/cdpcontrol"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/types"
)

const evalTimeout = 10 * time.Second

// Page is a single blank headless tab. It satisfies the EvalMain side of the
// CDP client, so detection and activation code can run against it unchanged.
type Page struct {
	ctx context.Context
}

// NewPage starts a headless browser on about:blank. The browser is torn down
// when the test ends.
func NewPage(t testing.TB) *Page {
	t.Helper()
	if testing.Short() {
		t.Skip("headless browser disabled in short mode")
	}
	path, err := browser.FindBinary()
	if err != nil {
		t.Skipf("headless browser unavailable: %v", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(path),
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancel := chromedp.NewContext(allocCtx)
	t.Cleanup(func() {
		cancel()
		cancelAlloc()
	})

	startCtx, cancelStart := context.WithTimeout(ctx, 30*time.Second)
	defer cancelStart()
	if err := chromedp.Run(startCtx, chromedp.Navigate("about:blank")); err != nil {
		t.Fatalf("start headless browser: %v", err)
	}
	return &Page{ctx: ctx}
}

// Load replaces the document body with html and then runs setup, a block of
// statements that decorates the new elements.
func (p *Page) Load(t testing.TB, html, setup string) {
	t.Helper()
	js := "(function(){\ndocument.body.innerHTML = " + cdpcontrol.JSString(html) + ";\n" + setup + "\nreturn true;\n})()"
	var ok bool
	if err := p.run(chromedp.Evaluate(js, &ok)); err != nil || !ok {
		t.Fatalf("load page: ok=%v err=%v", ok, err)
	}
}

// Value evaluates a plain expression and decodes its JSON result into out.
func (p *Page) Value(t testing.TB, expr string, out any) {
	t.Helper()
	if err := p.run(chromedp.Evaluate(expr, out)); err != nil {
		t.Fatalf("evaluate %q: %v", expr, err)
	}
}

// EvalMain runs a wrapped expression in the page and unpacks its envelope.
// Every tab id maps to the one page.
func (p *Page) EvalMain(_ context.Context, _ types.TabID, js string, out any) error {
	var raw string
	if err := p.run(chromedp.Evaluate(js, &raw)); err != nil {
		return cdpcontrol.NewError(cdpcontrol.CodeEvalFailure, "evaluation failed", err)
	}
	return cdpcontrol.DecodeEnvelope(raw, out)
}

func (p *Page) run(action chromedp.Action) error {
	ctx, cancel := context.WithTimeout(p.ctx, evalTimeout)
	defer cancel()
	return chromedp.Run(ctx, action)
}
