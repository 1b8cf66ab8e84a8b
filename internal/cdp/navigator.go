// Package cdp drives browser-level target operations through chromedp: opening,
// foregrounding and closing tabs.
package cdp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	cdpexec "github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/dgnsrekt/vue_devtools_enabler/internal/types"
)

// ErrNotConnected is returned before Connect succeeded or after Close.
var ErrNotConnected = errors.New("navigator not connected")

// Navigator holds one chromedp browser connection. It never attaches to page
// targets itself; page sessions belong to cdpcontrol.
type Navigator struct {
	cdpURL string

	mu          sync.Mutex
	allocCancel context.CancelFunc
	ctxCancel   context.CancelFunc
	browserCtx  context.Context
}

func NewNavigator(cdpURL string) *Navigator {
	return &Navigator{cdpURL: cdpURL}
}

// Connect dials the browser. Listing targets allocates the browser executor
// without creating a tab.
func (n *Navigator) Connect(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.browserCtx != nil {
		return nil
	}

	slog.Info("navigator connecting", "url", n.cdpURL)
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(context.Background(), n.cdpURL)
	browserCtx, ctxCancel := chromedp.NewContext(allocCtx)

	if _, err := chromedp.Targets(browserCtx); err != nil {
		ctxCancel()
		allocCancel()
		return fmt.Errorf("failed to connect to browser: %w", err)
	}
	if err := ctx.Err(); err != nil {
		ctxCancel()
		allocCancel()
		return err
	}

	n.allocCancel = allocCancel
	n.ctxCancel = ctxCancel
	n.browserCtx = browserCtx
	slog.Info("navigator connected")
	return nil
}

// Close drops the browser connection. The browser keeps running.
func (n *Navigator) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ctxCancel != nil {
		n.ctxCancel()
	}
	if n.allocCancel != nil {
		n.allocCancel()
	}
	n.browserCtx, n.ctxCancel, n.allocCancel = nil, nil, nil
	slog.Info("navigator closed")
	return nil
}

// Open creates a tab showing url and returns its id.
func (n *Navigator) Open(ctx context.Context, url string) (types.TabID, error) {
	var id target.ID
	err := n.do(ctx, func(ctx context.Context) error {
		var err error
		id, err = target.CreateTarget(url).Do(ctx)
		return err
	})
	if err != nil {
		return "", err
	}
	slog.Info("navigator opened tab", "tab_id", id, "url", truncateURL(url))
	return types.TabID(id), nil
}

// Activate brings tab to the foreground.
func (n *Navigator) Activate(ctx context.Context, tab types.TabID) error {
	return n.do(ctx, func(ctx context.Context) error {
		return target.ActivateTarget(target.ID(tab)).Do(ctx)
	})
}

// CloseTab closes tab.
func (n *Navigator) CloseTab(ctx context.Context, tab types.TabID) error {
	return n.do(ctx, func(ctx context.Context) error {
		return target.CloseTarget(target.ID(tab)).Do(ctx)
	})
}

// do runs fn against the browser executor. ctx bounds the call only; the
// connection itself lives on the browser context.
func (n *Navigator) do(ctx context.Context, fn func(context.Context) error) error {
	n.mu.Lock()
	browserCtx := n.browserCtx
	n.mu.Unlock()
	if browserCtx == nil {
		return ErrNotConnected
	}
	c := chromedp.FromContext(browserCtx)
	if c == nil || c.Browser == nil {
		return ErrNotConnected
	}
	return fn(cdpexec.WithExecutor(ctx, c.Browser))
}

func truncateURL(url string) string {
	if len(url) > 120 {
		return url[:120] + "..."
	}
	return url
}
