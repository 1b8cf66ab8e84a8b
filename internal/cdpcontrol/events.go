package cdpcontrol

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/target"
)

// executionContextCreated mirrors Runtime.executionContextCreated. auxData
// is decoded by hand because only frameId and isDefault matter here.
type executionContextCreated struct {
	Context struct {
		ID      runtime.ExecutionContextID `json:"id"`
		Name    string                     `json:"name"`
		AuxData struct {
			FrameID   string `json:"frameId"`
			IsDefault bool   `json:"isDefault"`
		} `json:"auxData"`
	} `json:"context"`
}

type executionContextDestroyed struct {
	ExecutionContextID runtime.ExecutionContextID `json:"executionContextId"`
}

// handleEvent runs on the inbox goroutine, never on the read loop, so it may
// issue CDP commands.
func (c *Client) handleEvent(ev cdpEvent) {
	c.mu.Lock()
	current := c.cdp
	c.mu.Unlock()
	if current == nil || ev.cdp != current {
		return
	}

	switch ev.method {
	case "Target.targetCreated":
		var e target.EventTargetCreated
		if err := json.Unmarshal(ev.params, &e); err != nil || e.TargetInfo == nil {
			return
		}
		if e.TargetInfo.Type != "page" {
			return
		}
		c.attachNew(current, e.TargetInfo)

	case "Target.targetInfoChanged":
		var e target.EventTargetInfoChanged
		if err := json.Unmarshal(ev.params, &e); err != nil || e.TargetInfo == nil {
			return
		}
		c.mu.Lock()
		if session := c.tabs[e.TargetInfo.TargetID]; session != nil {
			session.info = tabInfoFrom(e.TargetInfo)
		}
		c.mu.Unlock()

	case "Target.targetDestroyed":
		var e target.EventTargetDestroyed
		if err := json.Unmarshal(ev.params, &e); err != nil {
			return
		}
		c.mu.Lock()
		c.forgetLocked(e.TargetID)
		c.mu.Unlock()

	case "Page.loadEventFired":
		session, ok := c.sessionFor(ev.sessionID)
		if !ok {
			return
		}
		c.mu.Lock()
		info := session.info
		c.mu.Unlock()
		c.emit(TabEvent{Kind: TabNavigated, Tab: info})

	case "Runtime.executionContextCreated":
		var e executionContextCreated
		if err := json.Unmarshal(ev.params, &e); err != nil {
			return
		}
		if e.Context.Name != c.bridge.WorldName || c.bridge.WorldName == "" {
			return
		}
		c.sessMu.RLock()
		targetID, ok := c.sessions[ev.sessionID]
		c.sessMu.RUnlock()
		if !ok || e.Context.AuxData.FrameID != string(targetID) {
			return
		}
		if session, ok := c.sessionFor(ev.sessionID); ok {
			session.bridgeCtx.Store(int64(e.Context.ID))
			slog.Debug("cdpcontrol bridge context created", "tab_id", targetID, "context_id", e.Context.ID)
		}

	case "Runtime.executionContextDestroyed":
		var e executionContextDestroyed
		if err := json.Unmarshal(ev.params, &e); err != nil {
			return
		}
		if session, ok := c.sessionFor(ev.sessionID); ok {
			session.bridgeCtx.CompareAndSwap(int64(e.ExecutionContextID), 0)
		}

	case "Runtime.executionContextsCleared":
		if session, ok := c.sessionFor(ev.sessionID); ok {
			session.bridgeCtx.Store(0)
		}

	case "Runtime.bindingCalled":
		var e runtime.EventBindingCalled
		if err := json.Unmarshal(ev.params, &e); err != nil {
			return
		}
		if e.Name != c.bridge.BindingName {
			return
		}
		session, ok := c.sessionFor(ev.sessionID)
		if !ok {
			slog.Debug("cdpcontrol binding call from unknown session", "session_id", ev.sessionID)
			return
		}
		c.mu.Lock()
		info := session.info
		c.mu.Unlock()
		c.emit(TabEvent{Kind: TabMessage, Tab: info, Payload: e.Payload})
	}
}

// attachNew registers a freshly created page target and attaches to it.
func (c *Client) attachNew(cdp *rawCDP, t *target.Info) {
	c.mu.Lock()
	if session := c.tabs[t.TargetID]; session != nil {
		session.info = tabInfoFrom(t)
		c.mu.Unlock()
		return
	}
	session := &tabSession{info: tabInfoFrom(t)}
	c.tabs[t.TargetID] = session
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(c.loopCtx, c.evalTimeout)
	defer cancel()
	if _, err := c.ensureSession(ctx, cdp, session, t.TargetID); err != nil {
		slog.Warn("cdpcontrol attach new target failed", "tab_id", t.TargetID, "error", err)
		return
	}

	c.mu.Lock()
	info := session.info
	c.mu.Unlock()
	c.emit(TabEvent{Kind: TabAttached, Tab: info})
}

func (c *Client) sessionFor(sessionID string) (*tabSession, bool) {
	if sessionID == "" {
		return nil, false
	}
	c.sessMu.RLock()
	targetID, ok := c.sessions[sessionID]
	c.sessMu.RUnlock()
	if !ok {
		return nil, false
	}
	return c.lookupTabSession(targetID)
}
