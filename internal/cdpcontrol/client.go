package cdpcontrol

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/target"

	"github.com/dgnsrekt/vue_devtools_enabler/internal/types"
)

const defaultEvalTimeout = 5 * time.Second

// transientHints are substrings in error causes that indicate a transient
// failure worth retrying (e.g. broken connection, closed session).
var transientHints = []string{
	"context canceled",
	"target closed",
	"session closed",
	"no session with given id",
	"websocket",
	"connection reset",
	"broken pipe",
	"eof",
	"connection refused",
	"connection closed",
}

// subscribedEvents are the CDP events the client reacts to.
var subscribedEvents = []string{
	"Target.targetCreated",
	"Target.targetInfoChanged",
	"Target.targetDestroyed",
	"Page.loadEventFired",
	"Runtime.executionContextCreated",
	"Runtime.executionContextDestroyed",
	"Runtime.executionContextsCleared",
	"Runtime.bindingCalled",
}

type world int

const (
	worldMain world = iota
	worldBridge
)

type tabSession struct {
	info      types.TabInfo
	mu        sync.Mutex
	sessionID string // CDP session ID from Target.attachToTarget
	bridgeCtx atomic.Int64
}

type cdpEvent struct {
	cdp       *rawCDP
	method    string
	sessionID string
	params    json.RawMessage
}

// Client owns the browser connection, one flat session per page target and
// the bridge world inside each of them.
type Client struct {
	cdpURL      string
	evalTimeout time.Duration
	bridge      BridgeConfig

	mu         sync.Mutex
	cdp        *rawCDP
	tabs       map[target.ID]*tabSession
	unregister []func()

	sessMu   sync.RWMutex
	sessions map[string]target.ID

	tabLocksMu sync.Mutex
	tabLocks   map[target.ID]*sync.Mutex

	inbox  *eventQueue[cdpEvent]
	outbox *eventQueue[TabEvent]
	events chan TabEvent

	startOnce sync.Once
	loopCtx   context.Context
	stopLoops context.CancelFunc
}

type evalEnvelope struct {
	OK           bool            `json:"ok"`
	Data         json.RawMessage `json:"data,omitempty"`
	ErrorCode    string          `json:"error_code,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

func NewClient(cdpURL string, evalTimeout time.Duration, bridge BridgeConfig) *Client {
	if evalTimeout <= 0 {
		evalTimeout = defaultEvalTimeout
	}
	loopCtx, stop := context.WithCancel(context.Background())
	return &Client{
		cdpURL:      cdpURL,
		evalTimeout: evalTimeout,
		bridge:      bridge,
		tabs:        make(map[target.ID]*tabSession),
		sessions:    make(map[string]target.ID),
		tabLocks:    make(map[target.ID]*sync.Mutex),
		inbox:       newEventQueue[cdpEvent](),
		outbox:      newEventQueue[TabEvent](),
		events:      make(chan TabEvent, 64),
		loopCtx:     loopCtx,
		stopLoops:   stop,
	}
}

// Events returns the tab event stream. It is closed after Close.
func (c *Client) Events() <-chan TabEvent {
	return c.events
}

func (c *Client) Connect(ctx context.Context) error {
	c.startOnce.Do(c.startLoops)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

func (c *Client) startLoops() {
	go c.inbox.drain(c.loopCtx, c.handleEvent)
	go func() {
		defer close(c.events)
		c.outbox.drain(c.loopCtx, func(ev TabEvent) {
			select {
			case c.events <- ev:
			case <-c.loopCtx.Done():
			}
		})
	}()
}

func (c *Client) connectLocked(ctx context.Context) error {
	if c.cdpURL == "" {
		return newError(CodeCDPUnavailable, "missing CDP URL", nil)
	}

	slog.Info("cdpcontrol connect start", "cdp_url", c.cdpURL)
	c.cleanupLocked()

	cdp := newRawCDP(c.cdpURL)
	if err := cdp.connect(ctx); err != nil {
		return newError(CodeCDPUnavailable, "connect to CDP failed", err)
	}
	c.cdp = cdp

	for _, method := range subscribedEvents {
		c.unregister = append(c.unregister, cdp.registerEventHandler(method, func(sessionID string, params json.RawMessage) {
			c.inbox.push(cdpEvent{cdp: cdp, method: method, sessionID: sessionID, params: params})
		}))
	}

	if err := cdp.setDiscoverTargets(ctx); err != nil {
		c.cleanupLocked()
		return newError(CodeCDPUnavailable, "enable target discovery failed", err)
	}

	if err := c.syncTabsLocked(ctx); err != nil {
		slog.Error("cdpcontrol initial tab sync failed", "error", err)
		c.cleanupLocked()
		return newError(CodeCDPUnavailable, "connect to CDP failed", err)
	}

	slog.Info("cdpcontrol connect ok", "cdp_url", c.cdpURL, "tabs", len(c.tabs))
	return nil
}

// Close detaches every session and stops the event stream.
func (c *Client) Close() error {
	c.mu.Lock()
	c.cleanupLocked()
	c.mu.Unlock()
	c.stopLoops()
	return nil
}

func (c *Client) cleanupLocked() {
	for _, fn := range c.unregister {
		fn()
	}
	c.unregister = nil

	// Detach from any active sessions without closing targets.
	if c.cdp != nil {
		for targetID, session := range c.tabs {
			if session == nil {
				continue
			}
			session.mu.Lock()
			if session.sessionID != "" {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				if err := c.cdp.detachFromTarget(ctx, session.sessionID); err != nil {
					slog.Debug("cdpcontrol detach cleanup failed", "target_id", targetID, "session_id", session.sessionID, "error", err)
				}
				cancel()
				session.sessionID = ""
			}
			session.mu.Unlock()
		}
		c.cdp.close()
		c.cdp = nil
	}
	c.tabs = make(map[target.ID]*tabSession)

	c.sessMu.Lock()
	c.sessions = make(map[string]target.ID)
	c.sessMu.Unlock()
}

// ListTabs refreshes the target list and returns every page tab.
func (c *Client) ListTabs(ctx context.Context) ([]types.TabInfo, error) {
	if err := c.refreshTabs(ctx); err != nil {
		slog.Warn("cdpcontrol list tabs failed", "error", err)
		return nil, err
	}
	return c.Tabs(), nil
}

// Tabs returns the currently known page tabs without contacting the browser.
func (c *Client) Tabs() []types.TabInfo {
	c.mu.Lock()
	tabs := make([]types.TabInfo, 0, len(c.tabs))
	for _, s := range c.tabs {
		if s != nil {
			tabs = append(tabs, s.info)
		}
	}
	c.mu.Unlock()

	sort.Slice(tabs, func(i, j int) bool {
		return tabs[i].ID < tabs[j].ID
	})
	return tabs
}

// Tab returns the known info for a tab.
func (c *Client) Tab(tab types.TabID) (types.TabInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.tabs[target.ID(tab)]
	if !ok || s == nil {
		return types.TabInfo{}, false
	}
	return s.info, true
}

// EvalMain evaluates a wrapped expression in the tab's main world and decodes
// the envelope data into out.
func (c *Client) EvalMain(ctx context.Context, tab types.TabID, js string, out any) error {
	return c.evalOnTab(ctx, tab, worldMain, js, out)
}

// EvalBridge evaluates a wrapped expression in the tab's bridge world.
func (c *Client) EvalBridge(ctx context.Context, tab types.TabID, js string, out any) error {
	return c.evalOnTab(ctx, tab, worldBridge, js, out)
}

func (c *Client) evalOnTab(ctx context.Context, tab types.TabID, w world, js string, out any) error {
	targetID := target.ID(strings.TrimSpace(string(tab)))
	if targetID == "" {
		return newError(CodeValidation, "tab id is required", nil)
	}

	lock := c.tabLock(targetID)
	lock.Lock()
	defer lock.Unlock()

	// First attempt.
	slog.Debug("cdpcontrol eval on tab", "tab_id", targetID, "bridge", w == worldBridge)
	session, err := c.resolveTabSession(ctx, targetID)
	if err != nil {
		slog.Warn("cdpcontrol tab resolve failed", "tab_id", targetID, "error", err)
	} else {
		err = c.evalOnSession(ctx, session, targetID, w, js, out)
	}
	if err == nil {
		return nil
	}
	if !c.shouldRetry(err) {
		return err
	}

	// Retry after recovery.
	slog.Warn("cdpcontrol eval retry after transient failure", "tab_id", targetID, "error", err)
	if c.asCode(err, CodeCDPUnavailable) {
		if recErr := c.reconnect(ctx); recErr != nil {
			slog.Error("cdpcontrol reconnect failed during retry", "tab_id", targetID, "error", recErr)
			return recErr
		}
	} else {
		if syncErr := c.refreshTabs(ctx); syncErr != nil {
			slog.Warn("cdpcontrol tab refresh failed during retry", "tab_id", targetID, "error", syncErr)
		}
	}

	session, err = c.resolveTabSession(ctx, targetID)
	if err != nil {
		slog.Warn("cdpcontrol tab resolve failed (retry)", "tab_id", targetID, "error", err)
		return err
	}
	return c.evalOnSession(ctx, session, targetID, w, js, out)
}

func (c *Client) evalOnSession(ctx context.Context, session *tabSession, targetID target.ID, w world, js string, out any) error {
	c.mu.Lock()
	cdp := c.cdp
	c.mu.Unlock()
	if cdp == nil {
		return newError(CodeCDPUnavailable, "CDP client not connected", nil)
	}

	// Ensure we have a session attached to this target.
	sessionID, err := c.ensureSession(ctx, cdp, session, targetID)
	if err != nil {
		return err
	}

	var contextID runtime.ExecutionContextID
	if w == worldBridge {
		contextID = runtime.ExecutionContextID(session.bridgeCtx.Load())
		if contextID == 0 {
			return newError(CodeBridgeUnavailable, "bridge world not ready", nil)
		}
	}

	evalCtx, evalCancel := context.WithTimeout(ctx, c.evalTimeout)
	defer evalCancel()

	raw, err := cdp.evaluate(evalCtx, sessionID, contextID, js)
	if err != nil {
		slog.Warn("cdpcontrol eval failed", "tab_id", targetID, "error", err)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(evalCtx.Err(), context.DeadlineExceeded) {
			return newError(CodeEvalTimeout, "evaluation timed out", err)
		}
		// Reset session so a fresh attach happens on retry.
		c.resetSession(cdp, session)
		return newError(CodeEvalFailure, "evaluation failed", err)
	}

	return DecodeEnvelope(raw, out)
}

// DecodeEnvelope unpacks the JSON envelope returned by a WrapJSEval
// expression, turning a failed envelope into a coded error and decoding the
// data payload into out.
func DecodeEnvelope(raw string, out any) error {
	var env evalEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return newError(CodeEvalFailure, "invalid evaluation envelope", err)
	}
	if !env.OK {
		code := env.ErrorCode
		if code == "" {
			code = CodeEvalFailure
		}
		return newError(code, env.ErrorMessage, nil)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return newError(CodeEvalFailure, "invalid evaluation data", err)
	}
	return nil
}

// ensureSession returns a CDP session ID for the target, attaching and
// installing the bridge world if needed.
func (c *Client) ensureSession(ctx context.Context, cdp *rawCDP, session *tabSession, targetID target.ID) (string, error) {
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.sessionID != "" {
		return session.sessionID, nil
	}

	sid, err := cdp.attachToTarget(ctx, string(targetID))
	if err != nil {
		return "", newError(CodeCDPUnavailable, "attach to target failed", err)
	}
	session.sessionID = sid
	session.bridgeCtx.Store(0)

	c.sessMu.Lock()
	c.sessions[sid] = targetID
	c.sessMu.Unlock()

	slog.Debug("cdpcontrol session attached", "tab_id", targetID, "session_id", sid)

	if err := c.installBridge(ctx, cdp, session, sid, targetID); err != nil {
		// Main-world evaluation still works without the bridge.
		slog.Warn("cdpcontrol bridge install failed", "tab_id", targetID, "error", err)
	}
	return sid, nil
}

func (c *Client) installBridge(ctx context.Context, cdp *rawCDP, session *tabSession, sessionID string, targetID target.ID) error {
	if err := cdp.enablePageDomain(ctx, sessionID); err != nil {
		return err
	}
	if err := cdp.enableRuntimeDomain(ctx, sessionID); err != nil {
		return err
	}
	if c.bridge.WorldName == "" || c.bridge.Script == "" {
		return nil
	}
	if err := cdp.addBinding(ctx, sessionID, c.bridge.BindingName, c.bridge.WorldName); err != nil {
		return err
	}
	if _, err := cdp.addWorldScript(ctx, sessionID, c.bridge.Script, c.bridge.WorldName, false); err != nil {
		return err
	}

	// The current document predates the script registration.
	ctxID, err := cdp.createIsolatedWorld(ctx, sessionID, string(targetID), c.bridge.WorldName)
	if err != nil {
		return err
	}
	if _, err := cdp.evaluate(ctx, sessionID, ctxID, c.bridge.Script); err != nil {
		return err
	}
	session.bridgeCtx.Store(int64(ctxID))
	slog.Debug("cdpcontrol bridge installed", "tab_id", targetID, "context_id", ctxID)
	return nil
}

// resetSession detaches a broken session so the next call attaches afresh.
func (c *Client) resetSession(cdp *rawCDP, session *tabSession) {
	session.mu.Lock()
	sid := session.sessionID
	session.sessionID = ""
	session.bridgeCtx.Store(0)
	session.mu.Unlock()
	if sid == "" {
		return
	}

	c.sessMu.Lock()
	delete(c.sessions, sid)
	c.sessMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := cdp.detachFromTarget(ctx, sid); err != nil {
		slog.Debug("cdpcontrol detach after failure", "session_id", sid, "error", err)
	}
}

func (c *Client) resolveTabSession(ctx context.Context, targetID target.ID) (*tabSession, error) {
	if session, found := c.lookupTabSession(targetID); found {
		return session, nil
	}

	if err := c.refreshTabs(ctx); err != nil {
		return nil, err
	}

	if session, found := c.lookupTabSession(targetID); found {
		return session, nil
	}
	return nil, newError(CodeTabNotFound, "tab not found: "+string(targetID), nil)
}

func (c *Client) lookupTabSession(targetID target.ID) (*tabSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	session := c.tabs[targetID]
	return session, session != nil
}

func (c *Client) refreshTabs(ctx context.Context) error {
	if err := c.ensureConnected(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.syncTabsLocked(ctx)
}

func (c *Client) reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

func (c *Client) syncTabsLocked(ctx context.Context) error {
	if c.cdp == nil {
		return newError(CodeCDPUnavailable, "CDP client not connected", nil)
	}

	targets, err := c.cdp.listTargets(ctx)
	if err != nil {
		return newError(CodeCDPUnavailable, "failed to list targets", err)
	}

	expected := make(map[target.ID]types.TabInfo)
	for _, t := range targets {
		if t.Type != "page" {
			continue
		}
		expected[t.TargetID] = tabInfoFrom(t)
	}

	for targetID := range c.tabs {
		if _, ok := expected[targetID]; ok {
			continue
		}
		c.forgetLocked(targetID)
	}

	var added []*tabSession
	for targetID, info := range expected {
		session := c.tabs[targetID]
		if session != nil {
			session.info = info
			continue
		}
		session = &tabSession{info: info}
		c.tabs[targetID] = session
		added = append(added, session)
	}

	for _, session := range added {
		if _, err := c.ensureSession(ctx, c.cdp, session, target.ID(session.info.ID)); err != nil {
			slog.Warn("cdpcontrol attach failed", "tab_id", session.info.ID, "error", err)
			continue
		}
		c.emit(TabEvent{Kind: TabAttached, Tab: session.info})
	}

	// Prune tab locks for tabs no longer present.
	c.tabLocksMu.Lock()
	for id := range c.tabLocks {
		if _, ok := c.tabs[id]; !ok {
			delete(c.tabLocks, id)
		}
	}
	c.tabLocksMu.Unlock()

	slog.Debug("cdpcontrol tab sync", "targets", len(targets), "tabs", len(c.tabs), "attached", len(added))
	return nil
}

// forgetLocked drops a tab that no longer exists and reports it closed.
func (c *Client) forgetLocked(targetID target.ID) {
	session := c.tabs[targetID]
	delete(c.tabs, targetID)
	if session == nil {
		return
	}

	c.sessMu.Lock()
	for sid, tid := range c.sessions {
		if tid == targetID {
			delete(c.sessions, sid)
		}
	}
	c.sessMu.Unlock()

	c.emit(TabEvent{Kind: TabClosed, Tab: session.info})
}

func (c *Client) ensureConnected(ctx context.Context) error {
	c.mu.Lock()
	connected := c.cdp != nil
	c.mu.Unlock()
	if connected {
		return nil
	}
	return c.reconnect(ctx)
}

func (c *Client) tabLock(targetID target.ID) *sync.Mutex {
	c.tabLocksMu.Lock()
	defer c.tabLocksMu.Unlock()
	m, ok := c.tabLocks[targetID]
	if !ok {
		m = &sync.Mutex{}
		c.tabLocks[targetID] = m
	}
	return m
}

func (c *Client) shouldRetry(err error) bool {
	var coded *CodedError
	if !errors.As(err, &coded) {
		return false
	}

	switch coded.Code {
	case CodeCDPUnavailable:
		return true
	case CodeTabNotFound, CodeBridgeUnavailable:
		return false
	case CodeEvalFailure:
		if coded.Cause == nil {
			return false
		}
		cause := strings.ToLower(coded.Cause.Error())
		for _, hint := range transientHints {
			if strings.Contains(cause, hint) {
				return true
			}
		}
	}
	return false
}

func (c *Client) asCode(err error, code string) bool {
	var coded *CodedError
	if !errors.As(err, &coded) {
		return false
	}
	return coded.Code == code
}

func (c *Client) emit(ev TabEvent) {
	slog.Debug("cdpcontrol tab event", "kind", ev.Kind, "tab_id", ev.Tab.ID)
	c.outbox.push(ev)
}

func tabInfoFrom(t *target.Info) types.TabInfo {
	return types.TabInfo{
		ID:    types.TabID(t.TargetID),
		URL:   t.URL,
		Title: t.Title,
	}
}
