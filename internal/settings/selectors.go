package settings

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/dgnsrekt/vue_devtools_enabler/internal/types"
)

// TabURLs resolves a tab to its current document.
type TabURLs interface {
	Tab(tab types.TabID) (types.TabInfo, bool)
}

// Selectors serves the current overrides and keeps them in sync with the file
// on disk. An empty path keeps overrides in memory only.
type Selectors struct {
	path string
	tabs TabURLs

	mu        sync.RWMutex
	overrides []Override
	byHost    map[string]string
}

// NewSelectors loads path and returns the resolver. tabs may be nil, in which
// case Resolve always keeps the detected selector.
func NewSelectors(path string, tabs TabURLs) (*Selectors, error) {
	s := &Selectors{path: path, tabs: tabs}
	if path == "" {
		s.swap(nil)
		return s, nil
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Resolve returns the override for the tab's host, or detected when there is
// none.
func (s *Selectors) Resolve(tab types.TabID, detected string) string {
	if s.tabs == nil {
		return detected
	}
	info, ok := s.tabs.Tab(tab)
	if !ok {
		return detected
	}
	if sel, ok := s.ForURL(info.URL); ok {
		slog.Debug("selector override applied", "tab_id", tab, "selector", sel)
		return sel
	}
	return detected
}

// ForURL looks up the override for rawURL. An override naming host:port wins
// over one naming the bare hostname.
func (s *Selectors) ForURL(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sel, ok := s.byHost[normalizeHost(u.Host)]; ok {
		return sel, true
	}
	sel, ok := s.byHost[normalizeHost(u.Hostname())]
	return sel, ok
}

// List returns a copy of the current overrides in file order.
func (s *Selectors) List() []Override {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Override, len(s.overrides))
	copy(out, s.overrides)
	return out
}

// Replace validates overrides, writes them to the file and swaps them in.
func (s *Selectors) Replace(overrides []Override) error {
	if err := Validate(overrides); err != nil {
		return err
	}
	if s.path != "" {
		if err := SaveFile(s.path, &File{Overrides: overrides}); err != nil {
			return err
		}
	}
	s.swap(overrides)
	slog.Info("selector overrides replaced", "count", len(overrides))
	return nil
}

// Reload re-reads the file. On error the previous overrides stay in effect.
func (s *Selectors) Reload() error {
	f, err := LoadFile(s.path)
	if err != nil {
		return err
	}
	s.swap(f.Overrides)
	return nil
}

// Watch reloads the file whenever it changes until ctx is done. The parent
// directory is watched so editors that replace the file by rename are seen.
func (s *Selectors) Watch(ctx context.Context) error {
	if s.path == "" {
		<-ctx.Done()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("selectors watch: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("selectors watch %s: %w", dir, err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("selectors watch %s: %w", dir, err)
	}
	target := filepath.Clean(s.path)
	slog.Info("watching selector overrides", "path", target)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := s.Reload(); err != nil {
				slog.Warn("selector overrides reload failed", "path", target, "error", err)
				continue
			}
			slog.Info("selector overrides reloaded", "path", target, "count", len(s.List()))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("selectors watcher error", "error", err)
		}
	}
}

func (s *Selectors) swap(overrides []Override) {
	byHost := make(map[string]string, len(overrides))
	for _, o := range overrides {
		byHost[normalizeHost(o.Host)] = o.Selector
	}
	kept := make([]Override, len(overrides))
	copy(kept, overrides)

	s.mu.Lock()
	s.overrides = kept
	s.byHost = byHost
	s.mu.Unlock()
}
