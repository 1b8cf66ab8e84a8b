package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgnsrekt/vue_devtools_enabler/internal/types"
)

type tabTable map[types.TabID]string

func (t tabTable) Tab(tab types.TabID) (types.TabInfo, bool) {
	u, ok := t[tab]
	return types.TabInfo{ID: tab, URL: u}, ok
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoadFileMissingIsEmpty(t *testing.T) {
	f, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, f.Overrides)
}

func TestLoadFileValidates(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"missing host":     "overrides:\n  - selector: '#app'\n",
		"missing selector": "overrides:\n  - host: example.com\n",
		"duplicate host":   "overrides:\n  - host: example.com\n    selector: '#a'\n  - host: EXAMPLE.com\n    selector: '#b'\n",
		"bad yaml":         "overrides: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			writeFile(t, path, body)
			_, err := LoadFile(path)
			assert.Error(t, err)
		})
	}
}

func TestResolvePrefersHostPortOverHostname(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	writeFile(t, path, `overrides:
  - host: localhost
    selector: "#root"
  - host: localhost:5173
    selector: "body > div#app"
`)
	tabs := tabTable{
		"dev":   "http://localhost:5173/page",
		"other": "http://LOCALHOST:8080/",
		"plain": "https://example.com/",
	}
	s, err := NewSelectors(path, tabs)
	require.NoError(t, err)

	assert.Equal(t, "body > div#app", s.Resolve("dev", "div#detected"))
	assert.Equal(t, "#root", s.Resolve("other", "div#detected"))
	assert.Equal(t, "div#detected", s.Resolve("plain", "div#detected"))
	assert.Equal(t, "div#detected", s.Resolve("gone", "div#detected"))
}

func TestReplacePersistsAndSwaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "selectors.yaml")
	s, err := NewSelectors(path, tabTable{"a": "https://shop.example.com/"})
	require.NoError(t, err)

	err = s.Replace([]Override{{Host: "shop.example.com", Selector: "main > div.app"}})
	require.NoError(t, err)
	assert.Equal(t, "main > div.app", s.Resolve("a", "div#x"))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []Override{{Host: "shop.example.com", Selector: "main > div.app"}}, f.Overrides)

	err = s.Replace([]Override{{Host: "", Selector: "x"}})
	assert.Error(t, err)
	assert.Len(t, s.List(), 1)
}

func TestInMemoryWhenPathEmpty(t *testing.T) {
	s, err := NewSelectors("", nil)
	require.NoError(t, err)
	require.NoError(t, s.Replace([]Override{{Host: "example.com", Selector: "#app"}}))

	sel, ok := s.ForURL("https://example.com/x")
	assert.True(t, ok)
	assert.Equal(t, "#app", sel)
	assert.Equal(t, "div", s.Resolve("any", "div"))
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	writeFile(t, path, "overrides: []\n")
	s, err := NewSelectors(path, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// Keep rewriting until the watcher has been registered and picked it up.
	require.Eventually(t, func() bool {
		writeFile(t, path, "overrides:\n  - host: example.com\n    selector: '#app'\n")
		_, ok := s.ForURL("https://example.com/")
		return ok
	}, 3*time.Second, 50*time.Millisecond)
}

func TestWatchCreatesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "config")
	s, err := NewSelectors(filepath.Join(dir, "selectors.yaml"), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(dir)
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}
