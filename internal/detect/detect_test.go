package detect

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgnsrekt/vue_devtools_enabler/internal/tabstate"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/types"
)

type fakeEvaluator struct {
	mu      sync.Mutex
	reports map[types.TabID]string
	errs    map[types.TabID]error
	scripts []string
}

func (f *fakeEvaluator) EvalMain(_ context.Context, tab types.TabID, js string, out any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts = append(f.scripts, js)
	if err := f.errs[tab]; err != nil {
		return err
	}
	return json.Unmarshal([]byte(f.reports[tab]), out)
}

type recordingIcons struct {
	mu      sync.Mutex
	refresh map[types.TabID]types.DetectionResult
}

func (r *recordingIcons) Refresh(tab types.TabID, result types.DetectionResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.refresh == nil {
		r.refresh = make(map[types.TabID]types.DetectionResult)
	}
	r.refresh[tab] = result
}

func TestBuildRootSelector(t *testing.T) {
	tests := []struct {
		name  string
		chain []ElementInfo
		want  string
	}{
		{"empty", nil, ""},
		{"element id terminates", []ElementInfo{{Tag: "DIV", ID: "app", Classes: []string{"x"}}, {Tag: "body"}}, "div#app"},
		{"class under body", []ElementInfo{{Tag: "div", Classes: []string{"root"}}, {Tag: "body"}}, "body > div.root"},
		{"multiple classes", []ElementInfo{{Tag: "main", Classes: []string{"a", "b"}}}, "main.a.b"},
		{"identified ancestor", []ElementInfo{{Tag: "section"}, {Tag: "div", ID: "shell"}, {Tag: "body"}}, "div#shell > section"},
		{"plain chain", []ElementInfo{{Tag: "span"}, {Tag: "div"}, {Tag: "body"}}, "body > div > span"},
		{"escaped id", []ElementInfo{{Tag: "div", ID: "app:1"}}, `div#app\:1`},
		{"leading digit id", []ElementInfo{{Tag: "div", ID: "1app"}}, `div#\31 app`},
		{"digit after leading hyphen", []ElementInfo{{Tag: "div", ID: "-1a"}}, `div#-\31 a`},
		{"lone hyphen class", []ElementInfo{{Tag: "div", Classes: []string{"-"}}}, `div.\-`},
		{"hyphen prefix kept", []ElementInfo{{Tag: "div", ID: "-app"}}, "div#-app"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildRootSelector(tt.chain))
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Run("no markers", func(t *testing.T) {
		got := Normalize(ProbeReport{})
		assert.Equal(t, types.NotDetected(), got)
	})

	t.Run("legacy without version", func(t *testing.T) {
		got := Normalize(ProbeReport{
			Legacy: MarkerSlot{Found: true},
			Chain:  []ElementInfo{{Tag: "div", ID: "app"}, {Tag: "body"}},
		})
		assert.Equal(t, types.VersionUnknown2x, got.Version.Kind())
		assert.Equal(t, "div#app", got.RootSelector)
		assert.Equal(t, types.FamilyLegacy, got.Family())
	})

	t.Run("legacy with version", func(t *testing.T) {
		got := Normalize(ProbeReport{
			Legacy: MarkerSlot{Found: true, Version: "2.7.16"},
			Chain:  []ElementInfo{{Tag: "div", ID: "app"}},
		})
		assert.Equal(t, types.Exact("2.7.16"), got.Version)
		assert.Equal(t, types.FamilyLegacy, got.Family())
	})

	t.Run("modern exact", func(t *testing.T) {
		got := Normalize(ProbeReport{
			Modern: MarkerSlot{Found: true, Version: "3.4.0"},
			Chain:  []ElementInfo{{Tag: "div", Classes: []string{"root"}}, {Tag: "body"}},
		})
		assert.Equal(t, types.NewDetectionResult(types.Exact("3.4.0"), "body > div.root"), got)
	})

	t.Run("modern without version stays modern", func(t *testing.T) {
		got := Normalize(ProbeReport{
			Modern: MarkerSlot{Found: true},
			Chain:  []ElementInfo{{Tag: "div", ID: "app"}},
		})
		assert.Equal(t, types.FamilyModern, got.Family())
	})

	t.Run("legacy checked first", func(t *testing.T) {
		got := Normalize(ProbeReport{
			Legacy: MarkerSlot{Found: true},
			Modern: MarkerSlot{Found: true, Version: "3.4.0"},
			Chain:  []ElementInfo{{Tag: "div", ID: "app"}},
		})
		assert.Equal(t, types.FamilyLegacy, got.Family())
	})
}

func TestSelectorPresenceFollowsVersion(t *testing.T) {
	reports := []ProbeReport{
		{},
		{Chain: []ElementInfo{{Tag: "div", ID: "app"}}},
		{Legacy: MarkerSlot{Found: true}, Chain: []ElementInfo{{Tag: "div"}}},
		{Modern: MarkerSlot{Found: true, Version: "3.0.0"}, Chain: []ElementInfo{{Tag: "div"}, {Tag: "body"}}},
	}
	for _, r := range reports {
		got := Normalize(r)
		if got.Detected() {
			assert.NotEmpty(t, got.RootSelector)
		} else {
			assert.Empty(t, got.RootSelector)
		}
	}
}

func TestExecutorStoresResultBeforeReturning(t *testing.T) {
	eval := &fakeEvaluator{reports: map[types.TabID]string{
		"tab-1": `{"modern":{"found":true,"version":"3.4.0"},"legacy":{"found":false},"chain":[{"tag":"div","classes":["root"]},{"tag":"body"}]}`,
	}}
	store := tabstate.New(true)
	icons := &recordingIcons{}
	ex := NewExecutor(eval, store, icons)

	got := ex.Detect(context.Background(), "tab-1")
	assert.Equal(t, "body > div.root", got.RootSelector)

	stored, ok := store.Get("tab-1")
	require.True(t, ok)
	assert.Equal(t, got, stored)
	assert.Equal(t, got, icons.refresh["tab-1"])

	require.Len(t, eval.scripts, 1)
	assert.Contains(t, eval.scripts[0], "__vue_app__")
	assert.True(t, strings.HasPrefix(eval.scripts[0], "(function(){"))
}

func TestExecutorForcesNotDetectedOnFailure(t *testing.T) {
	store := tabstate.New(true)
	store.Set("tab-1", types.NewDetectionResult(types.Exact("3.4.0"), "div#app"))

	eval := &fakeEvaluator{errs: map[types.TabID]error{"tab-1": errors.New("target closed")}}
	icons := &recordingIcons{}
	ex := NewExecutor(eval, store, icons)

	got := ex.Detect(context.Background(), "tab-1")
	assert.Equal(t, types.NotDetected(), got)

	stored, ok := store.Get("tab-1")
	require.True(t, ok)
	assert.False(t, stored.Detected())
	assert.False(t, icons.refresh["tab-1"].Detected())
}

func TestExecutorTabClosedMidProbeSettlesToNone(t *testing.T) {
	store := tabstate.New(true)
	eval := &fakeEvaluator{errs: map[types.TabID]error{"tab-1": errors.New("session closed")}}
	ex := NewExecutor(eval, store, nil)

	store.Remove("tab-1")
	got := ex.Detect(context.Background(), "tab-1")
	assert.False(t, got.Detected())

	stored, ok := store.Get("tab-1")
	require.True(t, ok)
	assert.Equal(t, types.VersionNone, stored.Version.Kind())
}

func TestDetectAllSkipsNonHTTPTabs(t *testing.T) {
	eval := &fakeEvaluator{reports: map[types.TabID]string{
		"a": `{"legacy":{"found":true},"modern":{"found":false},"chain":[{"tag":"div","id":"app"}]}`,
		"b": `{"legacy":{"found":false},"modern":{"found":false},"chain":[]}`,
	}}
	store := tabstate.New(true)
	ex := NewExecutor(eval, store, nil)

	ex.DetectAll(context.Background(), []types.TabInfo{
		{ID: "a", URL: "https://a.example"},
		{ID: "b", URL: "http://b.example"},
		{ID: "c", URL: "chrome://settings"},
	}, 2)

	assert.Equal(t, 2, store.Len())
	_, ok := store.Get("c")
	assert.False(t, ok)
	a, _ := store.Get("a")
	assert.Equal(t, "div#app", a.RootSelector)
}
