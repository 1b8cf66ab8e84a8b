package tabstate

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgnsrekt/vue_devtools_enabler/internal/types"
)

var modern = types.NewDetectionResult(types.Exact("3.4.0"), "body > div.root")

func TestGetAbsentUntilProbed(t *testing.T) {
	s := New(true)
	_, ok := s.Get("tab-1")
	assert.False(t, ok)

	seq := s.Begin("tab-1")
	require.True(t, s.Apply("tab-1", seq, types.NotDetected()))

	got, ok := s.Get("tab-1")
	require.True(t, ok)
	assert.False(t, got.Detected())
}

func TestSetOverwritesAndRemoveIsIdempotent(t *testing.T) {
	s := New(false)
	s.Set("tab-1", modern)
	s.Set("tab-1", types.NotDetected())

	got, ok := s.Get("tab-1")
	require.True(t, ok)
	assert.False(t, got.Detected())

	s.Remove("tab-1")
	s.Remove("tab-1")
	s.Remove("never-seen")
	_, ok = s.Get("tab-1")
	assert.False(t, ok)
	assert.Zero(t, s.Len())
}

func TestRemoveClearsRegardlessOfOutcome(t *testing.T) {
	for _, r := range []types.DetectionResult{modern, types.NotDetected()} {
		s := New(true)
		s.Set("tab-1", r)
		s.Remove("tab-1")
		_, ok := s.Get("tab-1")
		assert.False(t, ok)
	}
}

func TestApplyDiscardsStaleSettleWithFencing(t *testing.T) {
	s := New(true)
	first := s.Begin("tab-1")
	second := s.Begin("tab-1")

	require.True(t, s.Apply("tab-1", second, modern))
	assert.False(t, s.Apply("tab-1", first, types.NotDetected()))

	got, _ := s.Get("tab-1")
	assert.Equal(t, modern, got)
}

func TestApplyLastWriteWinsWithoutFencing(t *testing.T) {
	s := New(false)
	first := s.Begin("tab-1")
	second := s.Begin("tab-1")

	require.True(t, s.Apply("tab-1", second, modern))
	require.True(t, s.Apply("tab-1", first, types.NotDetected()))

	got, _ := s.Get("tab-1")
	assert.False(t, got.Detected())
}

func TestInFlightProbeSettlesAfterRemove(t *testing.T) {
	s := New(true)
	seq := s.Begin("tab-1")
	s.Set("tab-1", modern)
	s.Remove("tab-1")

	require.True(t, s.Apply("tab-1", seq, types.NotDetected()))
	got, ok := s.Get("tab-1")
	require.True(t, ok)
	assert.False(t, got.Detected())
}

func TestListIsSortedSnapshot(t *testing.T) {
	s := New(true)
	s.Set("b", modern)
	s.Set("a", types.NotDetected())

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, types.TabID("a"), list[0].TabID)
	assert.Equal(t, types.TabID("b"), list[1].TabID)

	s.Remove("a")
	assert.Len(t, list, 2)
}

func TestConcurrentAccess(t *testing.T) {
	s := New(true)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq := s.Begin("tab-1")
			s.Apply("tab-1", seq, modern)
			s.Get("tab-1")
			s.List()
		}()
	}
	wg.Wait()
	_, ok := s.Get("tab-1")
	assert.True(t, ok)
}
