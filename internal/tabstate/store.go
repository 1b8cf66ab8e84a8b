// Package tabstate holds the authoritative per-tab detection cache.
//
// The store is the single source of truth for what was detected in each tab.
// Other components query it on demand; none of them keep a copy.
package tabstate

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/dgnsrekt/vue_devtools_enabler/internal/types"
)

// Entry is one tab's cached detection.
type Entry struct {
	TabID  types.TabID           `json:"tab_id"`
	Result types.DetectionResult `json:"detection"`
}

// Store maps tabs to their latest DetectionResult.
//
// With fencing enabled every probe takes a sequence number from Begin and
// settles through Apply; a settle older than the last applied one for the same
// tab is dropped. Without fencing Apply always writes (last write wins).
type Store struct {
	fencing bool

	mu      sync.RWMutex
	results map[types.TabID]types.DetectionResult
	applied map[types.TabID]uint64
	seq     uint64
}

func New(fencing bool) *Store {
	return &Store{
		fencing: fencing,
		results: make(map[types.TabID]types.DetectionResult),
		applied: make(map[types.TabID]uint64),
	}
}

// Get returns the cached result for tab, if the tab was ever probed.
func (s *Store) Get(tab types.TabID) (types.DetectionResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[tab]
	return r, ok
}

// Set overwrites the tab's result unconditionally.
func (s *Store) Set(tab types.TabID, result types.DetectionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[tab] = result
}

// Remove drops the tab's entry. Removing an unknown tab is a no-op.
func (s *Store) Remove(tab types.TabID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.results, tab)
	delete(s.applied, tab)
}

// Begin issues the sequence number for a probe about to be dispatched.
// Sequence numbers are monotonic across all tabs.
func (s *Store) Begin(tab types.TabID) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	slog.Debug("tabstate probe issued", "tab_id", tab, "seq", s.seq)
	return s.seq
}

// Apply stores result for a probe started with Begin. It reports false when
// the settle was stale and discarded.
func (s *Store) Apply(tab types.TabID, seq uint64, result types.DetectionResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fencing {
		if last, ok := s.applied[tab]; ok && seq < last {
			slog.Info("tabstate stale probe discarded", "tab_id", tab, "seq", seq, "last_applied", last)
			return false
		}
	}
	s.results[tab] = result
	s.applied[tab] = seq
	return true
}

// List returns a snapshot of all entries ordered by tab id.
func (s *Store) List() []Entry {
	s.mu.RLock()
	out := make([]Entry, 0, len(s.results))
	for id, r := range s.results {
		out = append(out, Entry{TabID: id, Result: r})
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].TabID < out[j].TabID })
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}
