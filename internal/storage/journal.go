// Package storage keeps an append-only JSONL journal of detection and
// activation outcomes.
package storage

import (
	"errors"
	"log/slog"
	"time"

	"github.com/dgnsrekt/vue_devtools_enabler/internal/inject"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/types"
)

const (
	subDirDetection  = "detection"
	subDirActivation = "activation"
)

// TabURLs resolves a tab to its current document so records carry the host.
type TabURLs interface {
	Tab(tab types.TabID) (types.TabInfo, bool)
}

// DetectionRecord is one line of the detection journal.
type DetectionRecord struct {
	At           time.Time     `json:"at"`
	TabID        string        `json:"tab_id"`
	Tab          string        `json:"tab"`
	Host         string        `json:"host,omitempty"`
	Family       types.Family  `json:"family"`
	Version      types.Version `json:"version"`
	RootSelector string        `json:"root_selector,omitempty"`
}

// ActivationRecord is one line of the activation journal.
type ActivationRecord struct {
	At        time.Time    `json:"at"`
	TabID     string       `json:"tab_id"`
	Tab       string       `json:"tab"`
	Host      string       `json:"host,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
	Family    types.Family `json:"family"`
	Selector  string       `json:"selector,omitempty"`
	Success   bool         `json:"success"`
	Error     string       `json:"error,omitempty"`
	Detail    string       `json:"detail,omitempty"`
}

// Journal observes detections and activations and appends them to per-kind
// JSONL files.
type Journal struct {
	tabs       TabURLs
	detections *JSONLWriter
	activation *JSONLWriter
	now        func() time.Time
}

// NewJournal opens a journal under baseDir. runID names the files so each
// daemon run gets its own. tabs may be nil.
func NewJournal(baseDir, runID string, maxSizeMB int, tabs TabURLs) *Journal {
	return &Journal{
		tabs:       tabs,
		detections: NewJSONLWriter(baseDir, subDirDetection, 256, maxSizeMB, runID),
		activation: NewJSONLWriter(baseDir, subDirActivation, 256, maxSizeMB, runID),
		now:        time.Now,
	}
}

func (j *Journal) DetectionSettled(tab types.TabID, result types.DetectionResult) {
	rec := DetectionRecord{
		At:           j.now().UTC(),
		TabID:        string(tab),
		Tab:          ShortTabID(string(tab)),
		Host:         j.host(tab),
		Family:       result.Family(),
		Version:      result.Version,
		RootSelector: result.RootSelector,
	}
	if err := j.detections.Write(rec); err != nil {
		slog.Debug("journal detection skipped", "tab_id", tab, "error", err)
	}
}

func (j *Journal) ActivationSettled(outcome inject.Outcome) {
	rec := ActivationRecord{
		At:        j.now().UTC(),
		TabID:     string(outcome.TabID),
		Tab:       ShortTabID(string(outcome.TabID)),
		Host:      j.host(outcome.TabID),
		RequestID: outcome.RequestID,
		Family:    outcome.Family,
		Selector:  outcome.Selector,
		Success:   outcome.Result.Success,
		Error:     outcome.Result.Error,
		Detail:    outcome.Result.Detail,
	}
	if err := j.activation.Write(rec); err != nil {
		slog.Debug("journal activation skipped", "tab_id", outcome.TabID, "error", err)
	}
}

// Close flushes both writers.
func (j *Journal) Close() error {
	return errors.Join(j.detections.Close(), j.activation.Close())
}

func (j *Journal) host(tab types.TabID) string {
	if j.tabs == nil {
		return ""
	}
	info, ok := j.tabs.Tab(tab)
	if !ok {
		return ""
	}
	return HostOf(info.URL)
}
