package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// VersionKind tags a Version.
type VersionKind string

const (
	VersionNone      VersionKind = "none"
	VersionUnknown2x VersionKind = "unknown2x"
	VersionExact     VersionKind = "exact"
)

// Version is the runtime version found in a tab: none, a legacy runtime whose
// exact version could not be read, or an exact version string.
type Version struct {
	kind  VersionKind
	exact string
}

// NoVersion is the version of a tab without a detected runtime.
func NoVersion() Version { return Version{kind: VersionNone} }

// Unknown2x is a legacy-family runtime without a readable version.
func Unknown2x() Version { return Version{kind: VersionUnknown2x} }

// Exact wraps a version string. An empty string yields NoVersion.
func Exact(v string) Version {
	v = strings.TrimSpace(v)
	if v == "" {
		return NoVersion()
	}
	return Version{kind: VersionExact, exact: v}
}

func (v Version) Kind() VersionKind {
	if v.kind == "" {
		return VersionNone
	}
	return v.kind
}

// Value returns the exact version string, or "" for None and Unknown2x.
func (v Version) Value() string { return v.exact }

func (v Version) IsNone() bool { return v.Kind() == VersionNone }

func (v Version) String() string {
	switch v.Kind() {
	case VersionExact:
		return v.exact
	case VersionUnknown2x:
		return "2.x"
	default:
		return "none"
	}
}

// Family classifies the version into a runtime family.
func (v Version) Family() Family {
	switch v.Kind() {
	case VersionUnknown2x:
		return FamilyLegacy
	case VersionExact:
		if major(v.exact) >= 3 {
			return FamilyModern
		}
		return FamilyLegacy
	default:
		return FamilyNone
	}
}

func major(v string) int {
	v = strings.TrimPrefix(v, "v")
	head, _, _ := strings.Cut(v, ".")
	n, err := strconv.Atoi(head)
	if err != nil {
		return 0
	}
	return n
}

type versionJSON struct {
	Kind  VersionKind `json:"kind"`
	Value string      `json:"value,omitempty"`
}

func (v Version) MarshalJSON() ([]byte, error) {
	return json.Marshal(versionJSON{Kind: v.Kind(), Value: v.exact})
}

func (v *Version) UnmarshalJSON(data []byte) error {
	var raw versionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Kind {
	case VersionNone, "":
		*v = NoVersion()
	case VersionUnknown2x:
		*v = Unknown2x()
	case VersionExact:
		if strings.TrimSpace(raw.Value) == "" {
			return fmt.Errorf("exact version requires a value")
		}
		*v = Exact(raw.Value)
	default:
		return fmt.Errorf("unknown version kind %q", raw.Kind)
	}
	return nil
}

// Family is a runtime major-version lineage.
type Family string

const (
	FamilyNone   Family = "none"
	FamilyLegacy Family = "legacy"
	FamilyModern Family = "modern"
)

// DetectionResult describes what was found in a tab.
type DetectionResult struct {
	Version      Version `json:"version"`
	RootSelector string  `json:"rootSelector,omitempty"`
}

// NewDetectionResult builds a result. The root selector is dropped when the
// version is None.
func NewDetectionResult(v Version, rootSelector string) DetectionResult {
	if v.IsNone() {
		return DetectionResult{Version: NoVersion()}
	}
	return DetectionResult{Version: v, RootSelector: rootSelector}
}

// NotDetected is the result stored for failed or empty probes.
func NotDetected() DetectionResult { return DetectionResult{Version: NoVersion()} }

func (r DetectionResult) Detected() bool { return !r.Version.IsNone() }

func (r DetectionResult) Family() Family { return r.Version.Family() }

func (r *DetectionResult) UnmarshalJSON(data []byte) error {
	var raw struct {
		Version      Version `json:"version"`
		RootSelector string  `json:"rootSelector"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = NewDetectionResult(raw.Version, raw.RootSelector)
	return nil
}

// ActivationResult is the outcome of one activation attempt.
type ActivationResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// ActivationFailed builds a failed result with a human-readable reason.
func ActivationFailed(reason string) ActivationResult {
	return ActivationResult{Success: false, Error: reason}
}
