package detect

import (
	"github.com/dgnsrekt/vue_devtools_enabler/internal/types"
)

// modernFallbackVersion stands in when a modern-family marker does not expose
// its version. The family stays modern so activation remains possible.
const modernFallbackVersion = "3.x"

// MarkerSlot is what the probe found for one runtime family on the matched
// element.
type MarkerSlot struct {
	Found   bool   `json:"found"`
	Version string `json:"version,omitempty"`
}

// ProbeReport is the serialized output of the in-page detection probe.
type ProbeReport struct {
	Legacy MarkerSlot    `json:"legacy"`
	Modern MarkerSlot    `json:"modern"`
	Chain  []ElementInfo `json:"chain"`
}

// Marker is a typed runtime marker.
type Marker struct {
	Family  types.Family
	Version types.Version
}

// Capability checks a probe report for one runtime family.
type Capability interface {
	Family() types.Family
	Detect(report ProbeReport) (Marker, bool)
}

type legacyCapability struct{}

func (legacyCapability) Family() types.Family { return types.FamilyLegacy }

func (legacyCapability) Detect(report ProbeReport) (Marker, bool) {
	if !report.Legacy.Found {
		return Marker{}, false
	}
	v := types.Unknown2x()
	if report.Legacy.Version != "" {
		v = types.Exact(report.Legacy.Version)
	}
	return Marker{Family: types.FamilyLegacy, Version: v}, true
}

type modernCapability struct{}

func (modernCapability) Family() types.Family { return types.FamilyModern }

func (modernCapability) Detect(report ProbeReport) (Marker, bool) {
	if !report.Modern.Found {
		return Marker{}, false
	}
	raw := report.Modern.Version
	if raw == "" {
		raw = modernFallbackVersion
	}
	return Marker{Family: types.FamilyModern, Version: types.Exact(raw)}, true
}

// Capabilities are checked in order; the first match wins.
var Capabilities = []Capability{legacyCapability{}, modernCapability{}}

// Normalize converts a probe report into a DetectionResult.
func Normalize(report ProbeReport) types.DetectionResult {
	for _, c := range Capabilities {
		m, ok := c.Detect(report)
		if !ok {
			continue
		}
		return types.NewDetectionResult(m.Version, BuildRootSelector(report.Chain))
	}
	return types.NotDetected()
}
