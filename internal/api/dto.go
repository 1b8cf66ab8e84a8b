package api

import (
	"github.com/dgnsrekt/vue_devtools_enabler/internal/controller"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/icon"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/types"
)

type versionBody struct {
	Kind  string `json:"kind" enum:"none,unknown2x,exact" doc:"Version tag"`
	Value string `json:"value,omitempty" doc:"Exact version string when kind is exact"`
}

type detectionBody struct {
	Version      versionBody `json:"version"`
	RootSelector string      `json:"root_selector,omitempty" doc:"CSS selector of the application root element"`
	Family       string      `json:"family" enum:"none,legacy,modern"`
	Icon         string      `json:"icon" enum:"enabled,disabled"`
}

type tabBody struct {
	TabID     string         `json:"tab_id"`
	URL       string         `json:"url"`
	Title     string         `json:"title,omitempty"`
	Detection *detectionBody `json:"detection,omitempty" doc:"Cached detection; absent when the tab was never probed"`
}

func toDetection(r types.DetectionResult) detectionBody {
	return detectionBody{
		Version:      versionBody{Kind: string(r.Version.Kind()), Value: r.Version.Value()},
		RootSelector: r.RootSelector,
		Family:       string(r.Family()),
		Icon:         string(icon.For(r)),
	}
}

func toTabs(views []controller.TabView) []tabBody {
	out := make([]tabBody, 0, len(views))
	for _, v := range views {
		tb := tabBody{TabID: string(v.ID), URL: v.URL, Title: v.Title}
		if v.Detection != nil {
			d := toDetection(*v.Detection)
			tb.Detection = &d
		}
		out = append(out, tb)
	}
	return out
}
