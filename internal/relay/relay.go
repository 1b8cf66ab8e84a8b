// Package relay fans daemon events out to SSE clients.
package relay

import (
	"log/slog"
	"time"

	"github.com/dgnsrekt/vue_devtools_enabler/internal/icon"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/inject"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/types"
)

// IconEvent is the payload of the icon feed.
type IconEvent struct {
	TabID types.TabID `json:"tab_id"`
	Icon  icon.State  `json:"icon"`
	At    time.Time   `json:"at"`
}

// DetectionEvent is the payload of the detection feed.
type DetectionEvent struct {
	TabID  types.TabID           `json:"tab_id"`
	Result types.DetectionResult `json:"result"`
	Family types.Family          `json:"family"`
	At     time.Time             `json:"at"`
}

// InjectedEvent is the payload of the injected feed.
type InjectedEvent struct {
	inject.Outcome
	At time.Time `json:"at"`
}

// Relay turns detection, activation and indicator changes into broker events.
type Relay struct {
	broker *Broker
	now    func() time.Time
}

func NewRelay(broker *Broker) *Relay {
	return &Relay{broker: broker, now: time.Now}
}

func (r *Relay) DetectionSettled(tab types.TabID, result types.DetectionResult) {
	r.broker.PublishJSON(FeedDetection, DetectionEvent{
		TabID:  tab,
		Result: result,
		Family: result.Family(),
		At:     r.now().UTC(),
	})
}

func (r *Relay) ActivationSettled(outcome inject.Outcome) {
	r.broker.PublishJSON(FeedInjected, InjectedEvent{Outcome: outcome, At: r.now().UTC()})
}

func (r *Relay) IconChanged(tab types.TabID, state icon.State) {
	slog.Debug("relay icon", "tab_id", tab, "icon", state, "clients", r.broker.ClientCount())
	r.broker.PublishJSON(FeedIcon, IconEvent{TabID: tab, Icon: state, At: r.now().UTC()})
}
