package strix

import (
	"github.com/agentstation/utc"

	"github.com/agentstation/strix/pkg/events"
	"github.com/agentstation/strix/pkg/media"
)

// Hook function types for aggregate events
type (
	// SourcesChangedHook is called after a core is added or removed
	SourcesChangedHook func(SourcesChangedEvent)

	// FeatureAddedHook is called when the first core offering a feature is added
	FeatureAddedHook func(FeatureAddedEvent)

	// DevicesChangedHook is called when the merged device list changes
	DevicesChangedHook func(DevicesChangedEvent)
)

// SourcesChangedEvent reports one core joining or leaving the aggregate.
type SourcesChangedEvent struct {
	Added   media.CoreID
	Removed media.CoreID
	Sources []media.CoreID
	At      utc.Time
}

// FeatureAddedEvent reports a feature that became available.
type FeatureAddedEvent struct {
	Feature Feature
	Core    media.CoreID
	At      utc.Time
}

// DevicesChangedEvent reports devices entering or leaving the merged list.
// Indices are positions in Strix.Devices.
type DevicesChangedEvent struct {
	Core    media.CoreID
	Added   []media.Indexed[*Device]
	Removed []media.Indexed[*Device]
	At      utc.Time
}

// hooks manages event callbacks for aggregate changes
type hooks struct {
	sourcesChanged events.Feed[SourcesChangedEvent]
	featureAdded   events.Feed[FeatureAddedEvent]
	devicesChanged events.Feed[DevicesChangedEvent]
}

func newHooks() *hooks {
	return &hooks{}
}

// OnSourcesChanged registers a callback for core additions and removals
func (s *strix) OnSourcesChanged(fn SourcesChangedHook) events.Subscription {
	return s.hooks.sourcesChanged.Subscribe(fn)
}

// OnFeatureAdded registers a callback for features becoming available
func (s *strix) OnFeatureAdded(fn FeatureAddedHook) events.Subscription {
	return s.hooks.featureAdded.Subscribe(fn)
}

// OnDevicesChanged registers a callback for device list changes
func (s *strix) OnDevicesChanged(fn DevicesChangedHook) events.Subscription {
	return s.hooks.devicesChanged.Subscribe(fn)
}

// pending collects the events of one membership change so they can be
// raised once the aggregate lock is released.
type pending struct {
	features []FeatureAddedEvent
	devices  *DevicesChangedEvent
	sources  *SourcesChangedEvent
}

// fire raises the collected events: features first, then devices, then
// the membership change itself.
func (p *pending) fire(h *hooks) {
	for _, ev := range p.features {
		h.featureAdded.Emit(ev)
	}
	if p.devices != nil {
		h.devicesChanged.Emit(*p.devices)
	}
	if p.sources != nil {
		h.sourcesChanged.Emit(*p.sources)
	}
}
