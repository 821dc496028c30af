package media

import (
	"context"

	"github.com/agentstation/strix/pkg/events"
)

// DeviceType classifies a playback device.
type DeviceType string

// Device types.
const (
	DeviceTypeLocal  DeviceType = "local"
	DeviceTypeRemote DeviceType = "remote"
)

// Device is a playback target exposed by a core. Devices are never merged.
type Device interface {
	Item
	Observable
	Name() string
	DeviceType() DeviceType
	IsActive() bool
	SwitchTo(ctx context.Context) error
}

// Search is the search surface of a core.
type Search interface {
	Item

	// AutoComplete returns query completions.
	AutoComplete(ctx context.Context, query string) ([]string, error)

	// Results returns the group of items matching query.
	Results(ctx context.Context, query string) (PlayableCollectionGroup, error)

	// History returns recent searches, or nil if the core keeps none.
	History() PlayableCollectionGroup
}

// Core is one provider: a backend supplying entities of the media model.
// Optional features return nil when the core does not offer them.
type Core interface {
	// ID identifies this core instance.
	ID() CoreID

	// DisplayName is a human readable name.
	DisplayName() string

	// Init prepares the core for use.
	Init(ctx context.Context) error

	// Library is always present.
	Library() PlayableCollectionGroup

	Discoverables() PlayableCollectionGroup
	Pins() PlayableCollectionGroup
	RecentlyPlayed() PlayableCollectionGroup
	Search() Search
	User() UserProfile

	// Devices lists the playback devices of the core.
	Devices() []Device

	// OnDevicesChanged registers fn for device list changes.
	OnDevicesChanged(fn func(ItemsChanged[Device])) events.Subscription

	// Dispose releases the core.
	Dispose(ctx context.Context) error
}
