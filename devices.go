package strix

import (
	"context"
	"slices"

	"github.com/agentstation/utc"

	"github.com/agentstation/strix/pkg/events"
	"github.com/agentstation/strix/pkg/media"
)

// Device proxies one device of a core. Change events of the device are
// raised again with the proxy as their item.
type Device struct {
	source  media.Device
	changed events.Feed[media.Change]
	sub     events.Subscription
}

var _ media.Device = (*Device)(nil)

func newDevice(source media.Device) *Device {
	d := &Device{source: source}
	d.sub = source.OnChanged(func(c media.Change) {
		d.changed.Emit(media.Change{Item: d, Property: c.Property, Value: c.Value})
	})
	return d
}

func (d *Device) ID() string                   { return d.source.ID() }
func (d *Device) Core() media.CoreID           { return d.source.Core() }
func (d *Device) Kind() media.Kind             { return media.KindDevice }
func (d *Device) Name() string                 { return d.source.Name() }
func (d *Device) DeviceType() media.DeviceType { return d.source.DeviceType() }
func (d *Device) IsActive() bool               { return d.source.IsActive() }

// Source returns the proxied device.
func (d *Device) Source() media.Device { return d.source }

// SwitchTo makes the proxied device the active one.
func (d *Device) SwitchTo(ctx context.Context) error {
	return d.source.SwitchTo(ctx)
}

// OnChanged implements media.Observable.
func (d *Device) OnChanged(fn func(media.Change)) events.Subscription {
	return d.changed.Subscribe(fn)
}

func (d *Device) close() {
	d.sub.Unsubscribe()
	d.changed.Clear()
}

// watchDevices wraps the devices of core and follows its device list.
// It returns the event announcing the new proxies, or nil when core has
// none. Callers hold s.mu and have already appended core.
func (s *strix) watchDevices(core media.Core) *DevicesChangedEvent {
	id := core.ID()
	var proxies []*Device
	for _, d := range core.Devices() {
		if d != nil {
			proxies = append(proxies, newDevice(d))
		}
	}
	s.devices[id] = proxies
	s.watchers[id] = core.OnDevicesChanged(func(c media.ItemsChanged[media.Device]) {
		s.onDevicesChanged(id, c)
	})
	if len(proxies) == 0 {
		return nil
	}

	offset := s.deviceOffset(id)
	ev := &DevicesChangedEvent{Core: id, At: utc.Now()}
	for i, d := range proxies {
		ev.Added = append(ev.Added, media.Indexed[*Device]{Item: d, Index: offset + i})
	}
	return ev
}

// unwatchDevices drops the proxies of core. Callers hold s.mu and have not
// removed core yet.
func (s *strix) unwatchDevices(core media.Core) *DevicesChangedEvent {
	id := core.ID()
	if sub, ok := s.watchers[id]; ok {
		sub.Unsubscribe()
		delete(s.watchers, id)
	}
	proxies := s.devices[id]
	delete(s.devices, id)
	if len(proxies) == 0 {
		return nil
	}

	offset := s.deviceOffset(id)
	ev := &DevicesChangedEvent{Core: id, At: utc.Now()}
	for i, d := range proxies {
		d.close()
		ev.Removed = append(ev.Removed, media.Indexed[*Device]{Item: d, Index: offset + i})
	}
	return ev
}

// onDevicesChanged replays a device list change of one core on its slice
// of the merged list. Indices in the raised event are positions in the
// concatenated list.
func (s *strix) onDevicesChanged(id media.CoreID, c media.ItemsChanged[media.Device]) {
	s.mu.Lock()
	proxies, ok := s.devices[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	offset := s.deviceOffset(id)
	ev := DevicesChangedEvent{Core: id, At: utc.Now()}

	removed := slices.Clone(c.Removed)
	slices.SortFunc(removed, func(a, b media.Indexed[media.Device]) int { return b.Index - a.Index })
	for _, r := range removed {
		if r.Item == nil {
			continue
		}
		i := r.Index
		if i < 0 || i >= len(proxies) || proxies[i].ID() != r.Item.ID() {
			i = slices.IndexFunc(proxies, func(d *Device) bool { return d.ID() == r.Item.ID() })
		}
		if i < 0 {
			continue
		}
		d := proxies[i]
		d.close()
		proxies = slices.Delete(proxies, i, i+1)
		ev.Removed = append(ev.Removed, media.Indexed[*Device]{Item: d, Index: offset + i})
	}

	added := slices.Clone(c.Added)
	slices.SortFunc(added, func(a, b media.Indexed[media.Device]) int { return a.Index - b.Index })
	for _, a := range added {
		if a.Item == nil {
			continue
		}
		i := min(max(a.Index, 0), len(proxies))
		d := newDevice(a.Item)
		proxies = slices.Insert(proxies, i, d)
		ev.Added = append(ev.Added, media.Indexed[*Device]{Item: d, Index: offset + i})
	}
	s.devices[id] = proxies
	s.mu.Unlock()

	s.logger.Debug().
		Str("core_id", id.String()).
		Int("added", len(ev.Added)).
		Int("removed", len(ev.Removed)).
		Msg("Devices changed")
	if len(ev.Added) > 0 || len(ev.Removed) > 0 {
		s.hooks.devicesChanged.Emit(ev)
	}
}

// deviceOffset returns the position of the first device of core id in the
// concatenated list. Callers hold s.mu.
func (s *strix) deviceOffset(id media.CoreID) int {
	offset := 0
	for _, c := range s.cores {
		if c.ID() == id {
			break
		}
		offset += len(s.devices[c.ID()])
	}
	return offset
}
