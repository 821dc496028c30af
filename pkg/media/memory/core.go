package memory

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/agentstation/strix/pkg/events"
	"github.com/agentstation/strix/pkg/media"
)

// Core is an in-memory media.Core. Only the library is always present;
// the optional features are attached with the With methods.
type Core struct {
	id          media.CoreID
	displayName string

	library        *Group
	discoverables  *Group
	pins           *Group
	recentlyPlayed *Group
	search         *Search
	user           *UserProfile

	mu             sync.RWMutex
	devices        []media.Device
	devicesChanged events.Feed[media.ItemsChanged[media.Device]]
	initErr        error

	inits     atomic.Int32
	disposals atomic.Int32
}

var _ media.Core = (*Core)(nil)

// NewCore returns a core with an empty library.
func NewCore(id media.CoreID, displayName string) *Core {
	return &Core{
		id:          id,
		displayName: displayName,
		library:     NewGroup(id, media.KindLibrary, "Library"),
	}
}

// ID implements media.Core.
func (c *Core) ID() media.CoreID { return c.id }

// DisplayName implements media.Core.
func (c *Core) DisplayName() string { return c.displayName }

// Init implements media.Core. It fails with the error set by SetInitError.
func (c *Core) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.inits.Add(1)
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.initErr
}

// Dispose implements media.Core.
func (c *Core) Dispose(context.Context) error {
	c.disposals.Add(1)
	return nil
}

// Library implements media.Core.
func (c *Core) Library() media.PlayableCollectionGroup { return c.library }

// Discoverables implements media.Core.
func (c *Core) Discoverables() media.PlayableCollectionGroup { return groupOrNil(c.discoverables) }

// Pins implements media.Core.
func (c *Core) Pins() media.PlayableCollectionGroup { return groupOrNil(c.pins) }

// RecentlyPlayed implements media.Core.
func (c *Core) RecentlyPlayed() media.PlayableCollectionGroup { return groupOrNil(c.recentlyPlayed) }

// Search implements media.Core.
func (c *Core) Search() media.Search {
	if c.search == nil {
		return nil
	}
	return c.search
}

// User implements media.Core.
func (c *Core) User() media.UserProfile {
	if c.user == nil {
		return nil
	}
	return c.user
}

// Devices implements media.Core.
func (c *Core) Devices() []media.Device {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]media.Device(nil), c.devices...)
}

// OnDevicesChanged implements media.Core.
func (c *Core) OnDevicesChanged(fn func(media.ItemsChanged[media.Device])) events.Subscription {
	return c.devicesChanged.Subscribe(fn)
}

// LibraryGroup returns the concrete library for seeding.
func (c *Core) LibraryGroup() *Group { return c.library }

// WithDiscoverables attaches a discoverables group.
func (c *Core) WithDiscoverables(g *Group) *Core { c.discoverables = g; return c }

// WithPins attaches a pins group.
func (c *Core) WithPins(g *Group) *Core { c.pins = g; return c }

// WithRecentlyPlayed attaches a recently played group.
func (c *Core) WithRecentlyPlayed(g *Group) *Core { c.recentlyPlayed = g; return c }

// WithUser attaches a user profile.
func (c *Core) WithUser(u *UserProfile) *Core { c.user = u; return c }

// WithSearch enables search over the library.
func (c *Core) WithSearch() *Core {
	c.search = NewSearch(c.id, c.library)
	return c
}

// WithDevices appends devices without raising events.
func (c *Core) WithDevices(devices ...*Device) *Core {
	for _, d := range devices {
		c.devices = append(c.devices, d)
	}
	return c
}

// AddDevice appends a device and raises a devices change.
func (c *Core) AddDevice(d *Device) {
	c.mu.Lock()
	index := len(c.devices)
	c.devices = append(c.devices, d)
	c.mu.Unlock()
	c.devicesChanged.Emit(media.ItemsChanged[media.Device]{
		Added: []media.Indexed[media.Device]{{Item: d, Index: index}},
	})
}

// RemoveDevice removes the device at index and raises a devices change.
func (c *Core) RemoveDevice(index int) {
	c.mu.Lock()
	if index < 0 || index >= len(c.devices) {
		c.mu.Unlock()
		return
	}
	d := c.devices[index]
	c.devices = append(c.devices[:index:index], c.devices[index+1:]...)
	c.mu.Unlock()
	c.devicesChanged.Emit(media.ItemsChanged[media.Device]{
		Removed: []media.Indexed[media.Device]{{Item: d, Index: index}},
	})
}

// SetInitError makes Init fail with err.
func (c *Core) SetInitError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initErr = err
}

// Inits returns how many times Init was called.
func (c *Core) Inits() int { return int(c.inits.Load()) }

// Disposals returns how many times Dispose was called.
func (c *Core) Disposals() int { return int(c.disposals.Load()) }

func groupOrNil(g *Group) media.PlayableCollectionGroup {
	if g == nil {
		return nil
	}
	return g
}

// Search matches names in a library group.
type Search struct {
	core    media.CoreID
	id      string
	library *Group
	history *Group

	mu      sync.Mutex
	queries []string
}

var _ media.Search = (*Search)(nil)

// NewSearch returns a search over library.
func NewSearch(core media.CoreID, library *Group) *Search {
	return &Search{
		core:    core,
		id:      uuid.NewString(),
		library: library,
		history: NewGroup(core, media.KindSearchHistory, "Search history"),
	}
}

func (s *Search) ID() string         { return s.id }
func (s *Search) Core() media.CoreID { return s.core }
func (s *Search) Kind() media.Kind   { return media.KindSearch }

// History implements media.Search.
func (s *Search) History() media.PlayableCollectionGroup { return s.history }

// Queries returns every query passed to Results.
func (s *Search) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

// AutoComplete returns the names in the library starting with query,
// compared case-insensitively.
func (s *Search) AutoComplete(ctx context.Context, query string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := strings.ToLower(query)
	var out []string
	seen := make(map[string]bool)
	for _, name := range s.names() {
		if strings.HasPrefix(strings.ToLower(name), prefix) && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out, nil
}

// Results implements media.Search. Items whose name contains query are
// copied into a fresh results group.
func (s *Search) Results(ctx context.Context, query string) (media.PlayableCollectionGroup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()

	needle := strings.ToLower(query)
	match := func(name string) bool { return strings.Contains(strings.ToLower(name), needle) }

	results := NewGroup(s.core, media.KindSearchResults, "Search results")
	results.albums.items = filter(s.library.albums.Snapshot(), match)
	results.artists.items = filter(s.library.artists.Snapshot(), match)
	results.playlists.items = filter(s.library.playlists.Snapshot(), match)
	results.tracks.items = filter(s.library.tracks.Snapshot(), match)
	return results, nil
}

func (s *Search) names() []string {
	var names []string
	for _, a := range s.library.albums.Snapshot() {
		names = append(names, a.Name())
	}
	for _, a := range s.library.artists.Snapshot() {
		names = append(names, a.Name())
	}
	for _, p := range s.library.playlists.Snapshot() {
		names = append(names, p.Name())
	}
	for _, t := range s.library.tracks.Snapshot() {
		names = append(names, t.Name())
	}
	return names
}

func filter[T interface{ Name() string }](items []T, match func(string) bool) []T {
	var out []T
	for _, item := range items {
		if match(item.Name()) {
			out = append(out, item)
		}
	}
	return out
}
