// Package strix merges several media cores into a single view. The
// aggregate owns the set of cores and the top level merged entities built
// from them: the library, the optional discoverables, pins, recently played
// and search features, one profile per user and a flat device list.
package strix

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agentstation/strix/pkg/errors"
	"github.com/agentstation/strix/pkg/events"
	"github.com/agentstation/strix/pkg/logging"
	"github.com/agentstation/strix/pkg/media"
	"github.com/agentstation/strix/pkg/merge"
)

// Strix is the root of a merged media view.
type Strix interface {
	// ID identifies this aggregate instance.
	ID() string

	// Config returns the merge settings shared by every merged collection.
	Config() *merge.Config

	// Sources returns the cores in the order they were added.
	Sources() []media.Core

	// Library merges the library of every core. It is always present.
	Library() *merge.MergedGroup

	// Discoverables, Pins, RecentlyPlayed and Search return nil until a
	// core offering the feature is added.
	Discoverables() *merge.MergedGroup
	Pins() *merge.MergedGroup
	RecentlyPlayed() *merge.MergedGroup
	Search() *merge.MergedSearch

	// Users returns one profile per core exposing a user, in source order.
	Users() []*merge.MergedUserProfile

	// Devices returns the devices of every core, concatenated in source
	// order. Devices are never merged.
	Devices() []*Device

	// Init initializes every core in parallel.
	Init(ctx context.Context) error

	// AddSource folds a core into the aggregate.
	AddSource(ctx context.Context, core media.Core) error

	// RemoveSource takes a core out of the aggregate.
	RemoveSource(ctx context.Context, core media.Core) error

	// Dispose releases the merged entities and every core.
	Dispose(ctx context.Context) error

	// OnSourcesChanged registers a callback for core additions and removals.
	OnSourcesChanged(SourcesChangedHook) events.Subscription

	// OnFeatureAdded registers a callback for features becoming available.
	OnFeatureAdded(FeatureAddedHook) events.Subscription

	// OnDevicesChanged registers a callback for device list changes.
	OnDevicesChanged(DevicesChangedHook) events.Subscription
}

// Feature names an optional top level feature of a core.
type Feature string

// Optional features.
const (
	FeatureDiscoverables  Feature = "discoverables"
	FeaturePins           Feature = "pins"
	FeatureRecentlyPlayed Feature = "recently_played"
	FeatureSearch         Feature = "search"
)

// groupFeature binds a group feature to its accessor on a core.
type groupFeature struct {
	feature Feature
	of      func(media.Core) media.PlayableCollectionGroup
}

var groupFeatures = []groupFeature{
	{FeatureDiscoverables, media.Core.Discoverables},
	{FeaturePins, media.Core.Pins},
	{FeatureRecentlyPlayed, media.Core.RecentlyPlayed},
}

// FeaturesOf lists the optional features core offers.
func FeaturesOf(core media.Core) []Feature {
	var out []Feature
	for _, gf := range groupFeatures {
		if gf.of(core) != nil {
			out = append(out, gf.feature)
		}
	}
	if core.Search() != nil {
		out = append(out, FeatureSearch)
	}
	return out
}

// strix is the implementation of Strix.
type strix struct {
	id     string
	config *merge.Config
	logger *zerolog.Logger

	mu       sync.RWMutex
	cores    []media.Core
	library  *merge.MergedGroup
	groups   map[Feature]*merge.MergedGroup
	search   *merge.MergedSearch
	users    map[media.CoreID]*merge.MergedUserProfile
	devices  map[media.CoreID][]*Device
	watchers map[media.CoreID]events.Subscription

	hooks *hooks

	initMu      sync.Mutex
	initialized atomic.Bool
	disposing   atomic.Bool
}

// New builds an aggregate over cores. At least one core is required. Cores
// missing from the configured ranking are appended to it in order.
func New(ctx context.Context, cores []media.Core, opts ...Option) (Strix, error) {
	if len(cores) == 0 {
		return nil, errors.NewValidationError("cores", 0, "at least one core is required")
	}
	o, err := applyOptions(opts...)
	if err != nil {
		return nil, fmt.Errorf("applying options: %w", err)
	}
	if o.logger != nil {
		ctx = logging.WithLogger(ctx, o.logger)
	}

	s := &strix{
		id:       uuid.NewString(),
		config:   o.config,
		logger:   logging.FromContext(ctx),
		groups:   make(map[Feature]*merge.MergedGroup),
		users:    make(map[media.CoreID]*merge.MergedUserProfile),
		devices:  make(map[media.CoreID][]*Device),
		watchers: make(map[media.CoreID]events.Subscription),
		hooks:    newHooks(),
	}

	first := cores[0]
	if first == nil {
		return nil, errors.NewValidationError("cores", nil, "contains a nil core")
	}
	unrank, err := s.rank(first.ID())
	if err != nil {
		return nil, err
	}
	library, err := merge.NewMergedGroup(s.config, first.Library())
	if err != nil {
		return nil, errors.Join(fmt.Errorf("merging library of %s: %w", first.ID(), err), unrank())
	}
	s.library = library

	s.mu.Lock()
	err = s.attach(ctx, first, &pending{})
	s.mu.Unlock()
	if err != nil {
		return nil, errors.Join(err, s.library.Dispose(ctx), unrank())
	}

	for _, core := range cores[1:] {
		if err := s.AddSource(ctx, core); err != nil {
			return nil, errors.Join(err, s.release(ctx))
		}
	}
	return s, nil
}

// ID implements Strix.
func (s *strix) ID() string { return s.id }

// Config implements Strix.
func (s *strix) Config() *merge.Config { return s.config }

// Sources implements Strix.
func (s *strix) Sources() []media.Core {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.cores)
}

// Library implements Strix.
func (s *strix) Library() *merge.MergedGroup { return s.library }

// Discoverables implements Strix.
func (s *strix) Discoverables() *merge.MergedGroup { return s.group(FeatureDiscoverables) }

// Pins implements Strix.
func (s *strix) Pins() *merge.MergedGroup { return s.group(FeaturePins) }

// RecentlyPlayed implements Strix.
func (s *strix) RecentlyPlayed() *merge.MergedGroup { return s.group(FeatureRecentlyPlayed) }

func (s *strix) group(f Feature) *merge.MergedGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.groups[f]
}

// Search implements Strix.
func (s *strix) Search() *merge.MergedSearch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.search
}

// Users implements Strix.
func (s *strix) Users() []*merge.MergedUserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*merge.MergedUserProfile
	for _, c := range s.cores {
		if u, ok := s.users[c.ID()]; ok {
			out = append(out, u)
		}
	}
	return out
}

// Devices implements Strix.
func (s *strix) Devices() []*Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Device
	for _, c := range s.cores {
		out = append(out, s.devices[c.ID()]...)
	}
	return out
}

func (s *strix) index(id media.CoreID) int {
	return slices.IndexFunc(s.cores, func(c media.Core) bool { return c.ID() == id })
}
