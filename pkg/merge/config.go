package merge

import (
	"slices"
	"strings"
	"sync"

	"github.com/agentstation/strix/pkg/errors"
	"github.com/agentstation/strix/pkg/events"
	"github.com/agentstation/strix/pkg/media"
)

// SortMode selects how merged collections interleave their sources.
type SortMode string

// String returns the string representation of a sort mode.
func (m SortMode) String() string {
	return string(m)
}

// Name returns the title cased name of the sort mode.
func (m SortMode) Name() string {
	s := m.String()
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

const (
	// SortRanked lists every item of the best ranked core first, then the next.
	SortRanked SortMode = "ranked"
	// SortAlternating takes one item of each core in turn. Pagination does not
	// support it yet.
	SortAlternating SortMode = "alternating"
)

// IsValid returns true if the sort mode is known.
func (m SortMode) IsValid() bool {
	return m == SortRanked || m == SortAlternating
}

// Config holds the settings shared by every collection map of one root
// aggregate: the sort mode and the core ranking. Changes are broadcast to
// subscribers, which rebuild their merged view.
type Config struct {
	mu       sync.RWMutex
	sortMode SortMode
	ranking  []media.CoreID

	rankingChanged  events.Feed[[]media.CoreID]
	sortModeChanged events.Feed[SortMode]
}

// configOptions collects the values applied by ConfigOption.
type configOptions struct {
	sortMode SortMode
	ranking  []media.CoreID
}

// ConfigOption configures a Config.
type ConfigOption func(*configOptions) error

// WithRanking sets the core preference order, best first.
func WithRanking(ids ...media.CoreID) ConfigOption {
	return func(o *configOptions) error {
		if err := validateRanking(ids); err != nil {
			return err
		}
		o.ranking = slices.Clone(ids)
		return nil
	}
}

// WithSortMode sets the sort mode.
func WithSortMode(mode SortMode) ConfigOption {
	return func(o *configOptions) error {
		if !mode.IsValid() {
			return errors.NewValidationError("sort_mode", mode, "must be ranked or alternating")
		}
		o.sortMode = mode
		return nil
	}
}

// NewConfig returns a Config in ranked mode with the given options applied.
func NewConfig(opts ...ConfigOption) (*Config, error) {
	o := &configOptions{sortMode: SortRanked}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return &Config{sortMode: o.sortMode, ranking: o.ranking}, nil
}

// SortMode returns the current sort mode.
func (c *Config) SortMode() SortMode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sortMode
}

// Ranking returns a copy of the core ranking.
func (c *Config) Ranking() []media.CoreID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.ranking)
}

// Rank returns the position of core in the ranking.
func (c *Config) Rank(core media.CoreID) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := slices.Index(c.ranking, core)
	return i, i >= 0
}

// SetRanking replaces the ranking and notifies subscribers when it changed.
func (c *Config) SetRanking(ids ...media.CoreID) error {
	if err := validateRanking(ids); err != nil {
		return err
	}
	c.mu.Lock()
	if slices.Equal(c.ranking, ids) {
		c.mu.Unlock()
		return nil
	}
	c.ranking = slices.Clone(ids)
	c.mu.Unlock()

	c.rankingChanged.Emit(slices.Clone(ids))
	return nil
}

// AppendRanking adds core at the end of the ranking if it is not ranked yet.
func (c *Config) AppendRanking(core media.CoreID) error {
	ranking := c.Ranking()
	if slices.Contains(ranking, core) {
		return nil
	}
	return c.SetRanking(append(ranking, core)...)
}

// RemoveRanking takes core out of the ranking if it is ranked.
func (c *Config) RemoveRanking(core media.CoreID) error {
	ranking := c.Ranking()
	i := slices.Index(ranking, core)
	if i < 0 {
		return nil
	}
	return c.SetRanking(slices.Delete(ranking, i, i+1)...)
}

// SetSortMode replaces the sort mode and notifies subscribers when it changed.
func (c *Config) SetSortMode(mode SortMode) error {
	if !mode.IsValid() {
		return errors.NewValidationError("sort_mode", mode, "must be ranked or alternating")
	}
	c.mu.Lock()
	if c.sortMode == mode {
		c.mu.Unlock()
		return nil
	}
	c.sortMode = mode
	c.mu.Unlock()

	c.sortModeChanged.Emit(mode)
	return nil
}

// OnRankingChanged registers fn for ranking changes.
func (c *Config) OnRankingChanged(fn func([]media.CoreID)) events.Subscription {
	return c.rankingChanged.Subscribe(fn)
}

// OnSortModeChanged registers fn for sort mode changes.
func (c *Config) OnSortModeChanged(fn func(SortMode)) events.Subscription {
	return c.sortModeChanged.Subscribe(fn)
}

func validateRanking(ids []media.CoreID) error {
	seen := make(map[media.CoreID]bool, len(ids))
	for _, id := range ids {
		if id == "" {
			return errors.NewValidationError("ranking", id, "core id cannot be empty")
		}
		if seen[id] {
			return errors.NewValidationError("ranking", id, "duplicate core id")
		}
		seen[id] = true
	}
	return nil
}
