package media

import (
	"context"
	"slices"

	"github.com/agentstation/strix/pkg/events"
)

// Item is an entity emitted by one provider.
type Item interface {
	// ID is unique within the owning core.
	ID() string

	// Core returns the provider the item belongs to.
	Core() CoreID

	// Kind returns the entity kind.
	Kind() Kind
}

// Property names a scalar field of an entity.
type Property string

// Properties raised through Change events.
const (
	PropName               Property = "name"
	PropDescription        Property = "description"
	PropDuration           Property = "duration"
	PropPlaybackState      Property = "playback_state"
	PropLastPlayed         Property = "last_played"
	PropLyrics             Property = "lyrics"
	PropIsActive           Property = "is_active"
	PropTotalTrackCount    Property = "total_track_count"
	PropTotalAlbumCount    Property = "total_album_count"
	PropTotalArtistCount   Property = "total_artist_count"
	PropTotalPlaylistCount Property = "total_playlist_count"
	PropTotalChildrenCount Property = "total_children_count"
	PropTotalImageCount    Property = "total_image_count"
	PropTotalUrlCount      Property = "total_url_count"
	PropTotalGenreCount    Property = "total_genre_count"

	// PropItems reports a change of a nested collection. The value is the
	// ItemsChanged raised by that collection.
	PropItems Property = "items"
)

// Change reports that a property of an item changed.
type Change struct {
	Item     Item
	Property Property
	Value    any
}

// Observable items raise Change events.
type Observable interface {
	OnChanged(fn func(Change)) events.Subscription
}

// Disposer is implemented by items that hold resources.
type Disposer interface {
	Dispose(ctx context.Context) error
}

// PlaybackState describes what a playable item is doing.
type PlaybackState string

// Playback states.
const (
	PlaybackNone    PlaybackState = "none"
	PlaybackLoading PlaybackState = "loading"
	PlaybackPlaying PlaybackState = "playing"
	PlaybackPaused  PlaybackState = "paused"
	PlaybackFailed  PlaybackState = "failed"
)

// DownloadOperation is a requested change to an item's download state.
type DownloadOperation string

// Download operations.
const (
	DownloadStart  DownloadOperation = "start"
	DownloadPause  DownloadOperation = "pause"
	DownloadResume DownloadOperation = "resume"
	DownloadCancel DownloadOperation = "cancel"
)

// InitialData is implemented by draft items that no provider backs yet.
// Inserting one into a merged collection asks providers to create it.
type InitialData interface {
	// TargetCores lists the cores that should create the item. Empty means all.
	TargetCores() []CoreID
}

// Targets reports whether core is one of the requested targets.
func Targets(data InitialData, core CoreID) bool {
	targets := data.TargetCores()
	return len(targets) == 0 || slices.Contains(targets, core)
}
