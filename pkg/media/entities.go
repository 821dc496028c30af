package media

import (
	"context"
	"time"

	"github.com/agentstation/utc"
)

// Image is a picture attached to an entity.
type Image interface {
	Item
	URI() string
	Height() float64
	Width() float64
}

// UrlType classifies a Url.
type UrlType string

// Url types.
const (
	UrlTypeOther    UrlType = "other"
	UrlTypeWebsite  UrlType = "website"
	UrlTypeTwitter  UrlType = "twitter"
	UrlTypeFacebook UrlType = "facebook"
)

// Url is a link attached to an entity.
type Url interface {
	Item
	Label() string
	Href() string
	UrlType() UrlType
}

// Genre is a named genre.
type Genre interface {
	Item
	Name() string
}

// Playable is the surface shared by every playable entity.
type Playable interface {
	Item
	Observable

	Name() string
	Description() string
	Duration() time.Duration
	PlaybackState() PlaybackState
	LastPlayed() utc.Time
	AddedAt() utc.Time

	Images() Collection[Image]
	Urls() Collection[Url]

	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	ChangeName(ctx context.Context, name string) error
	ChangeDescription(ctx context.Context, description string) error
	ChangeDuration(ctx context.Context, duration time.Duration) error
}

// AlbumItem is an entry of an album collection: an Album or an AlbumCollection.
type AlbumItem interface {
	Playable
}

// ArtistItem is an entry of an artist collection: an Artist or an ArtistCollection.
type ArtistItem interface {
	Playable
}

// PlaylistItem is an entry of a playlist collection: a Playlist or a PlaylistCollection.
type PlaylistItem interface {
	Playable
}

// TrackType classifies a track.
type TrackType string

// Track types.
const (
	TrackTypeSong    TrackType = "song"
	TrackTypePodcast TrackType = "podcast"
	TrackTypeOther   TrackType = "other"
)

// Track is a single playable recording.
type Track interface {
	Playable

	TrackType() TrackType
	TrackNumber() int
	DiscNumber() int
	Language() string
	IsExplicit() bool
	Lyrics() string

	// Album returns the album the track belongs to, or nil.
	Album() Album

	Artists() Collection[ArtistItem]
	Genres() Collection[Genre]
}

// TrackCollection is a playable collection of tracks.
type TrackCollection interface {
	Playable
	Tracks() Collection[Track]
	PlayTrack(ctx context.Context, track Track) error
}

// AlbumCollection is a playable collection of albums.
type AlbumCollection interface {
	AlbumItem
	Albums() Collection[AlbumItem]
	PlayAlbum(ctx context.Context, album AlbumItem) error
}

// ArtistCollection is a playable collection of artists.
type ArtistCollection interface {
	ArtistItem
	Artists() Collection[ArtistItem]
	PlayArtist(ctx context.Context, artist ArtistItem) error
}

// PlaylistCollection is a playable collection of playlists.
type PlaylistCollection interface {
	PlaylistItem
	Playlists() Collection[PlaylistItem]
	PlayPlaylist(ctx context.Context, playlist PlaylistItem) error
}

// Album is a published album.
type Album interface {
	AlbumItem
	DatePublished() utc.Time
	Tracks() Collection[Track]
	Artists() Collection[ArtistItem]
	Genres() Collection[Genre]
	PlayTrack(ctx context.Context, track Track) error
}

// Artist is a performing artist.
type Artist interface {
	ArtistItem
	Tracks() Collection[Track]
	Albums() Collection[AlbumItem]
	Genres() Collection[Genre]
	PlayTrack(ctx context.Context, track Track) error
	PlayAlbum(ctx context.Context, album AlbumItem) error
}

// Playlist is an ordered list of tracks.
type Playlist interface {
	PlaylistItem
	Tracks() Collection[Track]
	PlayTrack(ctx context.Context, track Track) error
}

// PlayableCollectionGroup groups albums, artists, playlists and tracks, and
// may contain child groups. Library, Discoverables, Pins, RecentlyPlayed,
// SearchHistory and SearchResults are groups told apart by Kind.
type PlayableCollectionGroup interface {
	AlbumCollection
	ArtistCollection
	PlaylistCollection
	TrackCollection
	Children() Collection[PlayableCollectionGroup]
	PlayChild(ctx context.Context, child PlayableCollectionGroup) error
}

// UserProfile describes the user signed in to a core.
type UserProfile interface {
	Item
	Observable
	DisplayName() string
	Email() string
	Region() string
	Images() Collection[Image]
	Urls() Collection[Url]
}
