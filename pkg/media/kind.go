// Package media defines the contracts a provider ("core") implements so its
// entities can be folded into the merged view: items and their kinds, the
// nested collection capability surface, change notifications and the core
// itself.
//
// Every entity emitted by a provider belongs to exactly one core and carries
// a Kind. Nested collections are exposed through the generic Collection
// interface, instantiated once per element type.
package media

import "slices"

// CoreID identifies one attached provider instance.
type CoreID string

// String returns the string representation of a core id.
func (id CoreID) String() string {
	return string(id)
}

// Kind identifies the entity kind of a provider item.
type Kind string

// String returns the string representation of a kind.
func (k Kind) String() string {
	return string(k)
}

// Entity kinds.
const (
	KindTrack              Kind = "track"
	KindAlbum              Kind = "album"
	KindAlbumCollection    Kind = "album_collection"
	KindArtist             Kind = "artist"
	KindArtistCollection   Kind = "artist_collection"
	KindPlaylist           Kind = "playlist"
	KindPlaylistCollection Kind = "playlist_collection"
	KindTrackCollection    Kind = "track_collection"
	KindGenre              Kind = "genre"
	KindImage              Kind = "image"
	KindUrl                Kind = "url"
	KindUserProfile        Kind = "user_profile"
	KindCollectionGroup    Kind = "collection_group"
	KindLibrary            Kind = "library"
	KindDiscoverables      Kind = "discoverables"
	KindRecentlyPlayed     Kind = "recently_played"
	KindPins               Kind = "pins"
	KindSearchHistory      Kind = "search_history"
	KindSearchResults      Kind = "search_results"
	KindSearch             Kind = "search"
	KindDevice             Kind = "device"
)

// Kinds returns every defined kind.
func Kinds() []Kind {
	return []Kind{
		KindTrack,
		KindAlbum,
		KindAlbumCollection,
		KindArtist,
		KindArtistCollection,
		KindPlaylist,
		KindPlaylistCollection,
		KindTrackCollection,
		KindGenre,
		KindImage,
		KindUrl,
		KindUserProfile,
		KindCollectionGroup,
		KindLibrary,
		KindDiscoverables,
		KindRecentlyPlayed,
		KindPins,
		KindSearchHistory,
		KindSearchResults,
		KindSearch,
		KindDevice,
	}
}

// IsValid returns true if the kind is one of the defined constants.
func (k Kind) IsValid() bool {
	return slices.Contains(Kinds(), k)
}

// IsGroup reports whether items of this kind are playable collection groups.
func (k Kind) IsGroup() bool {
	switch k {
	case KindCollectionGroup, KindLibrary, KindDiscoverables, KindRecentlyPlayed,
		KindPins, KindSearchHistory, KindSearchResults:
		return true
	}
	return false
}
