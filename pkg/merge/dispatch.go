package merge

import (
	"github.com/agentstation/strix/pkg/errors"
	"github.com/agentstation/strix/pkg/media"
)

// groupKinds are the kinds of playable collection groups.
var groupKinds = []media.Kind{
	media.KindCollectionGroup,
	media.KindLibrary,
	media.KindDiscoverables,
	media.KindRecentlyPlayed,
	media.KindPins,
	media.KindSearchHistory,
	media.KindSearchResults,
}

// lift adapts a constructor returning a concrete merged type to a dispatch
// entry producing M.
func lift[T media.Item, M Merged[T], C any](config *Config, fn func(*Config, T) (C, error)) func(T) (M, error) {
	return func(item T) (M, error) {
		var zero M
		c, err := fn(config, item)
		if err != nil {
			return zero, err
		}
		m, ok := any(c).(M)
		if !ok {
			return zero, errors.NewNotImplementedError("merge", item.Kind().String())
		}
		return m, nil
	}
}

func trackDispatch(config *Config) Dispatch[media.Track, *MergedTrack] {
	return Dispatch[media.Track, *MergedTrack]{
		media.KindTrack: lift[media.Track, *MergedTrack](config, NewMergedTrack),
	}
}

// albumItemDispatch wraps albums as merged albums and every album
// collection, groups included, as a merged album collection.
func albumItemDispatch(config *Config) Dispatch[media.AlbumItem, MergedAlbumItem] {
	d := Dispatch[media.AlbumItem, MergedAlbumItem]{
		media.KindAlbum:           lift[media.AlbumItem, MergedAlbumItem](config, NewMergedAlbum),
		media.KindAlbumCollection: lift[media.AlbumItem, MergedAlbumItem](config, NewMergedAlbumCollection),
	}
	for _, k := range groupKinds {
		d[k] = lift[media.AlbumItem, MergedAlbumItem](config, NewMergedAlbumCollection)
	}
	return d
}

func artistItemDispatch(config *Config) Dispatch[media.ArtistItem, MergedArtistItem] {
	d := Dispatch[media.ArtistItem, MergedArtistItem]{
		media.KindArtist:           lift[media.ArtistItem, MergedArtistItem](config, NewMergedArtist),
		media.KindArtistCollection: lift[media.ArtistItem, MergedArtistItem](config, NewMergedArtistCollection),
	}
	for _, k := range groupKinds {
		d[k] = lift[media.ArtistItem, MergedArtistItem](config, NewMergedArtistCollection)
	}
	return d
}

func playlistItemDispatch(config *Config) Dispatch[media.PlaylistItem, MergedPlaylistItem] {
	d := Dispatch[media.PlaylistItem, MergedPlaylistItem]{
		media.KindPlaylist:           lift[media.PlaylistItem, MergedPlaylistItem](config, NewMergedPlaylist),
		media.KindPlaylistCollection: lift[media.PlaylistItem, MergedPlaylistItem](config, NewMergedPlaylistCollection),
	}
	for _, k := range groupKinds {
		d[k] = lift[media.PlaylistItem, MergedPlaylistItem](config, NewMergedPlaylistCollection)
	}
	return d
}

func groupDispatch(config *Config) Dispatch[media.PlayableCollectionGroup, *MergedGroup] {
	d := Dispatch[media.PlayableCollectionGroup, *MergedGroup]{}
	for _, k := range groupKinds {
		d[k] = lift[media.PlayableCollectionGroup, *MergedGroup](config, NewMergedGroup)
	}
	return d
}

func imageDispatch(config *Config) Dispatch[media.Image, *MergedImage] {
	return Dispatch[media.Image, *MergedImage]{
		media.KindImage: lift[media.Image, *MergedImage](config, NewMergedImage),
	}
}

func urlDispatch(config *Config) Dispatch[media.Url, *MergedUrl] {
	return Dispatch[media.Url, *MergedUrl]{
		media.KindUrl: lift[media.Url, *MergedUrl](config, NewMergedUrl),
	}
}

func genreDispatch(config *Config) Dispatch[media.Genre, *MergedGenre] {
	return Dispatch[media.Genre, *MergedGenre]{
		media.KindGenre: lift[media.Genre, *MergedGenre](config, NewMergedGenre),
	}
}

// NewTrackMap returns an empty merged track map.
func NewTrackMap(name string, config *Config) *CollectionMap[media.Track, *MergedTrack] {
	return NewCollectionMap(name, config, trackDispatch(config))
}

// NewAlbumMap returns an empty merged album map.
func NewAlbumMap(name string, config *Config) *CollectionMap[media.AlbumItem, MergedAlbumItem] {
	return NewCollectionMap(name, config, albumItemDispatch(config))
}

// NewArtistMap returns an empty merged artist map.
func NewArtistMap(name string, config *Config) *CollectionMap[media.ArtistItem, MergedArtistItem] {
	return NewCollectionMap(name, config, artistItemDispatch(config))
}

// NewPlaylistMap returns an empty merged playlist map.
func NewPlaylistMap(name string, config *Config) *CollectionMap[media.PlaylistItem, MergedPlaylistItem] {
	return NewCollectionMap(name, config, playlistItemDispatch(config))
}

// NewGroupMap returns an empty merged group map.
func NewGroupMap(name string, config *Config) *CollectionMap[media.PlayableCollectionGroup, *MergedGroup] {
	return NewCollectionMap(name, config, groupDispatch(config))
}
