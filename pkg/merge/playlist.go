package merge

import (
	"context"

	"github.com/agentstation/strix/pkg/media"
)

// MergedPlaylistItem is an entry of a merged playlist collection: a
// *MergedPlaylist or a *MergedPlaylistCollection.
type MergedPlaylistItem interface {
	media.PlaylistItem
	Merged[media.PlaylistItem]
}

// MergedPlaylist presents equal provider playlists as one playlist.
type MergedPlaylist struct {
	playable[media.PlaylistItem]
	tracks *CollectionMap[media.Track, *MergedTrack]
}

var (
	_ media.Playlist     = (*MergedPlaylist)(nil)
	_ MergedPlaylistItem = (*MergedPlaylist)(nil)
)

// NewMergedPlaylist wraps first, which must be a media.Playlist.
func NewMergedPlaylist(config *Config, first media.PlaylistItem) (*MergedPlaylist, error) {
	p := &MergedPlaylist{}
	if err := p.init(p, config, first, shape[media.PlaylistItem, media.Playlist]("a playlist")); err != nil {
		return nil, err
	}
	p.tracks = bind(&p.entity, NewCollectionMap("playlist tracks", config, trackDispatch(config)), media.PropTotalTrackCount,
		func(s media.PlaylistItem) media.Collection[media.Track] { return s.(media.Playlist).Tracks() })
	return p, nil
}

// Tracks implements media.Playlist.
func (p *MergedPlaylist) Tracks() media.Collection[media.Track] { return p.tracks }

// TrackMap returns the merged tracks with their concrete type.
func (p *MergedPlaylist) TrackMap() *CollectionMap[media.Track, *MergedTrack] { return p.tracks }

// TotalTrackCount sums the track counts of every ranked source.
func (p *MergedPlaylist) TotalTrackCount() int { return p.tracks.Count() }

// PlayTrack plays the track on the core of the preferred source.
func (p *MergedPlaylist) PlayTrack(ctx context.Context, track media.Track) error {
	playlist := p.Preferred().(media.Playlist)
	target, err := route(playlist.Core(), track)
	if err != nil {
		return err
	}
	return playlist.PlayTrack(ctx, target)
}

// MergedPlaylistCollection presents equal provider playlist collections as
// one.
type MergedPlaylistCollection struct {
	playable[media.PlaylistItem]
	playlists *CollectionMap[media.PlaylistItem, MergedPlaylistItem]
}

var (
	_ media.PlaylistCollection = (*MergedPlaylistCollection)(nil)
	_ MergedPlaylistItem       = (*MergedPlaylistCollection)(nil)
)

// NewMergedPlaylistCollection wraps first, which must be a
// media.PlaylistCollection.
func NewMergedPlaylistCollection(config *Config, first media.PlaylistItem) (*MergedPlaylistCollection, error) {
	c := &MergedPlaylistCollection{}
	if err := c.init(c, config, first, shape[media.PlaylistItem, media.PlaylistCollection]("a playlist collection")); err != nil {
		return nil, err
	}
	c.playlists = bind(&c.entity, NewCollectionMap("playlists", config, playlistItemDispatch(config)), media.PropTotalPlaylistCount,
		func(s media.PlaylistItem) media.Collection[media.PlaylistItem] {
			return s.(media.PlaylistCollection).Playlists()
		})
	return c, nil
}

// Playlists implements media.PlaylistCollection.
func (c *MergedPlaylistCollection) Playlists() media.Collection[media.PlaylistItem] {
	return c.playlists
}

// PlaylistMap returns the merged playlists with their concrete type.
func (c *MergedPlaylistCollection) PlaylistMap() *CollectionMap[media.PlaylistItem, MergedPlaylistItem] {
	return c.playlists
}

// TotalPlaylistCount sums the playlist counts of every ranked source.
func (c *MergedPlaylistCollection) TotalPlaylistCount() int { return c.playlists.Count() }

// PlayPlaylist plays the playlist on the core of the preferred source.
func (c *MergedPlaylistCollection) PlayPlaylist(ctx context.Context, playlist media.PlaylistItem) error {
	collection := c.Preferred().(media.PlaylistCollection)
	target, err := route(collection.Core(), playlist)
	if err != nil {
		return err
	}
	return collection.PlayPlaylist(ctx, target)
}
