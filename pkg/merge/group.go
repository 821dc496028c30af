package merge

import (
	"context"

	"github.com/agentstation/strix/pkg/media"
)

// MergedGroup presents equal provider collection groups as one group. The
// library, discoverables, pins, recently played, search history and search
// results are merged groups told apart by Kind.
type MergedGroup struct {
	playable[media.PlayableCollectionGroup]
	albums    *CollectionMap[media.AlbumItem, MergedAlbumItem]
	artists   *CollectionMap[media.ArtistItem, MergedArtistItem]
	playlists *CollectionMap[media.PlaylistItem, MergedPlaylistItem]
	tracks    *CollectionMap[media.Track, *MergedTrack]
	children  *CollectionMap[media.PlayableCollectionGroup, *MergedGroup]
}

var (
	_ media.PlayableCollectionGroup         = (*MergedGroup)(nil)
	_ Merged[media.PlayableCollectionGroup] = (*MergedGroup)(nil)
)

// NewMergedGroup wraps first, which becomes the preferred source.
func NewMergedGroup(config *Config, first media.PlayableCollectionGroup) (*MergedGroup, error) {
	g := &MergedGroup{}
	if err := g.init(g, config, first, nil); err != nil {
		return nil, err
	}
	g.albums = bind(&g.entity, NewCollectionMap("group albums", config, albumItemDispatch(config)), media.PropTotalAlbumCount,
		func(s media.PlayableCollectionGroup) media.Collection[media.AlbumItem] { return s.Albums() })
	g.artists = bind(&g.entity, NewCollectionMap("group artists", config, artistItemDispatch(config)), media.PropTotalArtistCount,
		func(s media.PlayableCollectionGroup) media.Collection[media.ArtistItem] { return s.Artists() })
	g.playlists = bind(&g.entity, NewCollectionMap("group playlists", config, playlistItemDispatch(config)), media.PropTotalPlaylistCount,
		func(s media.PlayableCollectionGroup) media.Collection[media.PlaylistItem] { return s.Playlists() })
	g.tracks = bind(&g.entity, NewCollectionMap("group tracks", config, trackDispatch(config)), media.PropTotalTrackCount,
		func(s media.PlayableCollectionGroup) media.Collection[media.Track] { return s.Tracks() })
	g.children = bind(&g.entity, NewCollectionMap("group children", config, groupDispatch(config)), media.PropTotalChildrenCount,
		func(s media.PlayableCollectionGroup) media.Collection[media.PlayableCollectionGroup] { return s.Children() })
	return g, nil
}

// AddFeatureSource folds src into a top level group such as the library or
// the pins. Only the kinds have to match: every core has exactly one group of
// each such kind, whatever its name.
func (g *MergedGroup) AddFeatureSource(ctx context.Context, src media.PlayableCollectionGroup) error {
	return g.addSource(ctx, src, false)
}

// Albums implements media.AlbumCollection.
func (g *MergedGroup) Albums() media.Collection[media.AlbumItem] { return g.albums }

// Artists implements media.ArtistCollection.
func (g *MergedGroup) Artists() media.Collection[media.ArtistItem] { return g.artists }

// Playlists implements media.PlaylistCollection.
func (g *MergedGroup) Playlists() media.Collection[media.PlaylistItem] { return g.playlists }

// Tracks implements media.TrackCollection.
func (g *MergedGroup) Tracks() media.Collection[media.Track] { return g.tracks }

// Children implements media.PlayableCollectionGroup.
func (g *MergedGroup) Children() media.Collection[media.PlayableCollectionGroup] { return g.children }

// AlbumMap returns the merged albums with their concrete type.
func (g *MergedGroup) AlbumMap() *CollectionMap[media.AlbumItem, MergedAlbumItem] { return g.albums }

// ArtistMap returns the merged artists with their concrete type.
func (g *MergedGroup) ArtistMap() *CollectionMap[media.ArtistItem, MergedArtistItem] { return g.artists }

// PlaylistMap returns the merged playlists with their concrete type.
func (g *MergedGroup) PlaylistMap() *CollectionMap[media.PlaylistItem, MergedPlaylistItem] {
	return g.playlists
}

// TrackMap returns the merged tracks with their concrete type.
func (g *MergedGroup) TrackMap() *CollectionMap[media.Track, *MergedTrack] { return g.tracks }

// ChildMap returns the merged child groups with their concrete type.
func (g *MergedGroup) ChildMap() *CollectionMap[media.PlayableCollectionGroup, *MergedGroup] {
	return g.children
}

// TotalAlbumCount sums the album counts of every ranked source.
func (g *MergedGroup) TotalAlbumCount() int { return g.albums.Count() }

// TotalArtistCount sums the artist counts of every ranked source.
func (g *MergedGroup) TotalArtistCount() int { return g.artists.Count() }

// TotalPlaylistCount sums the playlist counts of every ranked source.
func (g *MergedGroup) TotalPlaylistCount() int { return g.playlists.Count() }

// TotalTrackCount sums the track counts of every ranked source.
func (g *MergedGroup) TotalTrackCount() int { return g.tracks.Count() }

// TotalChildrenCount sums the child group counts of every ranked source.
func (g *MergedGroup) TotalChildrenCount() int { return g.children.Count() }

// PlayAlbum plays the album on the core of the preferred source.
func (g *MergedGroup) PlayAlbum(ctx context.Context, album media.AlbumItem) error {
	group := g.Preferred()
	target, err := route(group.Core(), album)
	if err != nil {
		return err
	}
	return group.PlayAlbum(ctx, target)
}

// PlayArtist plays the artist on the core of the preferred source.
func (g *MergedGroup) PlayArtist(ctx context.Context, artist media.ArtistItem) error {
	group := g.Preferred()
	target, err := route(group.Core(), artist)
	if err != nil {
		return err
	}
	return group.PlayArtist(ctx, target)
}

// PlayPlaylist plays the playlist on the core of the preferred source.
func (g *MergedGroup) PlayPlaylist(ctx context.Context, playlist media.PlaylistItem) error {
	group := g.Preferred()
	target, err := route(group.Core(), playlist)
	if err != nil {
		return err
	}
	return group.PlayPlaylist(ctx, target)
}

// PlayTrack plays the track on the core of the preferred source.
func (g *MergedGroup) PlayTrack(ctx context.Context, track media.Track) error {
	group := g.Preferred()
	target, err := route(group.Core(), track)
	if err != nil {
		return err
	}
	return group.PlayTrack(ctx, target)
}

// PlayChild plays the child group on the core of the preferred source.
func (g *MergedGroup) PlayChild(ctx context.Context, child media.PlayableCollectionGroup) error {
	group := g.Preferred()
	target, err := route(group.Core(), child)
	if err != nil {
		return err
	}
	return group.PlayChild(ctx, target)
}
