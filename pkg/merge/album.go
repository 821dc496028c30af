package merge

import (
	"context"

	"github.com/agentstation/utc"

	"github.com/agentstation/strix/pkg/media"
)

// MergedAlbumItem is an entry of a merged album collection: a *MergedAlbum
// or a *MergedAlbumCollection.
type MergedAlbumItem interface {
	media.AlbumItem
	Merged[media.AlbumItem]
}

// MergedAlbum presents equal provider albums as one album.
type MergedAlbum struct {
	playable[media.AlbumItem]
	tracks  *CollectionMap[media.Track, *MergedTrack]
	artists *CollectionMap[media.ArtistItem, MergedArtistItem]
	genres  *CollectionMap[media.Genre, *MergedGenre]
}

var (
	_ media.Album     = (*MergedAlbum)(nil)
	_ MergedAlbumItem = (*MergedAlbum)(nil)
)

// NewMergedAlbum wraps first, which must be a media.Album.
func NewMergedAlbum(config *Config, first media.AlbumItem) (*MergedAlbum, error) {
	a := &MergedAlbum{}
	if err := a.init(a, config, first, shape[media.AlbumItem, media.Album]("an album")); err != nil {
		return nil, err
	}
	a.tracks = bind(&a.entity, NewCollectionMap("album tracks", config, trackDispatch(config)), media.PropTotalTrackCount,
		func(s media.AlbumItem) media.Collection[media.Track] { return s.(media.Album).Tracks() })
	a.artists = bind(&a.entity, NewCollectionMap("album artists", config, artistItemDispatch(config)), media.PropTotalArtistCount,
		func(s media.AlbumItem) media.Collection[media.ArtistItem] { return s.(media.Album).Artists() })
	a.genres = bind(&a.entity, NewCollectionMap("album genres", config, genreDispatch(config)), media.PropTotalGenreCount,
		func(s media.AlbumItem) media.Collection[media.Genre] { return s.(media.Album).Genres() })
	return a, nil
}

func (a *MergedAlbum) preferred() media.Album { return a.Preferred().(media.Album) }

// DatePublished returns the publication date of the preferred source.
func (a *MergedAlbum) DatePublished() utc.Time { return a.preferred().DatePublished() }

// Tracks implements media.Album.
func (a *MergedAlbum) Tracks() media.Collection[media.Track] { return a.tracks }

// Artists implements media.Album.
func (a *MergedAlbum) Artists() media.Collection[media.ArtistItem] { return a.artists }

// Genres implements media.Album.
func (a *MergedAlbum) Genres() media.Collection[media.Genre] { return a.genres }

// TrackMap returns the merged tracks with their concrete type.
func (a *MergedAlbum) TrackMap() *CollectionMap[media.Track, *MergedTrack] { return a.tracks }

// ArtistMap returns the merged artists with their concrete type.
func (a *MergedAlbum) ArtistMap() *CollectionMap[media.ArtistItem, MergedArtistItem] { return a.artists }

// GenreMap returns the merged genres with their concrete type.
func (a *MergedAlbum) GenreMap() *CollectionMap[media.Genre, *MergedGenre] { return a.genres }

// TotalTrackCount sums the track counts of every ranked source.
func (a *MergedAlbum) TotalTrackCount() int { return a.tracks.Count() }

// TotalArtistCount sums the artist counts of every ranked source.
func (a *MergedAlbum) TotalArtistCount() int { return a.artists.Count() }

// TotalGenreCount sums the genre counts of every ranked source.
func (a *MergedAlbum) TotalGenreCount() int { return a.genres.Count() }

// PlayTrack plays the track on the core of the preferred source.
func (a *MergedAlbum) PlayTrack(ctx context.Context, track media.Track) error {
	album := a.preferred()
	target, err := route(album.Core(), track)
	if err != nil {
		return err
	}
	return album.PlayTrack(ctx, target)
}

// MergedAlbumCollection presents equal provider album collections as one.
type MergedAlbumCollection struct {
	playable[media.AlbumItem]
	albums *CollectionMap[media.AlbumItem, MergedAlbumItem]
}

var (
	_ media.AlbumCollection = (*MergedAlbumCollection)(nil)
	_ MergedAlbumItem       = (*MergedAlbumCollection)(nil)
)

// NewMergedAlbumCollection wraps first, which must be a
// media.AlbumCollection.
func NewMergedAlbumCollection(config *Config, first media.AlbumItem) (*MergedAlbumCollection, error) {
	c := &MergedAlbumCollection{}
	if err := c.init(c, config, first, shape[media.AlbumItem, media.AlbumCollection]("an album collection")); err != nil {
		return nil, err
	}
	c.albums = bind(&c.entity, NewCollectionMap("albums", config, albumItemDispatch(config)), media.PropTotalAlbumCount,
		func(s media.AlbumItem) media.Collection[media.AlbumItem] { return s.(media.AlbumCollection).Albums() })
	return c, nil
}

// Albums implements media.AlbumCollection.
func (c *MergedAlbumCollection) Albums() media.Collection[media.AlbumItem] { return c.albums }

// AlbumMap returns the merged albums with their concrete type.
func (c *MergedAlbumCollection) AlbumMap() *CollectionMap[media.AlbumItem, MergedAlbumItem] {
	return c.albums
}

// TotalAlbumCount sums the album counts of every ranked source.
func (c *MergedAlbumCollection) TotalAlbumCount() int { return c.albums.Count() }

// PlayAlbum plays the album on the core of the preferred source.
func (c *MergedAlbumCollection) PlayAlbum(ctx context.Context, album media.AlbumItem) error {
	collection := c.Preferred().(media.AlbumCollection)
	target, err := route(collection.Core(), album)
	if err != nil {
		return err
	}
	return collection.PlayAlbum(ctx, target)
}
