package merge

import (
	"context"

	"github.com/agentstation/strix/pkg/media"
)

// MergedArtistItem is an entry of a merged artist collection: a
// *MergedArtist or a *MergedArtistCollection.
type MergedArtistItem interface {
	media.ArtistItem
	Merged[media.ArtistItem]
}

// MergedArtist presents equal provider artists as one artist.
type MergedArtist struct {
	playable[media.ArtistItem]
	tracks *CollectionMap[media.Track, *MergedTrack]
	albums *CollectionMap[media.AlbumItem, MergedAlbumItem]
	genres *CollectionMap[media.Genre, *MergedGenre]
}

var (
	_ media.Artist     = (*MergedArtist)(nil)
	_ MergedArtistItem = (*MergedArtist)(nil)
)

// NewMergedArtist wraps first, which must be a media.Artist.
func NewMergedArtist(config *Config, first media.ArtistItem) (*MergedArtist, error) {
	a := &MergedArtist{}
	if err := a.init(a, config, first, shape[media.ArtistItem, media.Artist]("an artist")); err != nil {
		return nil, err
	}
	a.tracks = bind(&a.entity, NewCollectionMap("artist tracks", config, trackDispatch(config)), media.PropTotalTrackCount,
		func(s media.ArtistItem) media.Collection[media.Track] { return s.(media.Artist).Tracks() })
	a.albums = bind(&a.entity, NewCollectionMap("artist albums", config, albumItemDispatch(config)), media.PropTotalAlbumCount,
		func(s media.ArtistItem) media.Collection[media.AlbumItem] { return s.(media.Artist).Albums() })
	a.genres = bind(&a.entity, NewCollectionMap("artist genres", config, genreDispatch(config)), media.PropTotalGenreCount,
		func(s media.ArtistItem) media.Collection[media.Genre] { return s.(media.Artist).Genres() })
	return a, nil
}

func (a *MergedArtist) preferred() media.Artist { return a.Preferred().(media.Artist) }

// Tracks implements media.Artist.
func (a *MergedArtist) Tracks() media.Collection[media.Track] { return a.tracks }

// Albums implements media.Artist.
func (a *MergedArtist) Albums() media.Collection[media.AlbumItem] { return a.albums }

// Genres implements media.Artist.
func (a *MergedArtist) Genres() media.Collection[media.Genre] { return a.genres }

// TrackMap returns the merged tracks with their concrete type.
func (a *MergedArtist) TrackMap() *CollectionMap[media.Track, *MergedTrack] { return a.tracks }

// AlbumMap returns the merged albums with their concrete type.
func (a *MergedArtist) AlbumMap() *CollectionMap[media.AlbumItem, MergedAlbumItem] { return a.albums }

// GenreMap returns the merged genres with their concrete type.
func (a *MergedArtist) GenreMap() *CollectionMap[media.Genre, *MergedGenre] { return a.genres }

// TotalTrackCount sums the track counts of every ranked source.
func (a *MergedArtist) TotalTrackCount() int { return a.tracks.Count() }

// TotalAlbumCount sums the album counts of every ranked source.
func (a *MergedArtist) TotalAlbumCount() int { return a.albums.Count() }

// TotalGenreCount sums the genre counts of every ranked source.
func (a *MergedArtist) TotalGenreCount() int { return a.genres.Count() }

// PlayTrack plays the track on the core of the preferred source.
func (a *MergedArtist) PlayTrack(ctx context.Context, track media.Track) error {
	artist := a.preferred()
	target, err := route(artist.Core(), track)
	if err != nil {
		return err
	}
	return artist.PlayTrack(ctx, target)
}

// PlayAlbum plays the album on the core of the preferred source.
func (a *MergedArtist) PlayAlbum(ctx context.Context, album media.AlbumItem) error {
	artist := a.preferred()
	target, err := route(artist.Core(), album)
	if err != nil {
		return err
	}
	return artist.PlayAlbum(ctx, target)
}

// MergedArtistCollection presents equal provider artist collections as one.
type MergedArtistCollection struct {
	playable[media.ArtistItem]
	artists *CollectionMap[media.ArtistItem, MergedArtistItem]
}

var (
	_ media.ArtistCollection = (*MergedArtistCollection)(nil)
	_ MergedArtistItem       = (*MergedArtistCollection)(nil)
)

// NewMergedArtistCollection wraps first, which must be a
// media.ArtistCollection.
func NewMergedArtistCollection(config *Config, first media.ArtistItem) (*MergedArtistCollection, error) {
	c := &MergedArtistCollection{}
	if err := c.init(c, config, first, shape[media.ArtistItem, media.ArtistCollection]("an artist collection")); err != nil {
		return nil, err
	}
	c.artists = bind(&c.entity, NewCollectionMap("artists", config, artistItemDispatch(config)), media.PropTotalArtistCount,
		func(s media.ArtistItem) media.Collection[media.ArtistItem] { return s.(media.ArtistCollection).Artists() })
	return c, nil
}

// Artists implements media.ArtistCollection.
func (c *MergedArtistCollection) Artists() media.Collection[media.ArtistItem] { return c.artists }

// ArtistMap returns the merged artists with their concrete type.
func (c *MergedArtistCollection) ArtistMap() *CollectionMap[media.ArtistItem, MergedArtistItem] {
	return c.artists
}

// TotalArtistCount sums the artist counts of every ranked source.
func (c *MergedArtistCollection) TotalArtistCount() int { return c.artists.Count() }

// PlayArtist plays the artist on the core of the preferred source.
func (c *MergedArtistCollection) PlayArtist(ctx context.Context, artist media.ArtistItem) error {
	collection := c.Preferred().(media.ArtistCollection)
	target, err := route(collection.Core(), artist)
	if err != nil {
		return err
	}
	return collection.PlayArtist(ctx, target)
}
