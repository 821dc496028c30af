package merge

import (
	"context"
	"sync"

	"github.com/agentstation/strix/pkg/errors"
	"github.com/agentstation/strix/pkg/logging"
	"github.com/agentstation/strix/pkg/media"
)

// MergedTrack presents equal provider tracks as one track.
type MergedTrack struct {
	playable[media.Track]
	artists *CollectionMap[media.ArtistItem, MergedArtistItem]
	genres  *CollectionMap[media.Genre, *MergedGenre]

	albumMu sync.Mutex
	album   *MergedAlbum
	loaded  bool
}

var (
	_ media.Track         = (*MergedTrack)(nil)
	_ Merged[media.Track] = (*MergedTrack)(nil)
)

// NewMergedTrack wraps first, which becomes the preferred source.
func NewMergedTrack(config *Config, first media.Track) (*MergedTrack, error) {
	t := &MergedTrack{}
	if err := t.init(t, config, first, nil); err != nil {
		return nil, err
	}
	t.artists = bind(&t.entity, NewCollectionMap("track artists", config, artistItemDispatch(config)), media.PropTotalArtistCount,
		func(s media.Track) media.Collection[media.ArtistItem] { return s.Artists() })
	t.genres = bind(&t.entity, NewCollectionMap("track genres", config, genreDispatch(config)), media.PropTotalGenreCount,
		func(s media.Track) media.Collection[media.Genre] { return s.Genres() })
	return t, nil
}

// TrackType returns the type of the preferred source.
func (t *MergedTrack) TrackType() media.TrackType { return t.Preferred().TrackType() }

// TrackNumber returns the number of the preferred source.
func (t *MergedTrack) TrackNumber() int { return t.Preferred().TrackNumber() }

// DiscNumber returns the disc of the preferred source.
func (t *MergedTrack) DiscNumber() int { return t.Preferred().DiscNumber() }

// Language returns the language of the preferred source.
func (t *MergedTrack) Language() string { return t.Preferred().Language() }

// IsExplicit reports whether the preferred source is explicit.
func (t *MergedTrack) IsExplicit() bool { return t.Preferred().IsExplicit() }

// Lyrics returns the lyrics of the preferred source.
func (t *MergedTrack) Lyrics() string { return t.Preferred().Lyrics() }

// ChangeLyrics is not supported: lyrics cannot be reconciled across sources.
func (t *MergedTrack) ChangeLyrics(context.Context, string) error {
	return errors.NewNotSupportedError("change lyrics", t.Kind().String())
}

// Artists implements media.Track.
func (t *MergedTrack) Artists() media.Collection[media.ArtistItem] { return t.artists }

// Genres implements media.Track.
func (t *MergedTrack) Genres() media.Collection[media.Genre] { return t.genres }

// ArtistMap returns the merged artists with their concrete type.
func (t *MergedTrack) ArtistMap() *CollectionMap[media.ArtistItem, MergedArtistItem] { return t.artists }

// GenreMap returns the merged genres with their concrete type.
func (t *MergedTrack) GenreMap() *CollectionMap[media.Genre, *MergedGenre] { return t.genres }

// TotalArtistCount sums the artist counts of every ranked source.
func (t *MergedTrack) TotalArtistCount() int { return t.artists.Count() }

// TotalGenreCount sums the genre counts of every ranked source.
func (t *MergedTrack) TotalGenreCount() int { return t.genres.Count() }

// Album merges the albums of every source on first use. It returns nil when
// no source has an album.
func (t *MergedTrack) Album() media.Album {
	album := t.MergedAlbum()
	if album == nil {
		return nil
	}
	return album
}

// MergedAlbum is Album with the concrete type.
func (t *MergedTrack) MergedAlbum() *MergedAlbum {
	t.albumMu.Lock()
	defer t.albumMu.Unlock()
	if t.loaded || t.Disposed() {
		return t.album
	}
	t.loaded = true
	for _, s := range t.Sources() {
		t.foldAlbum(context.Background(), s)
	}
	return t.album
}

// AddSource folds item in and, once the album is loaded, its album too.
func (t *MergedTrack) AddSource(ctx context.Context, item media.Track) error {
	if err := t.entity.AddSource(ctx, item); err != nil {
		return err
	}
	t.albumMu.Lock()
	defer t.albumMu.Unlock()
	if t.loaded {
		t.foldAlbum(ctx, item)
	}
	return nil
}

// RemoveSource detaches item. A loaded album is rebuilt from the remaining
// sources on next use.
func (t *MergedTrack) RemoveSource(ctx context.Context, item media.Track) error {
	if err := t.entity.RemoveSource(ctx, item); err != nil {
		return err
	}
	t.albumMu.Lock()
	album := t.album
	t.album, t.loaded = nil, false
	t.albumMu.Unlock()
	if album != nil {
		return album.Dispose(ctx)
	}
	return nil
}

// Dispose releases the track, its nested maps and its loaded album.
func (t *MergedTrack) Dispose(ctx context.Context) error {
	t.albumMu.Lock()
	album := t.album
	t.album = nil
	t.loaded = true
	t.albumMu.Unlock()

	err := t.entity.Dispose(ctx)
	if album != nil {
		err = errors.Join(err, album.Dispose(ctx))
	}
	return err
}

// foldAlbum adds the album of s to the merged album. Albums that are not
// equal to the merged one are left out. Callers hold albumMu.
func (t *MergedTrack) foldAlbum(ctx context.Context, s media.Track) {
	a := s.Album()
	if isNil(a) {
		return
	}
	if t.album == nil {
		album, err := NewMergedAlbum(t.Config(), a)
		if err != nil {
			logging.FromContext(ctx).Warn().Err(err).Str("track", t.ID()).Msg("Failed to merge track album")
			return
		}
		t.album = album
		return
	}
	if err := t.album.AddSource(ctx, a); err != nil {
		logging.FromContext(ctx).Debug().Err(err).
			Str("track", t.ID()).
			Str("core", s.Core().String()).
			Msg("Album left out of merged track album")
	}
}
