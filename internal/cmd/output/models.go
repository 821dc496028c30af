package output

import (
	"context"
	"io"
	"time"

	"github.com/agentstation/strix/pkg/media"
	"github.com/agentstation/strix/pkg/merge"
)

// Source is one core of the aggregate.
type Source struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Rank     int      `json:"rank" yaml:"rank"`
	Features []string `json:"features" yaml:"features"`
	Devices  int      `json:"devices" yaml:"devices"`
}

// Entry is one merged item of a collection.
type Entry struct {
	Position int      `json:"position" yaml:"position"`
	Name     string   `json:"name" yaml:"name"`
	Kind     string   `json:"kind" yaml:"kind"`
	Sources  []string `json:"sources" yaml:"sources"`
}

// Track is one merged track.
type Track struct {
	Number   int      `json:"number" yaml:"number"`
	Name     string   `json:"name" yaml:"name"`
	Duration string   `json:"duration" yaml:"duration"`
	Sources  []string `json:"sources" yaml:"sources"`
}

// Album describes one merged album.
type Album struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Sources     []string `json:"sources" yaml:"sources"`
	TrackCount  int      `json:"track_count" yaml:"track_count"`
	Tracks      []Track  `json:"tracks" yaml:"tracks"`
}

// Device is one proxied device.
type Device struct {
	Position int    `json:"position" yaml:"position"`
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	Core     string `json:"core" yaml:"core"`
	Active   bool   `json:"active" yaml:"active"`
}

// Search is the outcome of a merged search.
type Search struct {
	Query       string   `json:"query" yaml:"query"`
	Completions []string `json:"completions" yaml:"completions"`
	Results     []Entry  `json:"results" yaml:"results"`
}

// Entries walks a merged collection and converts every item.
func Entries[T media.Item, M merge.Merged[T]](ctx context.Context, c *merge.CollectionMap[T, M], pageSize int) ([]Entry, error) {
	var items []M
	for m, err := range c.All(ctx, pageSize) {
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	// Later pages can fold more sources into earlier items.
	out := make([]Entry, len(items))
	for i, m := range items {
		out[i] = EntryOf[T](i, m)
	}
	return out, nil
}

// EntryOf converts a merged item.
func EntryOf[T media.Item](position int, m merge.Merged[T]) Entry {
	name := m.ID()
	if n, ok := m.(interface{ Name() string }); ok {
		name = n.Name()
	}
	return Entry{Position: position, Name: name, Kind: m.Kind().String(), Sources: sourceCores(m.Sources())}
}

// GroupEntries lists the albums, artists, playlists and tracks of g, in
// that order.
func GroupEntries(ctx context.Context, g *merge.MergedGroup, pageSize int) ([]Entry, error) {
	var out []Entry
	collect := func(entries []Entry, err error) error {
		if err != nil {
			return err
		}
		for _, e := range entries {
			e.Position = len(out)
			out = append(out, e)
		}
		return nil
	}
	if err := collect(Entries(ctx, g.AlbumMap(), pageSize)); err != nil {
		return nil, err
	}
	if err := collect(Entries(ctx, g.ArtistMap(), pageSize)); err != nil {
		return nil, err
	}
	if err := collect(Entries(ctx, g.PlaylistMap(), pageSize)); err != nil {
		return nil, err
	}
	if err := collect(Entries(ctx, g.TrackMap(), pageSize)); err != nil {
		return nil, err
	}
	return out, nil
}

// TrackOf converts a merged track.
func TrackOf(t *merge.MergedTrack) Track {
	return Track{
		Number:   t.TrackNumber(),
		Name:     t.Name(),
		Duration: t.Duration().Round(time.Second).String(),
		Sources:  sourceCores(t.Sources()),
	}
}

func sourceCores[T media.Item](sources []T) []string {
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = string(s.Core())
	}
	return out
}

// Print writes data to w in format. Album details are printed as a
// property table followed by the track table.
func Print(w io.Writer, format Format, data any) error {
	formatter := NewFormatter(format)
	album, ok := data.(Album)
	if !ok || format == FormatJSON || format == FormatYAML {
		return formatter.Format(w, data)
	}
	summary := struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Sources     []string `json:"sources"`
		TrackCount  int      `json:"track_count"`
	}{album.Name, album.Description, album.Sources, album.TrackCount}
	if err := formatter.Format(w, summary); err != nil {
		return err
	}
	return formatter.Format(w, album.Tracks)
}
