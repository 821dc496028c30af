package output_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/strix/internal/cmd/output"
	"github.com/agentstation/strix/pkg/media"
	"github.com/agentstation/strix/pkg/media/memory"
	"github.com/agentstation/strix/pkg/merge"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    output.Format
		wantErr bool
	}{
		{in: "table", want: output.FormatTable},
		{in: "JSON", want: output.FormatJSON},
		{in: "yaml", want: output.FormatYAML},
		{in: "", want: ""},
		{in: "xml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := output.ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectFormat_Explicit(t *testing.T) {
	assert.Equal(t, output.FormatYAML, output.DetectFormat("YAML"))
}

func TestTableFormatter(t *testing.T) {
	devices := []output.Device{
		{Position: 0, Name: "Speakers", Type: "local", Core: "local", Active: true},
		{Position: 1, Name: "Living room", Type: "remote", Core: "spotify"},
	}
	var buf bytes.Buffer
	require.NoError(t, output.Print(&buf, output.FormatTable, devices))
	out := buf.String()
	assert.Contains(t, strings.ToUpper(out), "POSITION")
	assert.Contains(t, out, "Speakers")
	assert.Contains(t, out, "Living room")

	buf.Reset()
	require.NoError(t, output.Print(&buf, output.FormatTable, []output.Device{}))
	assert.Equal(t, "No results.\n", buf.String())
}

func TestPrint_Album(t *testing.T) {
	album := output.Album{
		Name:       "Abbey Road",
		Sources:    []string{"local", "spotify"},
		TrackCount: 2,
		Tracks:     []output.Track{{Number: 1, Name: "Come Together", Duration: "4m20s", Sources: []string{"local"}}},
	}

	var buf bytes.Buffer
	require.NoError(t, output.Print(&buf, output.FormatTable, album))
	assert.Contains(t, buf.String(), "Abbey Road")
	assert.Contains(t, buf.String(), "Come Together")
	assert.Contains(t, buf.String(), "local, spotify")

	buf.Reset()
	require.NoError(t, output.Print(&buf, output.FormatJSON, album))
	var decoded output.Album
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, album, decoded)

	buf.Reset()
	require.NoError(t, output.Print(&buf, output.FormatYAML, album))
	assert.Contains(t, buf.String(), "track_count: 2")
}

func TestEntries(t *testing.T) {
	ctx := context.Background()
	local := memory.NewCore("local", "Local")
	local.LibraryGroup().WithAlbums(memory.NewAlbum("local", "Abbey Road"))
	spotify := memory.NewCore("spotify", "Spotify")
	spotify.LibraryGroup().WithAlbums(memory.NewAlbum("spotify", "Abbey Road"), memory.NewAlbum("spotify", "Revolver"))

	cfg, err := merge.NewConfig(merge.WithRanking("local", "spotify"))
	require.NoError(t, err)
	library, err := merge.NewMergedGroup(cfg, local.LibraryGroup())
	require.NoError(t, err)
	require.NoError(t, library.AddSource(ctx, spotify.LibraryGroup()))
	defer library.Dispose(ctx)

	entries, err := output.Entries(ctx, library.AlbumMap(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, output.Entry{Position: 0, Name: "Abbey Road", Kind: media.KindAlbum.String(), Sources: []string{"local", "spotify"}}, entries[0])
	assert.Equal(t, "Revolver", entries[1].Name)
	assert.Equal(t, 1, entries[1].Position)
}

func TestTrackOf(t *testing.T) {
	track := memory.NewTrack("local", "Something").WithNumber(3).WithDuration(183 * time.Second)
	cfg, err := merge.NewConfig(merge.WithRanking("local"))
	require.NoError(t, err)
	merged, err := merge.NewMergedTrack(cfg, track)
	require.NoError(t, err)

	assert.Equal(t, output.Track{Number: 3, Name: "Something", Duration: "3m3s", Sources: []string{"local"}}, output.TrackOf(merged))
}
