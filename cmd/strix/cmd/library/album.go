package library

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/strix/internal/appcontext"
	"github.com/agentstation/strix/internal/cmd/globals"
	"github.com/agentstation/strix/internal/cmd/output"
	"github.com/agentstation/strix/pkg/errors"
	"github.com/agentstation/strix/pkg/merge"
)

// NewAlbumCommand creates the album command.
func NewAlbumCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "album <name>",
		Short: "Show a merged album and its tracks",
		Args:  cobra.ExactArgs(1),
		Example: `  strix album "Abbey Road"
  strix album "abbey road" --group pins -o yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, pageSize, err := resolve(cmd, app)
			if err != nil {
				return err
			}
			album, err := FindAlbum(cmd.Context(), g, args[0], pageSize)
			if err != nil {
				return err
			}
			details, err := Describe(cmd.Context(), album, pageSize)
			if err != nil {
				return err
			}
			return output.Print(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()), details)
		},
	}
	globals.AddBrowseFlags(cmd, false)
	return cmd
}

// FindAlbum returns the first merged album of g whose name matches name,
// ignoring case.
func FindAlbum(ctx context.Context, g *merge.MergedGroup, name string, pageSize int) (*merge.MergedAlbum, error) {
	for item, err := range g.AlbumMap().All(ctx, pageSize) {
		if err != nil {
			return nil, err
		}
		if !strings.EqualFold(item.Name(), name) {
			continue
		}
		album, ok := item.(*merge.MergedAlbum)
		if !ok {
			return nil, errors.NewValidationError("album", name, "is an album collection")
		}
		return album, nil
	}
	return nil, errors.NewNotFoundError("album", name)
}

// Describe loads the tracks of album.
func Describe(ctx context.Context, album *merge.MergedAlbum, pageSize int) (output.Album, error) {
	var tracks []*merge.MergedTrack
	for t, err := range album.TrackMap().All(ctx, pageSize) {
		if err != nil {
			return output.Album{}, err
		}
		tracks = append(tracks, t)
	}
	details := output.Album{
		Name:        album.Name(),
		Description: album.Description(),
		TrackCount:  album.TotalTrackCount(),
		Tracks:      make([]output.Track, len(tracks)),
	}
	for _, s := range album.Sources() {
		details.Sources = append(details.Sources, string(s.Core()))
	}
	for i, t := range tracks {
		details.Tracks[i] = output.TrackOf(t)
	}
	return details, nil
}
