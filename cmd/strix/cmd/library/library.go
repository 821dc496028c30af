// Package library provides the commands browsing the merged library and
// the other merged collection groups.
package library

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/strix"
	"github.com/agentstation/strix/internal/appcontext"
	"github.com/agentstation/strix/internal/cmd/globals"
	"github.com/agentstation/strix/internal/cmd/output"
	"github.com/agentstation/strix/pkg/errors"
	"github.com/agentstation/strix/pkg/merge"
)

// NewCommand creates the library command and its subcommands.
func NewCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Browse a merged collection group",
		Long: `Browse the merged library or, with --group, the merged discoverables,
pins or recently played group.`,
		Example: `  strix library albums
  strix library tracks --group pins -o json`,
	}
	globals.AddBrowseFlags(cmd, true)

	type listing struct {
		use, short string
		list       func(ctx context.Context, g *merge.MergedGroup, pageSize int) ([]output.Entry, error)
	}
	for _, l := range []listing{
		{"albums", "List merged albums", func(ctx context.Context, g *merge.MergedGroup, n int) ([]output.Entry, error) {
			return output.Entries(ctx, g.AlbumMap(), n)
		}},
		{"artists", "List merged artists", func(ctx context.Context, g *merge.MergedGroup, n int) ([]output.Entry, error) {
			return output.Entries(ctx, g.ArtistMap(), n)
		}},
		{"playlists", "List merged playlists", func(ctx context.Context, g *merge.MergedGroup, n int) ([]output.Entry, error) {
			return output.Entries(ctx, g.PlaylistMap(), n)
		}},
		{"tracks", "List merged tracks", func(ctx context.Context, g *merge.MergedGroup, n int) ([]output.Entry, error) {
			return output.Entries(ctx, g.TrackMap(), n)
		}},
	} {
		cmd.AddCommand(&cobra.Command{
			Use:   l.use,
			Short: l.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				g, pageSize, err := resolve(cmd, app)
				if err != nil {
					return err
				}
				entries, err := l.list(cmd.Context(), g, pageSize)
				if err != nil {
					return err
				}
				app.Logger().Debug().Str("list", l.use).Int("entries", len(entries)).Msg("Listed group")
				return output.Print(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()), entries)
			},
		})
	}
	return cmd
}

// resolve reads the browse flags and returns the selected group.
func resolve(cmd *cobra.Command, app appcontext.Interface) (*merge.MergedGroup, int, error) {
	flags, err := globals.ParseBrowse(cmd)
	if err != nil {
		return nil, 0, err
	}
	s, err := app.Strix(cmd.Context())
	if err != nil {
		return nil, 0, err
	}
	g, err := Group(s, flags.Group)
	if err != nil {
		return nil, 0, err
	}
	return g, flags.PageSize, nil
}

// Group returns the merged group called name. Optional groups no core
// offers are reported as not found.
func Group(s strix.Strix, name string) (*merge.MergedGroup, error) {
	var g *merge.MergedGroup
	switch strix.Feature(strings.ToLower(name)) {
	case "library", "":
		return s.Library(), nil
	case strix.FeatureDiscoverables:
		g = s.Discoverables()
	case strix.FeaturePins:
		g = s.Pins()
	case strix.FeatureRecentlyPlayed:
		g = s.RecentlyPlayed()
	default:
		return nil, errors.NewValidationError("group", name,
			fmt.Sprintf("must be one of: library, %s, %s, %s", strix.FeatureDiscoverables, strix.FeaturePins, strix.FeatureRecentlyPlayed))
	}
	if g == nil {
		return nil, errors.NewNotFoundError("group", name)
	}
	return g, nil
}
