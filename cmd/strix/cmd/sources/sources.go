// Package sources provides the commands listing the merged cores and their
// playback devices.
package sources

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/strix"
	"github.com/agentstation/strix/internal/appcontext"
	"github.com/agentstation/strix/internal/cmd/output"
)

// NewCommand creates the sources command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "sources",
		Short:   "List the merged cores",
		Aliases: []string{"cores"},
		Args:    cobra.NoArgs,
		Example: `  strix sources
  strix sources --ranking spotify,local -o yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.Strix(cmd.Context())
			if err != nil {
				return err
			}
			return output.Print(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()), Rows(s))
		},
	}
}

// Rows describes every core of s in source order. Cores missing from the
// ranking get rank -1.
func Rows(s strix.Strix) []output.Source {
	cores := s.Sources()
	rows := make([]output.Source, len(cores))
	for i, core := range cores {
		rank, ok := s.Config().Rank(core.ID())
		if !ok {
			rank = -1
		}
		features := []string{}
		for _, f := range strix.FeaturesOf(core) {
			features = append(features, string(f))
		}
		rows[i] = output.Source{
			ID:       string(core.ID()),
			Name:     core.DisplayName(),
			Rank:     rank,
			Features: features,
			Devices:  len(core.Devices()),
		}
	}
	return rows
}

// NewDevicesCommand creates the devices command.
func NewDevicesCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List the playback devices of every core",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.Strix(cmd.Context())
			if err != nil {
				return err
			}
			devices := s.Devices()
			rows := make([]output.Device, len(devices))
			for i, d := range devices {
				rows[i] = output.Device{
					Position: i,
					Name:     d.Name(),
					Type:     string(d.DeviceType()),
					Core:     string(d.Core()),
					Active:   d.IsActive(),
				}
			}
			return output.Print(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()), rows)
		},
	}
}
