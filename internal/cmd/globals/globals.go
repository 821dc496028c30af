// Package globals provides shared flag structures for the browse commands.
package globals

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/strix/pkg/errors"
)

// DefaultPageSize is the number of sorted positions fetched per page.
const DefaultPageSize = 50

// BrowseFlags holds the flags of commands reading a merged group.
type BrowseFlags struct {
	Group    string
	PageSize int
}

// AddBrowseFlags adds the browse flags to cmd. Persistent flags reach every
// subcommand.
func AddBrowseFlags(cmd *cobra.Command, persistent bool) {
	flags := cmd.Flags()
	if persistent {
		flags = cmd.PersistentFlags()
	}
	flags.String("group", "library", "group to read: library, discoverables, pins, recently_played")
	flags.Int("page-size", DefaultPageSize, "number of positions fetched per page")
}

// ParseBrowse extracts the browse flags from cmd.
// The command must have had AddBrowseFlags called on it or on a parent.
func ParseBrowse(cmd *cobra.Command) (*BrowseFlags, error) {
	group, err := cmd.Flags().GetString("group")
	if err != nil {
		return nil, err
	}
	pageSize, err := cmd.Flags().GetInt("page-size")
	if err != nil {
		return nil, err
	}
	if pageSize <= 0 {
		return nil, errors.NewValidationError("page-size", pageSize, "must be positive")
	}
	return &BrowseFlags{Group: group, PageSize: pageSize}, nil
}
