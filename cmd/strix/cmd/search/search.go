// Package search provides the command querying the merged search.
package search

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/strix/internal/appcontext"
	"github.com/agentstation/strix/internal/cmd/globals"
	"github.com/agentstation/strix/internal/cmd/output"
	"github.com/agentstation/strix/pkg/errors"
)

// NewCommand creates the search command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search every core offering search",
		Args:  cobra.ExactArgs(1),
		Example: `  strix search abbey
  strix search "let it" --complete-only`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := app.Strix(ctx)
			if err != nil {
				return err
			}
			merged := s.Search()
			if merged == nil {
				return errors.NewNotSupportedError("search", "no core offers search")
			}

			query := args[0]
			result := output.Search{Query: query, Results: []output.Entry{}}
			if result.Completions, err = merged.AutoComplete(ctx, query); err != nil {
				return err
			}
			if completeOnly, _ := cmd.Flags().GetBool("complete-only"); !completeOnly {
				pageSize, _ := cmd.Flags().GetInt("page-size")
				group, err := merged.MergedResults(ctx, query)
				if err != nil {
					return err
				}
				if group != nil {
					if result.Results, err = output.GroupEntries(ctx, group, pageSize); err != nil {
						return err
					}
				}
			}

			format := output.DetectFormat(app.OutputFormat())
			if format == output.FormatTable {
				completions := output.Data{Headers: []string{"Completion"}}
				for _, c := range result.Completions {
					completions.Rows = append(completions.Rows, []string{c})
				}
				if err := output.Print(cmd.OutOrStdout(), format, completions); err != nil {
					return err
				}
				return output.Print(cmd.OutOrStdout(), format, result.Results)
			}
			return output.Print(cmd.OutOrStdout(), format, result)
		},
	}
	cmd.Flags().Bool("complete-only", false, "only print auto-complete suggestions")
	cmd.Flags().Int("page-size", globals.DefaultPageSize, "number of positions fetched per page")
	return cmd
}
