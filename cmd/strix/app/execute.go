package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/agentstation/strix/cmd/strix/cmd/library"
	"github.com/agentstation/strix/cmd/strix/cmd/search"
	"github.com/agentstation/strix/cmd/strix/cmd/sources"
	"github.com/agentstation/strix/internal/cmd/output"
	"github.com/agentstation/strix/internal/config"
)

// flags holds the parsed persistent flags.
type flags struct {
	configFile string
	verbose    bool
	quiet      bool
	format     string
	logLevel   string
	fixtures   string
	ranking    []string
}

// Execute runs the strix CLI application with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	if a.out != nil {
		rootCmd.SetOut(a.out)
	}
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	a.flags = flags{}
	rootCmd := &cobra.Command{
		Use:     "strix",
		Short:   "Merged media library CLI",
		Version: a.version,
		Long: `Strix merges the libraries of several media cores into one view.

Equal albums, artists, playlists and tracks from different cores are folded
into a single entry, ordered by the configured core ranking.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.flags.configFile, "config", "", "config file (default is ./strix.yaml or $HOME/strix.yaml)")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	pf.BoolVarP(&a.flags.quiet, "quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	pf.StringVarP(&a.flags.format, "format", "o", "", "output format: table, json, yaml")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")
	pf.StringVar(&a.flags.fixtures, "fixtures", "", "fixture file or url describing the cores")
	pf.StringSliceVar(&a.flags.ranking, "ranking", nil, "core ranking, highest first (comma separated)")

	rootCmd.SetVersionTemplate("strix {{.Version}}\n")

	rootCmd.AddCommand(sources.NewCommand(a))
	rootCmd.AddCommand(sources.NewDevicesCommand(a))
	rootCmd.AddCommand(library.NewCommand(a))
	rootCmd.AddCommand(library.NewAlbumCommand(a))
	rootCmd.AddCommand(search.NewCommand(a))

	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(_ *cobra.Command, _ []string) error {
	if a.flags.configFile != "" {
		cfg, err := config.Load(viper.New(), a.flags.configFile)
		if err != nil {
			return err
		}
		a.config = cfg
	}
	if _, err := output.ParseFormat(a.flags.format); err != nil {
		return err
	}
	a.config.UpdateFromFlags(a.flags.verbose, a.flags.quiet, a.flags.format, a.flags.logLevel, a.flags.ranking)
	if a.flags.fixtures != "" {
		a.config.Fixtures = a.flags.fixtures
	}

	logger := NewLogger(a.config)
	a.logger = &logger
	return nil
}

// ExitOnError prints a non-nil error and exits with status 1.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}
