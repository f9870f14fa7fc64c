package cmd

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	outputFormat string
	configPath   string
	verbose      bool
	quiet        bool
)

// buildInfo is stamped into the binary at release time.
type buildInfo struct {
	Version, Commit, Date string
}

// Execute runs the y2b command line; ctx cancels in-flight network and
// subprocess work.
func Execute(ctx context.Context, version, commit, date string) error {
	return newRootCmd(buildInfo{Version: version, Commit: commit, Date: date}).ExecuteContext(ctx)
}

func newRootCmd(info buildInfo) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "y2b",
		Short: "Manage the biliupR uploader used by youtube2bilibili",
		Long: `y2b keeps a platform-appropriate biliupR binary installed and current,
and drives its Bilibili login flow.

The binary is fetched from the latest GitHub release of the configured
repository and recorded in a metadata file next to it.`,
		Version:       info.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json, yaml")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default $Y2B_CONFIG or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newInstallCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newPrepareCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newVersionCmd(info))

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})

	return rootCmd
}

// newLogger writes leveled, prefixed logs to w according to --verbose and --quiet.
func newLogger(w io.Writer) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix: "y2b",
	})
	switch {
	case verbose:
		logger.SetLevel(log.DebugLevel)
		logger.SetReportTimestamp(true)
	case quiet:
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}
