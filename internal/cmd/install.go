package cmd

import (
	"github.com/spf13/cobra"

	"github.com/adamancini/youtube2bilibili/internal/biliupr"
	"github.com/adamancini/youtube2bilibili/internal/output"
)

var forceInstall bool

// installResult reports the outcome of y2b install.
type installResult struct {
	Action string `json:"action" yaml:"action"`
	biliupr.State `yaml:",inline"`
}

func (r installResult) Fields() []output.Field {
	return []output.Field{
		{Label: "biliupR", Value: r.Action},
		{Label: "tag", Value: orNone(r.TagName)},
		{Label: "binary", Value: r.BinaryPath},
		{Label: "asset", Value: orNone(r.AssetName)},
	}
}

func newInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install or update biliupR to the latest release",
		Long: `Install downloads the biliupR asset for this platform from the latest
release and installs it into the configured install directory. Nothing is
downloaded when the installed tag already matches the latest release.

Examples:
  y2b install           # Install, or update if outdated
  y2b install --force   # Reinstall even if already latest`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			return runInstall(cmd, a, forceInstall)
		},
	}

	cmd.Flags().BoolVar(&forceInstall, "force", false, "Re-download even if already latest")

	return cmd
}

func runInstall(cmd *cobra.Command, a *app, force bool) error {
	var state *biliupr.State
	err := a.withInstallLock(func() error {
		var err error
		state, err = a.installer().EnsureInstalled(contextOf(cmd), biliupr.EnsureOptions{
			Force:            force,
			UpdateIfOutdated: true,
		})
		return err
	})
	if err != nil {
		return err
	}

	action := "already latest"
	if state.Installed {
		action = "installed/updated"
	}
	return a.out.Write(installResult{Action: action, State: *state})
}
