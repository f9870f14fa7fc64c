package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/adamancini/youtube2bilibili/internal/biliupr"
	"github.com/adamancini/youtube2bilibili/internal/output"
)

const (
	statusInstalled     = "installed"
	statusUpToDate      = "up to date"
	statusCheckDisabled = "update check disabled"
	statusAvailable     = "update available"
	statusUpdated       = "updated"
)

var prepareLogin bool

type prepareResult struct {
	BinaryPath string `json:"binary_path" yaml:"binary_path"`
	TagName    string `json:"tag_name" yaml:"tag_name"`
	LatestTag  string `json:"latest_tag,omitempty" yaml:"latest_tag,omitempty"`
	Status     string `json:"status" yaml:"status"`
	Installed  bool   `json:"installed" yaml:"installed"`
	LoggedIn   *bool  `json:"logged_in,omitempty" yaml:"logged_in,omitempty"`
}

func (r prepareResult) Fields() []output.Field {
	fields := []output.Field{
		{Label: "biliupR", Value: r.Status},
		{Label: "tag", Value: orNone(r.TagName)},
	}
	if r.LatestTag != "" && r.LatestTag != r.TagName {
		fields = append(fields, output.Field{Label: "latest", Value: r.LatestTag})
	}
	fields = append(fields, output.Field{Label: "binary", Value: r.BinaryPath})
	if r.LoggedIn != nil {
		fields = append(fields, output.Field{Label: "logged in", Value: yesNo(*r.LoggedIn)})
	}
	return fields
}

func newPrepareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Get biliupR ready for an upload run",
		Long: `Prepare runs the startup policy used before uploading:

  1. Install biliupR if no binary is present (no network call otherwise).
  2. Unless biliupr.update_check_on_start is false, check for a newer release.
  3. If one exists, install it unless biliupr.auto_update is false, in which
     case it is only reported.

With --login the Bilibili session is verified afterwards and the interactive
login flow is started when it is not valid.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			return runPrepare(cmd, a, prepareLogin)
		},
	}

	cmd.Flags().BoolVar(&prepareLogin, "login", false, "Also verify the Bilibili login, logging in if needed")

	return cmd
}

func runPrepare(cmd *cobra.Command, a *app, login bool) error {
	ctx := contextOf(cmd)
	inst := a.installer()

	var result *prepareResult
	err := a.withInstallLock(func() error {
		var err error
		result, err = prepareBinary(ctx, a, inst)
		return err
	})
	if err != nil {
		return err
	}

	if login {
		status, err := ensureLogin(ctx, a, result.BinaryPath)
		if err != nil {
			return err
		}
		result.LoggedIn = &status.LoggedIn
	}

	if err := a.out.Write(result); err != nil {
		return err
	}
	if result.Status == statusAvailable {
		a.out.Text("\nRun 'y2b install' to install biliupR %s.\n", result.LatestTag)
	}
	return nil
}

func prepareBinary(ctx context.Context, a *app, inst *biliupr.Installer) (*prepareResult, error) {
	state, err := inst.EnsureInstalled(ctx, biliupr.EnsureOptions{})
	if err != nil {
		return nil, err
	}

	result := &prepareResult{
		BinaryPath: state.BinaryPath,
		TagName:    state.TagName,
		Status:     statusUpToDate,
		Installed:  state.Installed,
	}
	if state.Installed {
		result.Status = statusInstalled
	}

	if !a.cfg.Biliupr.UpdateCheckOnStart {
		a.logger.Info("skipping biliupR update check (disabled in config)")
		if !state.Installed {
			result.Status = statusCheckDisabled
		}
		return result, nil
	}

	check, err := inst.CheckForUpdate(ctx)
	if err != nil {
		return nil, err
	}
	result.LatestTag = check.LatestTag

	if !check.HasUpdate {
		a.logger.Info("biliupR is up to date", "tag", check.LatestTag)
		return result, nil
	}

	a.logger.Info("biliupR update available", "current", orNone(check.CurrentTag), "latest", check.LatestTag)
	if !a.cfg.Biliupr.AutoUpdate && !a.confirm("Install biliupR %s now?", check.LatestTag) {
		result.Status = statusAvailable
		return result, nil
	}

	asset, err := biliupr.SelectAsset(check.Release.Assets, inst.Platform())
	if err != nil {
		return nil, err
	}
	updated, err := inst.InstallRelease(ctx, check.Release, asset)
	if err != nil {
		return nil, err
	}

	result.BinaryPath = updated.BinaryPath
	result.TagName = updated.TagName
	result.Installed = true
	result.Status = statusUpdated
	return result, nil
}
