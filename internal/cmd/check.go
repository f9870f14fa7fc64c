package cmd

import (
	"github.com/spf13/cobra"

	"github.com/adamancini/youtube2bilibili/internal/biliupr"
	"github.com/adamancini/youtube2bilibili/internal/output"
)

type checkResult struct {
	biliupr.UpdateCheck `yaml:",inline"`
}

func (r checkResult) Fields() []output.Field {
	return []output.Field{
		{Label: "current", Value: orNone(r.CurrentTag)},
		{Label: "latest", Value: orNone(r.LatestTag)},
		{Label: "update available", Value: yesNo(r.HasUpdate)},
	}
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check whether a newer biliupR release exists",
		Long: `Check compares the installed biliupR tag with the latest release without
downloading anything.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			return runCheck(cmd, a)
		},
	}
}

func runCheck(cmd *cobra.Command, a *app) error {
	check, err := a.installer().CheckForUpdate(contextOf(cmd))
	if err != nil {
		return err
	}
	return a.out.Write(checkResult{*check})
}
