package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/adamancini/youtube2bilibili/internal/biliup"
	"github.com/adamancini/youtube2bilibili/internal/output"
)

type versionResult struct {
	Version       string `json:"version" yaml:"version"`
	Commit        string `json:"commit" yaml:"commit"`
	Date          string `json:"date" yaml:"date"`
	BiliupRTag    string `json:"biliupr_tag" yaml:"biliupr_tag"`
	BinaryPath    string `json:"biliupr_binary" yaml:"biliupr_binary"`
	BinaryVersion string `json:"biliupr_version,omitempty" yaml:"biliupr_version,omitempty"`
}

func (r versionResult) Fields() []output.Field {
	return []output.Field{
		{Label: "y2b", Value: r.Version},
		{Label: "commit", Value: r.Commit},
		{Label: "built", Value: r.Date},
		{Label: "biliupR", Value: orNone(r.BiliupRTag)},
		{Label: "binary", Value: r.BinaryPath},
		{Label: "reports", Value: orNone(r.BinaryVersion)},
	}
}

func newVersionCmd(info buildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display the y2b build and the biliupR release recorded in the install
directory. When the binary is present its --version output is included.
No network call is made.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			return runVersion(contextOf(cmd), a, info)
		},
	}
}

func runVersion(ctx context.Context, a *app, info buildInfo) error {
	inst := a.installer()
	result := versionResult{
		Version:    info.Version,
		Commit:     info.Commit,
		Date:       info.Date,
		BinaryPath: inst.BinaryPath(),
	}
	if meta, ok := inst.Metadata(); ok {
		result.BiliupRTag = meta.TagName
	}
	result.BinaryVersion = binaryVersion(ctx, a, result.BinaryPath)
	return a.out.Write(result)
}

// binaryVersion runs the installed binary's --version; failures are logged
// and leave the version empty.
func binaryVersion(ctx context.Context, a *app, path string) string {
	bin, err := biliup.New(path)
	if err != nil {
		a.logger.Debug("biliupR binary not usable", "err", err)
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, a.cfg.CheckTimeout())
	defer cancel()
	v, err := bin.Version(ctx)
	if err != nil {
		a.logger.Warn("could not read biliupR version", "err", err)
		return ""
	}
	return v
}
