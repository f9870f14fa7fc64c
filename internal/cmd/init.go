package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/adamancini/youtube2bilibili/internal/config"
	"github.com/adamancini/youtube2bilibili/internal/templates"
)

func newInitCmd() *cobra.Command {
	var templateName string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a config file from a template",
		Long: `Create a new config file from a built-in template.

Available templates:
  minimal    - Install location and cookie path only
  full       - Every setting with its default and comments

The file is written to --config, or ./config.yaml when not given.

Examples:
  y2b init                         # Minimal config.yaml
  y2b init --template=full
  y2b init --config ~/y2b.yaml     # Custom output location`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if path == "" {
				path = config.DefaultFile
			}
			return runInit(cmd.OutOrStdout(), templateName, path, force)
		},
	}

	cmd.Flags().StringVarP(&templateName, "template", "t", templates.Default, "Template name")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	_ = cmd.RegisterFlagCompletionFunc("template", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var completions []string
		for _, name := range templates.List() {
			completions = append(completions, fmt.Sprintf("%s\t%s", name, templates.GetDescription(name)))
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runInit(stdout io.Writer, templateName, path string, force bool) error {
	tmpl, err := templates.Get(templateName)
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to check %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, tmpl.Content, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	// The written file must load.
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("written config does not load: %w", err)
	}

	_, _ = fmt.Fprintf(stdout, "Created %s from template %q\n", cfg.Path, tmpl.Name)
	_, _ = fmt.Fprintln(stdout, "\nNext steps:")
	_, _ = fmt.Fprintln(stdout, "  y2b install   # download biliupR")
	_, _ = fmt.Fprintln(stdout, "  y2b login     # log in to Bilibili")
	return nil
}
