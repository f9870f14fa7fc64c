package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/adamancini/youtube2bilibili/internal/biliupr"
	"github.com/adamancini/youtube2bilibili/internal/config"
	"github.com/adamancini/youtube2bilibili/internal/interactive"
	"github.com/adamancini/youtube2bilibili/internal/lockfile"
	"github.com/adamancini/youtube2bilibili/internal/output"
)

// app bundles what a subcommand needs once flags are parsed.
type app struct {
	cfg    *config.Config
	out    *output.Writer
	logger *log.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// newApp loads the config and sets up output and logging for cmd.
func newApp(cmd *cobra.Command) (*app, error) {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}

	path, err := config.FindConfig(configPath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	stderr := cmd.ErrOrStderr()
	logger := newLogger(stderr)
	if cfg.Path != "" {
		logger.Debug("loaded config", "path", cfg.Path)
	} else {
		logger.Debug("no config file found, using defaults", "path", path)
	}

	return &app{
		cfg:    cfg,
		out:    output.NewWriter(cmd.OutOrStdout(), format),
		logger: logger,
		stdin:  cmd.InOrStdin(),
		stdout: cmd.OutOrStdout(),
		stderr: stderr,
	}, nil
}

// installer builds a biliupr.Installer from the loaded config.
func (a *app) installer() *biliupr.Installer {
	opts := []biliupr.Option{
		biliupr.WithRepo(a.cfg.Biliupr.Repo),
		biliupr.WithBaseURL(a.cfg.Biliupr.APIBaseURL),
		biliupr.WithMetadataFile(a.cfg.Biliupr.MetadataFile),
		biliupr.WithProxy(a.cfg.Proxy()),
		biliupr.WithTimeout(a.cfg.CheckTimeout()),
		biliupr.WithLogger(a.logger),
	}

	// Use GITHUB_TOKEN if available
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		opts = append(opts, biliupr.WithToken(token))
	}

	// Progress bar on stderr for text output only
	if a.out.Format() == output.FormatText && !quiet {
		opts = append(opts, biliupr.WithProgress(a.stderr))
	}

	return biliupr.New(a.cfg.InstallDir(), opts...)
}

// withInstallLock runs fn while holding the install-directory lock.
func (a *app) withInstallLock(fn func() error) error {
	lock := lockfile.New(a.cfg.InstallDir())
	a.logger.Debug("acquiring install lock", "path", lock.Path())
	if err := lock.Lock(a.cfg.LockTimeout()); err != nil {
		return fmt.Errorf("failed to lock %s: %w", a.cfg.InstallDir(), err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			a.logger.Warn("failed to release install lock", "err", err)
		}
	}()
	return fn()
}

// confirm asks on the terminal; without one, or with structured output, the
// answer is no.
func (a *app) confirm(format string, args ...any) bool {
	if a.out.Format() != output.FormatText || !interactive.IsTerminal(a.stdin) {
		return false
	}
	return interactive.NewPrompter(a.stdin, a.stderr).Confirm(false, format, args...)
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
