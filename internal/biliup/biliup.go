// Package biliup runs the installed biliupR binary.
package biliup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// waitDelay bounds how long output pipes are drained after the process is
// killed, so orphaned children cannot stall a timed-out check.
const waitDelay = 500 * time.Millisecond

// Binary is a validated biliupR executable.
type Binary struct {
	path string
}

// LoginStatus is the outcome of a login check.
type LoginStatus struct {
	LoggedIn bool   `json:"logged_in" yaml:"logged_in"`
	Cookie   string `json:"cookie" yaml:"cookie"`
	Reason   string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Output   string `json:"output,omitempty" yaml:"output,omitempty"`
}

// New validates path and returns a Binary for it.
func New(path string) (*Binary, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("biliup binary not found: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("biliup binary is not a regular file: %s", path)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o111 == 0 {
		return nil, fmt.Errorf("biliup binary is not executable: %s", path)
	}
	return &Binary{path: path}, nil
}

// Version runs --version and returns its trimmed stdout.
func (b *Binary) Version(ctx context.Context) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := b.command(ctx, "--version")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("biliup --version failed: %w: %s", err, msg)
		}
		return "", fmt.Errorf("biliup --version failed: %w", err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// CheckLogin reports whether cookie holds a valid session by running renew.
// A missing cookie file, a non-zero exit and a timeout all mean not logged
// in; the returned error is reserved for failures to run the binary at all.
func (b *Binary) CheckLogin(ctx context.Context, cookie string, timeout time.Duration) (*LoginStatus, error) {
	status := &LoginStatus{Cookie: cookie}
	if _, err := os.Stat(cookie); err != nil {
		status.Reason = "cookie file not found"
		return status, nil
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var out bytes.Buffer
	cmd := b.command(ctx, "-u", cookie, "renew")
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	status.Output = strings.TrimSpace(out.String())

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		status.Reason = fmt.Sprintf("login check timed out after %s", timeout)
		return status, nil
	case err == nil:
		status.LoggedIn = true
		return status, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		status.Reason = fmt.Sprintf("renew failed with exit code %d", exitErr.ExitCode())
		return status, nil
	}
	return nil, fmt.Errorf("running biliup renew: %w", err)
}

// Login runs the interactive login flow attached to the given streams,
// writing the session to cookie.
func (b *Binary) Login(ctx context.Context, cookie string, stdin io.Reader, stdout, stderr io.Writer) error {
	if err := os.MkdirAll(filepath.Dir(cookie), 0o755); err != nil {
		return fmt.Errorf("creating cookie directory: %w", err)
	}

	cmd := b.command(ctx, "-u", cookie, "login")
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("biliup login failed with exit code %d", exitErr.ExitCode())
		}
		return fmt.Errorf("running biliup login: %w", err)
	}
	return nil
}

func (b *Binary) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, b.path, args...)
	cmd.WaitDelay = waitDelay
	return cmd
}
