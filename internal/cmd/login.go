package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adamancini/youtube2bilibili/internal/biliup"
	"github.com/adamancini/youtube2bilibili/internal/output"
)

var (
	loginCheckOnly bool

	errNotLoggedIn = errors.New("bilibili session is not valid")
)

type loginResult struct {
	biliup.LoginStatus `yaml:",inline"`
}

func (r loginResult) Fields() []output.Field {
	fields := []output.Field{
		{Label: "logged in", Value: yesNo(r.LoggedIn)},
		{Label: "cookie", Value: r.Cookie},
	}
	if r.Reason != "" {
		fields = append(fields, output.Field{Label: "reason", Value: r.Reason})
	}
	return fields
}

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Verify or establish the Bilibili login used by biliupR",
		Long: `Login checks the session stored in biliupr.user_cookie by running
"biliup renew". When the session is missing or invalid the interactive
"biliup login" flow is started and the session is checked again.

Examples:
  y2b login           # Log in if needed
  y2b login --check   # Only report; exits non-zero when not logged in`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			return runLogin(cmd, a, loginCheckOnly)
		},
	}

	cmd.Flags().BoolVar(&loginCheckOnly, "check", false, "Check the login without starting the login flow")

	return cmd
}

func runLogin(cmd *cobra.Command, a *app, checkOnly bool) error {
	ctx := contextOf(cmd)
	binaryPath := a.installer().BinaryPath()

	if checkOnly {
		bin, err := openBinary(binaryPath)
		if err != nil {
			return err
		}
		status, err := bin.CheckLogin(ctx, a.cfg.CookiePath(), a.cfg.LoginCheckTimeout())
		if err != nil {
			return err
		}
		if err := a.out.Write(loginResult{*status}); err != nil {
			return err
		}
		if !status.LoggedIn {
			return errNotLoggedIn
		}
		return nil
	}

	status, err := ensureLogin(ctx, a, binaryPath)
	if err != nil {
		return err
	}
	return a.out.Write(loginResult{*status})
}

// ensureLogin checks the session and, when it is not valid, runs the
// interactive login and checks again.
func ensureLogin(ctx context.Context, a *app, binaryPath string) (*biliup.LoginStatus, error) {
	bin, err := openBinary(binaryPath)
	if err != nil {
		return nil, err
	}
	cookie := a.cfg.CookiePath()
	timeout := a.cfg.LoginCheckTimeout()

	status, err := bin.CheckLogin(ctx, cookie, timeout)
	if err != nil {
		return nil, err
	}
	if status.LoggedIn {
		a.logger.Info("bilibili login is valid", "cookie", cookie)
		return status, nil
	}

	a.logger.Info("bilibili login required, starting biliup login", "reason", status.Reason)
	if status.Output != "" {
		a.logger.Debug("renew output", "output", status.Output)
	}
	if err := bin.Login(ctx, cookie, a.stdin, a.stderr, a.stderr); err != nil {
		return nil, err
	}

	status, err = bin.CheckLogin(ctx, cookie, timeout)
	if err != nil {
		return nil, err
	}
	if !status.LoggedIn {
		return nil, fmt.Errorf("%w after login: %s", errNotLoggedIn, status.Reason)
	}
	a.logger.Info("bilibili login verified", "cookie", cookie)
	return status, nil
}

func openBinary(path string) (*biliup.Binary, error) {
	bin, err := biliup.New(path)
	if err != nil {
		return nil, fmt.Errorf("%w (run 'y2b install' first)", err)
	}
	return bin, nil
}
