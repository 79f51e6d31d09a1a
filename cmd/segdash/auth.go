package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zulandar/segdash/internal/api"
	"github.com/zulandar/segdash/internal/session"
)

func newLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the analysis service",
		Long:  "Signs in with email and password and stores the session locally. The password is prompted for when --password is not given.",
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			return runLogin(cmd, e, email, password)
		}),
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when empty)")
	cmd.MarkFlagRequired("email")
	return cmd
}

func runLogin(cmd *cobra.Command, e *env, email, password string) error {
	if password == "" {
		p, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		password = p
	}

	sess, err := e.client.Login(cmd.Context(), email, password)
	if err != nil {
		switch api.KindOf(err) {
		case api.KindAuthentication:
			return fmt.Errorf("login failed: %s", api.Message(err))
		case api.KindNetwork:
			return fmt.Errorf("cannot reach %s: %w", e.client.BaseURL(), err)
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as user %d\n", sess.UserID)
	return nil
}

// readPassword prompts without echo when in is a terminal, and reads one
// line otherwise.
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			if !e.store.IsAuthenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}
			if err := e.client.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		}),
	}
}

func newRefreshCmd() *cobra.Command {
	var ifNeeded bool

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Rotate the access token",
		RunE: withSession(func(cmd *cobra.Command, e *env, args []string) error {
			return runRefresh(cmd, e, ifNeeded)
		}),
	}

	cmd.Flags().BoolVar(&ifNeeded, "if-needed", false, "only refresh when the token expires within session.refresh_skew")
	return cmd
}

func runRefresh(cmd *cobra.Command, e *env, ifNeeded bool) error {
	out := cmd.OutOrStdout()
	if ifNeeded {
		refreshed, err := e.client.EnsureFresh(cmd.Context(), e.cfg.Session.RefreshSkew)
		if err != nil {
			return sessionHint(err)
		}
		if !refreshed {
			fmt.Fprintln(out, "Token still valid")
			return nil
		}
	} else if _, err := e.client.RefreshToken(cmd.Context()); err != nil {
		return sessionHint(err)
	}
	fmt.Fprintln(out, "Token refreshed")
	printExpiry(out, e.store.Current(), time.Now())
	return nil
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session and backend",
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			return runStatus(cmd.OutOrStdout(), e)
		}),
	}
}

func runStatus(out io.Writer, e *env) error {
	fmt.Fprintf(out, "Backend:  %s\n", e.client.BaseURL())
	fmt.Fprintf(out, "Database: %s\n", e.cfg.Session.DBPath)
	sess := e.store.Current()
	if !sess.Authenticated() {
		fmt.Fprintln(out, "Session:  signed out")
		return nil
	}
	fmt.Fprintf(out, "Session:  signed in as user %d\n", sess.UserID)
	printExpiry(out, sess, time.Now())
	return nil
}

// printExpiry reports when the access token expires, if it says.
func printExpiry(out io.Writer, sess session.Session, now time.Time) {
	exp := sess.Expiry()
	if exp.IsZero() {
		return
	}
	if exp.Before(now) {
		fmt.Fprintf(out, "Token:    expired %s ago\n", formatDuration(now.Sub(exp)))
		return
	}
	fmt.Fprintf(out, "Token:    expires in %s\n", formatDuration(exp.Sub(now)))
}

// sessionHint turns an authentication failure into advice.
func sessionHint(err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		return fmt.Errorf("session expired: run 'segdash login' again (%s)", api.Message(err))
	}
	if errors.Is(err, session.ErrNoSession) {
		return fmt.Errorf("not signed in: run 'segdash login' first")
	}
	return err
}
