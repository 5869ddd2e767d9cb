package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"meal-shell/internal/app"

	"github.com/spf13/cobra"
)

func newLoginCmd(sh *shell) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with an ID token from the sign-in provider",
		Long: `Signs in with --token, or reads candidate tokens from stdin one per line
until one is accepted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if token != "" {
				return reported(sh.app.Login(cmd.Context(), token))
			}
			fmt.Fprintln(sh.out, "Paste your ID token and press Enter:")
			return sh.app.AwaitSignIn(cmd.Context(), readCredentials(cmd.Context(), os.Stdin))
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "ID token to sign in with")
	return cmd
}

func newLogoutCmd(sh *shell) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return sh.app.Logout(cmd.Context())
		},
	}
}

// readCredentials turns stdin lines into sign-in events. The channel closes at EOF.
func readCredentials(ctx context.Context, r io.Reader) <-chan app.SignInEvent {
	events := make(chan app.SignInEvent)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case events <- app.SignInEvent{Credential: scanner.Text()}:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			select {
			case events <- app.SignInEvent{Err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return events
}
