package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/cadence/internal/app"
	"github.com/five82/cadence/internal/auth"
	"github.com/five82/cadence/internal/scheduler"
)

// getCmd fetches an arbitrary service path and writes the body untouched.
func (c *cli) getCmd() *cobra.Command {
	var method string
	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Call a service path and print the raw response",
		Args:  cobra.ExactArgs(1),
		RunE: c.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *app.Runtime, args []string) error {
			client := rt.LocalClient(scheduler.WithResponseMode(scheduler.ResponseRaw))
			resp, err := client.Fetch(ctx, method, args[0])
			if err != nil {
				return err
			}
			if _, err := cmd.OutOrStdout().Write(resp.Body); err != nil {
				return err
			}
			if len(resp.Body) > 0 && resp.Body[len(resp.Body)-1] != '\n' {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		}),
	}
	cmd.Flags().StringVarP(&method, "method", "X", "GET", "HTTP method")
	return cmd
}

func (c *cli) loginCmd() *cobra.Command {
	var (
		tokens    auth.Tokens
		expiresIn time.Duration
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a session token pair for local commands",
		Args:  cobra.NoArgs,
		RunE: c.withRuntime(func(_ context.Context, cmd *cobra.Command, rt *app.Runtime, _ []string) error {
			if tokens.AccessToken == "" || tokens.RefreshToken == "" {
				return fmt.Errorf("both --access-token and --refresh-token are required")
			}
			if expiresIn <= 0 {
				return fmt.Errorf("--expires-in must be positive")
			}
			tokens.ExpiresIn = expiresIn
			if err := rt.Tokens.Save(tokens); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "session saved, expires in %s\n", expiresIn)
			return nil
		}),
	}
	cmd.Flags().StringVar(&tokens.AccessToken, "access-token", "", "bearer access token")
	cmd.Flags().StringVar(&tokens.RefreshToken, "refresh-token", "", "refresh token")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", time.Hour, "session lifetime")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: c.withRuntime(func(_ context.Context, cmd *cobra.Command, rt *app.Runtime, _ []string) error {
			if err := rt.Tokens.Clear(); err != nil {
				return fmt.Errorf("clear session: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "session cleared")
			return nil
		}),
	}
}
