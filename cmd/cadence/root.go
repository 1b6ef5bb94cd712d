package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/five82/cadence/internal/app"
)

// cli holds the flags shared by every command.
type cli struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "cadence",
		Short:         "Operate a remote scheduling service",
		Long:          "cadence manages targets, schedules and runs on a remote scheduling service\nfrom the terminal, a live dashboard or a small web backend.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/cadence/config.toml)")

	root.AddCommand(
		c.healthCmd(),
		c.metricsCmd(),
		c.statusCmd(),
		c.targetsCmd(),
		c.schedulesCmd(),
		c.runsCmd(),
		c.getCmd(),
		c.loginCmd(),
		c.logoutCmd(),
		c.tuiCmd(),
		c.serveCmd(),
		c.logsCmd(),
	)
	return root
}

// withRuntime bootstraps the shared runtime around fn and releases it after.
func (c *cli) withRuntime(fn func(ctx context.Context, cmd *cobra.Command, rt *app.Runtime, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt, err := app.Bootstrap(c.configPath)
		if err != nil {
			return err
		}
		defer rt.Close()
		return fn(cmd.Context(), cmd, rt, args)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// table writes tab-separated rows aligned into columns.
func table(w io.Writer, header string, rows []string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	for _, row := range rows {
		fmt.Fprintln(tw, row)
	}
	return tw.Flush()
}

func deref[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}
	return *v
}
