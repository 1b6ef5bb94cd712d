package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/five82/cadence/internal/app"
	"github.com/five82/cadence/internal/scheduler"
)

func (c *cli) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show component health",
		Args:  cobra.NoArgs,
		RunE: c.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *app.Runtime, _ []string) error {
			health, err := rt.LocalClient().Health(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "status:    %s\n", health.Status)
			fmt.Fprintf(out, "database:  %s\n", health.Database)
			fmt.Fprintf(out, "scheduler: %s\n", health.Scheduler)
			if !health.Healthy() {
				return fmt.Errorf("service degraded")
			}
			return nil
		}),
	}
}

func (c *cli) metricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Print the aggregate metrics snapshot as JSON",
		Args:  cobra.NoArgs,
		RunE: c.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *app.Runtime, _ []string) error {
			metrics, err := rt.LocalClient().Metrics(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), metrics)
		}),
	}
}

// statusCmd fetches health and metrics together for a one-screen summary.
func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize health, schedules and recent runs",
		Args:  cobra.NoArgs,
		RunE: c.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *app.Runtime, _ []string) error {
			client := rt.LocalClient()
			var (
				health  *scheduler.Health
				metrics *scheduler.SystemMetrics
			)
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				var err error
				health, err = client.Health(gctx)
				return err
			})
			g.Go(func() error {
				var err error
				metrics, err = client.Metrics(gctx)
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			state := "HEALTHY"
			if !health.Healthy() {
				state = "DEGRADED"
			}
			fmt.Fprintf(out, "%s  %s (%s)\n", state, rt.Factory.BaseURL(), rt.Config.ActiveEnv)
			fmt.Fprintf(out, "targets:   %d\n", metrics.TargetsCount)
			s := metrics.Schedules
			fmt.Fprintf(out, "schedules: %d total, %d active, %d paused, %d expired\n", s.Total, s.Active, s.Paused, s.Expired)
			r := metrics.Runs
			fmt.Fprintf(out, "runs:      %d total, %d success, %d failed, %d pending, %d running\n", r.Total, r.Success, r.Failed, r.Pending, r.Running)
			p := metrics.Performance
			fmt.Fprintf(out, "success:   %.1f%%", p.SuccessRate)
			if p.AvgLatencyMs != nil {
				fmt.Fprintf(out, "  avg latency %.0fms", *p.AvgLatencyMs)
			}
			fmt.Fprintln(out)
			if !health.Healthy() {
				fmt.Fprintf(cmd.ErrOrStderr(), "database=%s scheduler=%s\n", health.Database, health.Scheduler)
			}
			return nil
		}),
	}
}
