package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/cadence/internal/app"
	"github.com/five82/cadence/internal/lifecycle"
	"github.com/five82/cadence/internal/scheduler"
)

func (c *cli) runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "runs",
		Aliases: []string{"run"},
		Short:   "Inspect run history",
	}
	cmd.AddCommand(c.runsListCmd(), c.runsGetCmd())
	return cmd
}

func (c *cli) runsListCmd() *cobra.Command {
	var (
		filter    scheduler.RunFilter
		status    string
		errorType string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs, newest first",
		Args:  cobra.NoArgs,
		RunE: c.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *app.Runtime, _ []string) error {
			filter.Status = lifecycle.RunStatus(status)
			filter.ErrorType = lifecycle.ErrorType(errorType)
			page, err := rt.LocalClient().Runs().List(ctx, filter)
			if err != nil {
				return err
			}
			rows := make([]string, 0, len(page.Items))
			for _, r := range page.Items {
				code := "-"
				if r.StatusCode != nil {
					code = fmt.Sprint(*r.StatusCode)
				}
				latency := "-"
				if r.LatencyMs != nil {
					latency = fmt.Sprintf("%.0fms", *r.LatencyMs)
				}
				rows = append(rows, fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%s\t%s",
					r.ID, r.ScheduleID, r.Status, code, latency, deref(r.ErrorType, "-"), r.ScheduledAt))
			}
			if err := table(cmd.OutOrStdout(), "ID\tSCHEDULE\tSTATUS\tCODE\tLATENCY\tERROR\tSCHEDULED", rows); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d (%d total)\n", page.Page, page.TotalPages, page.Total)
			return nil
		}),
	}
	bindPaging(cmd, &filter.ListOptions, 10)
	cmd.Flags().StringVar(&status, "status", "", "filter by status (pending, running, success, failed)")
	cmd.Flags().StringVar(&errorType, "error-type", "", "filter by error type (timeout, dns_error, ...)")
	cmd.Flags().StringVar(&filter.ScheduleID, "schedule", "", "filter by schedule id")
	return cmd
}

func (c *cli) runsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one run with request and response detail",
		Args:  cobra.ExactArgs(1),
		RunE: c.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *app.Runtime, args []string) error {
			run, err := rt.LocalClient().Runs().Get(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), run)
		}),
	}
}
