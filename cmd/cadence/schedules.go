package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/cadence/internal/app"
	"github.com/five82/cadence/internal/lifecycle"
	"github.com/five82/cadence/internal/scheduler"
)

func (c *cli) schedulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "schedules",
		Aliases: []string{"schedule"},
		Short:   "Manage schedules",
	}
	cmd.AddCommand(
		c.schedulesListCmd(),
		c.schedulesGetCmd(),
		c.schedulesCreateCmd(),
		c.scheduleActionCmd(lifecycle.ActionPause, "Pause an active schedule"),
		c.scheduleActionCmd(lifecycle.ActionResume, "Resume a paused schedule"),
		c.scheduleActionCmd(lifecycle.ActionDelete, "Delete a schedule"),
	)
	return cmd
}

func (c *cli) schedulesListCmd() *cobra.Command {
	var (
		filter scheduler.ScheduleFilter
		status string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List schedules",
		Args:  cobra.NoArgs,
		RunE: c.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *app.Runtime, _ []string) error {
			filter.Status = lifecycle.ScheduleStatus(status)
			page, err := rt.LocalClient().Schedules().List(ctx, filter)
			if err != nil {
				return err
			}
			rows := make([]string, 0, len(page.Items))
			for _, s := range page.Items {
				running := ""
				if s.IsExecuting {
					running = "*"
				}
				rows = append(rows, fmt.Sprintf("%s\t%s\t%s\t%ds\t%s%s\t%d\t%s",
					s.ID, s.TargetID, s.ScheduleType, s.IntervalSeconds, s.Status, running, s.RunCount, s.NextRunAt))
			}
			if err := table(cmd.OutOrStdout(), "ID\tTARGET\tTYPE\tINTERVAL\tSTATUS\tRUNS\tNEXT RUN", rows); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d (%d total)\n", page.Page, page.TotalPages, page.Total)
			return nil
		}),
	}
	bindPaging(cmd, &filter.ListOptions, 20)
	cmd.Flags().StringVar(&status, "status", "", "filter by status (active, paused, expired)")
	cmd.Flags().StringVar(&filter.TargetID, "target", "", "filter by target id")
	return cmd
}

func (c *cli) schedulesGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one schedule",
		Args:  cobra.ExactArgs(1),
		RunE: c.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *app.Runtime, args []string) error {
			schedule, err := rt.LocalClient().Schedules().Get(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), schedule)
		}),
	}
}

// schedulesCreateCmd sends a duration only when one was given; window
// schedules without one are rejected before the request is made.
func (c *cli) schedulesCreateCmd() *cobra.Command {
	var (
		in       scheduler.ScheduleCreate
		kind     string
		duration int
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a schedule for a target",
		Args:  cobra.NoArgs,
		RunE: c.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *app.Runtime, _ []string) error {
			in.ScheduleType = scheduler.ScheduleType(kind)
			if cmd.Flags().Changed("duration") {
				in.DurationSeconds = &duration
			}
			schedule, err := rt.LocalClient().Schedules().Create(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schedule %s created (%s)\n", schedule.ID, schedule.Status)
			return nil
		}),
	}
	cmd.Flags().StringVar(&in.TargetID, "target", "", "target id")
	cmd.Flags().StringVar(&kind, "type", string(scheduler.ScheduleInterval), "interval or window")
	cmd.Flags().IntVar(&in.IntervalSeconds, "interval", 0, "seconds between runs")
	cmd.Flags().IntVar(&duration, "duration", 0, "window length in seconds (window schedules only)")
	return cmd
}

// scheduleActionCmd requests a lifecycle transition. The status printed is
// the one the service reports back.
func (c *cli) scheduleActionCmd(action lifecycle.Action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(action) + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: c.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *app.Runtime, args []string) error {
			schedule, err := rt.LocalClient().Schedules().Apply(ctx, args[0], action)
			if err != nil {
				return err
			}
			if schedule == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "schedule %s deleted\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schedule %s is now %s\n", schedule.ID, schedule.Status)
			return nil
		}),
	}
}
