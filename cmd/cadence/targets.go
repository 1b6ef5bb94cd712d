package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/cadence/internal/app"
	"github.com/five82/cadence/internal/scheduler"
)

func (c *cli) targetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "targets",
		Aliases: []string{"target"},
		Short:   "Manage HTTP targets",
	}
	cmd.AddCommand(c.targetsListCmd(), c.targetsGetCmd(), c.targetsCreateCmd(), c.targetsUpdateCmd(), c.targetsDeleteCmd())
	return cmd
}

func (c *cli) targetsListCmd() *cobra.Command {
	var opts scheduler.ListOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List targets",
		Args:  cobra.NoArgs,
		RunE: c.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *app.Runtime, _ []string) error {
			page, err := rt.LocalClient().Targets().List(ctx, opts)
			if err != nil {
				return err
			}
			rows := make([]string, 0, len(page.Items))
			for _, t := range page.Items {
				rows = append(rows, fmt.Sprintf("%s\t%s\t%s\t%s\t%ds\t%d", t.ID, t.Name, t.Method, t.URL, t.TimeoutSeconds, t.ScheduleCount))
			}
			if err := table(cmd.OutOrStdout(), "ID\tNAME\tMETHOD\tURL\tTIMEOUT\tSCHEDULES", rows); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d (%d total)\n", page.Page, page.TotalPages, page.Total)
			return nil
		}),
	}
	bindPaging(cmd, &opts, 20)
	return cmd
}

func (c *cli) targetsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one target with its run statistics",
		Args:  cobra.ExactArgs(1),
		RunE: c.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *app.Runtime, args []string) error {
			target, err := rt.LocalClient().Targets().Get(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), target)
		}),
	}
}

// targetFlags are the editable target fields.
type targetFlags struct {
	name        string
	url         string
	method      string
	timeout     int
	headers     map[string]string
	body        string
	description string
}

func (f *targetFlags) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.name, "name", "", "display name")
	flags.StringVar(&f.url, "url", "", "absolute URL to call")
	flags.StringVar(&f.method, "method", "GET", "HTTP method")
	flags.IntVar(&f.timeout, "timeout", 30, "request timeout in seconds")
	flags.StringToStringVar(&f.headers, "header", nil, "request header as key=value (repeatable)")
	flags.StringVar(&f.body, "body", "", "request body")
	flags.StringVar(&f.description, "description", "", "free-form description")
}

func (c *cli) targetsCreateCmd() *cobra.Command {
	var f targetFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a target",
		Args:  cobra.NoArgs,
		RunE: c.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *app.Runtime, _ []string) error {
			in := scheduler.TargetCreate{
				Name:           f.name,
				URL:            f.url,
				Method:         f.method,
				Headers:        f.headers,
				TimeoutSeconds: &f.timeout,
			}
			if f.body != "" {
				in.Body = &f.body
			}
			if f.description != "" {
				in.Description = &f.description
			}
			target, err := rt.LocalClient().Targets().Create(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "target %s created\n", target.ID)
			return nil
		}),
	}
	f.bind(cmd)
	return cmd
}

// targetsUpdateCmd sends only the flags given on the command line.
func (c *cli) targetsUpdateCmd() *cobra.Command {
	var f targetFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a target",
		Args:  cobra.ExactArgs(1),
		RunE: c.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *app.Runtime, args []string) error {
			changed := cmd.Flags().Changed
			var in scheduler.TargetUpdate
			if changed("name") {
				in.Name = &f.name
			}
			if changed("url") {
				in.URL = &f.url
			}
			if changed("method") {
				in.Method = &f.method
			}
			if changed("timeout") {
				in.TimeoutSeconds = &f.timeout
			}
			if changed("header") {
				in.Headers = f.headers
			}
			if changed("body") {
				in.Body = &f.body
			}
			if changed("description") {
				in.Description = &f.description
			}
			target, err := rt.LocalClient().Targets().Update(ctx, args[0], in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "target %s updated\n", target.ID)
			return nil
		}),
	}
	f.bind(cmd)
	return cmd
}

func (c *cli) targetsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a target",
		Args:  cobra.ExactArgs(1),
		RunE: c.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *app.Runtime, args []string) error {
			if err := rt.LocalClient().Targets().Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "target %s deleted\n", args[0])
			return nil
		}),
	}
}

func bindPaging(cmd *cobra.Command, opts *scheduler.ListOptions, pageSize int) {
	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", pageSize, "items per page")
}
