package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/five82/cadence/internal/app"
	"github.com/five82/cadence/internal/logtail"
	"github.com/five82/cadence/internal/web"
)

const shutdownGrace = 5 * time.Second

func (c *cli) tuiCmd() *cobra.Command {
	var opts app.Options
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the live terminal dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.ConfigPath = c.configPath
			return app.Run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.PrefsPath, "prefs", "", "preferences file (default ~/.config/cadence/prefs.toml)")
	cmd.Flags().IntVar(&opts.PollEvery, "poll", 0, "refresh every resource at this many seconds (default per resource)")
	return cmd
}

func (c *cli) serveCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API over HTTP",
		Args:  cobra.NoArgs,
		RunE: c.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *app.Runtime, _ []string) error {
			addr := rt.Config.ListenAddr
			if listen != "" {
				addr = listen
			}
			if rt.Config.IsProduction() {
				gin.SetMode(gin.ReleaseMode)
			}
			server := web.New(web.Options{Factory: rt.Factory, Logger: rt.Logger, Gatherer: rt.Registry})
			httpServer := &http.Server{
				Addr:              addr,
				Handler:           server.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				rt.Logger.Info("web server listening", map[string]any{"addr": addr, "env": rt.Config.ActiveEnv})
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("listen %s: %w", addr, err)
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
				defer cancel()
				return httpServer.Shutdown(shutdownCtx)
			})
			return g.Wait()
		}),
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config)")
	return cmd
}

func (c *cli) logsCmd() *cobra.Command {
	var (
		lines int
		level string
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the newest entries of the log file",
		Args:  cobra.NoArgs,
		RunE: c.withRuntime(func(_ context.Context, cmd *cobra.Command, rt *app.Runtime, _ []string) error {
			entries, err := logtail.Tail(rt.Config.LogFile, lines, level)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				fmt.Fprintln(cmd.OutOrStdout(), entry.String())
			}
			return nil
		}),
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of lines to read (0 for all)")
	cmd.Flags().StringVar(&level, "level", "", "minimum level (DEBUG, INFO, WARN, ERROR)")
	return cmd
}
