package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zulandar/segdash/internal/dashboard"
	"github.com/zulandar/segdash/internal/upload"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web dashboard",
		Long:  "Launches the local web dashboard. The access token is refreshed on session.refresh_schedule while it runs, and sign-ins from other segdash processes are picked up.",
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			if cmd.Flags().Changed("port") {
				e.cfg.Dashboard.Port = port
			}
			return runServe(cmd, e)
		}),
	}

	cmd.Flags().IntVarP(&port, "port", "p", 3000, "port to listen on (default from config)")
	return cmd
}

func runServe(cmd *cobra.Command, e *env) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	go e.store.Watch(ctx, e.cfg.Session.WatchInterval)

	sched, err := scheduleRefresh(ctx, e)
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	return dashboard.Start(ctx, dashboard.StartOpts{
		Client:   e.client,
		Store:    e.store,
		Port:     e.cfg.Dashboard.Port,
		FilesTTL: e.cfg.Dashboard.FilesTTL,
		Upload: upload.Options{
			RedirectDelay:   e.cfg.Upload.RedirectDelay,
			DefaultClusters: e.cfg.Upload.DefaultClusters,
		},
		Logger: e.log,
		Out:    cmd.OutOrStdout(),
	})
}

// scheduleRefresh registers the token refresh job. Runs while signed out are
// no-ops; a rejected refresh token expires the session like any other 401.
func scheduleRefresh(ctx context.Context, e *env) (*cron.Cron, error) {
	c := cron.New()
	log := e.log.Named("refresh")
	_, err := c.AddFunc(e.cfg.Session.RefreshSchedule, func() {
		if !e.store.IsAuthenticated() {
			return
		}
		refreshed, err := e.client.EnsureFresh(ctx, e.cfg.Session.RefreshSkew)
		if err != nil {
			log.Warn("token refresh failed", zap.Error(err))
			return
		}
		if refreshed {
			log.Info("access token refreshed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule refresh %q: %w", e.cfg.Session.RefreshSchedule, err)
	}
	return c, nil
}
