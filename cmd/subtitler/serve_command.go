package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"subtitler/internal/jobs"
	"subtitler/internal/logging"
	"subtitler/internal/pipeline"
	"subtitler/internal/server"
	"subtitler/internal/store"
)

const (
	historyLimit    = 500
	shutdownTimeout = 2 * time.Minute
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if value := strings.TrimSpace(bind); value != "" {
				cfg.Server.Bind = value
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			lock := flock.New(cfg.LockPath())
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !ok {
				return fmt.Errorf("another subtitler server is already using %s", cfg.Paths.DataDir)
			}
			defer func() {
				if err := lock.Unlock(); err != nil {
					logger.Warn("failed to release server lock", logging.Error(err))
				}
			}()

			st, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open job store: %w", err)
			}
			defer st.Close()

			sigCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if n, err := st.MarkInterrupted(sigCtx); err != nil {
				logger.Warn("failed to close out interrupted jobs", logging.Error(err))
			} else if n > 0 {
				logger.Info("marked interrupted jobs as failed", logging.Int64("count", n))
			}
			history, err := st.List(sigCtx, historyLimit)
			if err != nil {
				return fmt.Errorf("load job history: %w", err)
			}

			table := jobs.NewTable(jobs.WithRecorder(st, func(err error) {
				logging.WarnWithContext(logger, "job snapshot not persisted", "store_write_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "status survives only until restart"),
				)
			}))
			table.Load(history)

			manager, err := pipeline.New(cfg, table, pipeline.WithLogger(logger))
			if err != nil {
				return err
			}
			srv, err := server.New(cfg, manager, logger)
			if err != nil {
				return err
			}
			if err := srv.Start(sigCtx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s (data: %s)\n", srv.Addr(), cfg.Paths.DataDir)

			<-sigCtx.Done()
			logger.Info("subtitler shutting down")
			srv.Stop()

			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := manager.Stop(stopCtx); err != nil {
				logger.Warn("workers did not finish before shutdown deadline", logging.Error(err))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Override server.bind (host:port)")
	return cmd
}
