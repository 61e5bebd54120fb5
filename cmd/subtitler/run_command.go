package main

import (
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"subtitler/internal/jobs"
	"subtitler/internal/logging"
	"subtitler/internal/pipeline"
)

// newRunCommand processes a single file or URL in-process without a server.
func newRunCommand(ctx *commandContext) *cobra.Command {
	var sourceLang string
	var targetLang string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "run <file|url>",
		Short: "Process one video in the foreground without a server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := logging.NewNop()
			if verbose {
				logger, err = logging.New(logging.Options{
					Level:       "debug",
					Format:      cfg.Logging.Format,
					Development: true,
				})
				if err != nil {
					return fmt.Errorf("init logger: %w", err)
				}
			}

			sigCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			manager, err := pipeline.New(cfg, jobs.NewTable(), pipeline.WithLogger(logger))
			if err != nil {
				return err
			}
			defer func() { _ = manager.Stop(sigCtx) }()

			target := strings.TrimSpace(args[0])
			var job jobs.Job
			if isURL(target) {
				job, err = manager.SubmitURL(target, sourceLang, targetLang)
			} else {
				job, err = manager.SubmitFile(target, sourceLang, targetLang)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Processing %s as job %s\n", target, job.ID)
			final, err := manager.WaitJob(sigCtx, job.ID)
			if err != nil {
				return err
			}
			renderJob(out, final, shouldColorize(out))
			if final.Status != jobs.StatusCompleted {
				return errors.New(final.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceLang, "source", "auto", "Source language code (auto to detect)")
	cmd.Flags().StringVar(&targetLang, "target", "en", "Target language code")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log pipeline progress to stdout")
	return cmd
}
