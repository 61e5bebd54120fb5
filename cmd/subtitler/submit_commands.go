package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"subtitler/internal/jobs"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var sourceLang string
	var targetLang string
	var wait bool
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "submit <file|url>",
		Short: "Submit a video file or URL to a running server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			target := strings.TrimSpace(args[0])
			out := cmd.OutOrStdout()

			var id string
			if isURL(target) {
				id, err = client.submitURL(cmd.Context(), target, sourceLang, targetLang)
			} else {
				if _, statErr := os.Stat(target); statErr != nil {
					return fmt.Errorf("inspect %s: %w", target, statErr)
				}
				id, err = client.submitFile(cmd.Context(), target, sourceLang, targetLang)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Job %s submitted\n", id)
			if !wait {
				return nil
			}

			job, err := client.waitForJob(cmd.Context(), id, interval, func(j jobs.Job) {
				fmt.Fprintf(out, "  %3d%%  %s\n", j.Progress, j.Message)
			})
			if err != nil {
				return err
			}
			if job.Status == jobs.StatusError {
				return errors.New(job.Message)
			}
			fmt.Fprintf(out, "Done. Fetch with: subtitler download %s\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceLang, "source", "auto", "Source language code (auto to detect)")
	cmd.Flags().StringVar(&targetLang, "target", "en", "Target language code")
	cmd.Flags().BoolVar(&wait, "wait", false, "Poll until the job finishes")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Polling interval with --wait")
	return cmd
}

func isURL(value string) bool {
	lower := strings.ToLower(value)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show a job's status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			job, err := client.status(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, job)
			}
			renderJob(cmd.OutOrStdout(), job, shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download <job-id>",
		Short: "Download a completed job's subtitled video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			id := strings.TrimSpace(args[0])
			dest := strings.TrimSpace(output)
			if dest == "" {
				dest = id + "_subtitled.mp4"
			}
			dest, err = filepath.Abs(dest)
			if err != nil {
				return err
			}
			n, err := client.download(cmd.Context(), id, dest)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s)\n", dest, humanBytes(n))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination path (default: <job-id>_subtitled.mp4)")
	return cmd
}
