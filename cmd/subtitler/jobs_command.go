package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"subtitler/internal/jobs"
	"subtitler/internal/store"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var local bool
	var limit int
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List recent jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			var want jobs.Status
			if value := strings.TrimSpace(statusFilter); value != "" {
				parsed, ok := jobs.ParseStatus(value)
				if !ok {
					return fmt.Errorf("unknown status %q", value)
				}
				want = parsed
			}

			var list []jobs.Job
			if local {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				st, err := store.Open(cfg)
				if err != nil {
					return fmt.Errorf("open job store: %w", err)
				}
				defer st.Close()
				list, err = st.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
			} else {
				client, err := ctx.client()
				if err != nil {
					return err
				}
				list, err = client.listJobs(cmd.Context())
				if err != nil {
					return err
				}
			}

			list = filterJobs(list, want, limit)
			if asJSON {
				return writeJSON(cmd, list)
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No jobs")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Job", "Status", "Progress", "Languages", "Source", "Updated"},
				jobRows(list),
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&local, "local", false, "Read the job store directly instead of querying the server")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum jobs to show (0 for all)")
	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show jobs with this status")
	return cmd
}

func filterJobs(list []jobs.Job, want jobs.Status, limit int) []jobs.Job {
	filtered := make([]jobs.Job, 0, len(list))
	for _, job := range list {
		if want != "" && job.Status != want {
			continue
		}
		filtered = append(filtered, job)
		if limit > 0 && len(filtered) == limit {
			break
		}
	}
	return filtered
}

func jobRows(list []jobs.Job) [][]string {
	rows := make([][]string, 0, len(list))
	for _, job := range list {
		name := job.SourceName
		if name == "" {
			name = string(job.Source)
		}
		rows = append(rows, []string{
			job.ID,
			string(job.Status),
			strconv.Itoa(job.Progress) + "%",
			job.SourceLang + " -> " + job.TargetLang,
			truncate(name, 40),
			job.UpdatedAt.Local().Format(time.DateTime),
		})
	}
	return rows
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
