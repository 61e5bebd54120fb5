package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"subtitler/internal/deps"
	"subtitler/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	var checkLLM bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Check external tools and local prerequisites",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := preflight.CheckSystemDeps(cmd.Context(), cfg)
			checks := preflight.RunAll(cmd.Context(), cfg)
			if checkLLM {
				checks = append(checks, preflight.CheckLLM(cmd.Context(), "LLM API", cfg.GetLLM()))
			}
			ok := deps.Satisfied(statuses) && preflight.AllPassed(checks)

			if asJSON {
				if err := writeJSON(cmd, struct {
					Dependencies []deps.Status      `json:"dependencies"`
					Checks       []preflight.Result `json:"checks"`
				}{statuses, checks}); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Dependencies", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, s := range statuses {
					fmt.Fprintln(out, renderStatusLine(s.Name, dependencyKind(s), dependencyDetail(s), colorize))
				}
				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Checks", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, r := range checks {
					kind := statusOK
					if !r.Passed {
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
				}
			}
			if !ok {
				return errors.New("one or more prerequisites are not satisfied")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkLLM, "llm", false, "Also probe the LLM API with the configured key")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func dependencyKind(s deps.Status) statusKind {
	switch {
	case s.Available:
		return statusOK
	case s.Optional:
		return statusWarn
	default:
		return statusError
	}
}

func dependencyDetail(s deps.Status) string {
	if s.Available {
		return s.Command
	}
	if s.Optional {
		return s.Detail + " (optional: " + s.Description + ")"
	}
	return s.Detail
}
