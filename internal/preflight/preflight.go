package preflight

import (
	"context"

	"subtitler/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes the local preflight checks for the given config. Network
// probes are left to CheckLLM so health polling stays cheap.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	var results []Result

	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))
	results = append(results, CheckDirectoryAccess("Upload directory", cfg.UploadDir()))
	results = append(results, CheckDirectoryAccess("Processed directory", cfg.ProcessedDir()))
	results = append(results, CheckFreeSpace("Free space", cfg.Paths.DataDir, minFreeBytes))

	results = append(results, CheckTranscriptionConfig(cfg))
	results = append(results, CheckTranslationConfig(cfg))
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
