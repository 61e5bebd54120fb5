// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper, and UserError for
//     failures whose message is shown to the submitter.
//   - A CommandRunner abstraction that turns failed external tool runs into
//     *ToolError values carrying the captured stderr.
package services
