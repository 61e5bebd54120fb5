// Package preflight provides readiness checks for external tools, backends,
// and the data directories the subtitle service writes to.
//
// These checks run in two contexts:
//   - The HTTP health endpoint reports RunAll and CheckSystemDeps so an
//     operator can see why jobs fail before submitting one.
//   - The CLI "subtitler deps" command prints the same results and can
//     additionally probe the LLM endpoint with CheckLLM.
//
// Checks never fail a job on their own; the pipeline degrades per stage.
package preflight
