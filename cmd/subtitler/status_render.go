package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"subtitler/internal/jobs"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		statusText += " " + message
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func jobStatusKind(status jobs.Status) statusKind {
	switch status {
	case jobs.StatusCompleted:
		return statusOK
	case jobs.StatusError:
		return statusError
	default:
		return statusInfo
	}
}

// renderJob prints the detail view used by `status` and `run`.
func renderJob(w io.Writer, job jobs.Job, colorize bool) {
	for _, line := range renderSectionHeader("Job "+job.ID, colorize) {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, renderStatusLine("Status", jobStatusKind(job.Status),
		fmt.Sprintf("%s (%d%%)", job.Status, job.Progress), colorize))
	fmt.Fprintln(w, renderStatusLine("Message", statusInfo, job.Message, false))
	fmt.Fprintln(w, renderStatusLine("Source", statusInfo, fmt.Sprintf("%s %s", job.Source, job.SourceName), false))
	fmt.Fprintln(w, renderStatusLine("Languages", statusInfo, job.SourceLang+" -> "+job.TargetLang, false))
	if job.Duration > 0 {
		fmt.Fprintln(w, renderStatusLine("Duration", statusInfo, formatSeconds(job.Duration), false))
	}
	if job.Strategy != "" {
		fmt.Fprintln(w, renderStatusLine("Render", statusInfo, job.Strategy, false))
	}
	if job.FilePath != "" {
		fmt.Fprintln(w, renderStatusLine("Output", statusInfo, job.FilePath, false))
	}
	if job.SubtitlePath != "" {
		fmt.Fprintln(w, renderStatusLine("Subtitles", statusInfo, job.SubtitlePath, false))
	}
	if job.TextPath != "" {
		fmt.Fprintln(w, renderStatusLine("Transcript", statusInfo, job.TextPath, false))
	}
}

func formatSeconds(seconds float64) string {
	return (time.Duration(seconds*float64(time.Second)) / time.Second * time.Second).String()
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
