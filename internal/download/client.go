package download

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"subtitler/internal/services"
)

// Format prefers an mp4 container and falls back to whatever is best.
const Format = "best[ext=mp4]/best"

// Fetcher retrieves a remote video into a local directory.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL, destDir, jobID string) (string, error)
}

// Option configures the client.
type Option func(*Client)

// WithCommandRunner injects a custom command runner (primarily for tests).
func WithCommandRunner(run services.CommandRunner) Option {
	return func(c *Client) {
		if run != nil {
			c.run = run
		}
	}
}

// WithTimeout bounds a single download. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// Client wraps yt-dlp invocations.
type Client struct {
	binary  string
	timeout time.Duration
	run     services.CommandRunner
}

// New constructs a yt-dlp client.
func New(binary string, opts ...Option) *Client {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "yt-dlp"
	}
	c := &Client{binary: binary, timeout: 30 * time.Minute, run: services.RunCommand}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ValidateURL accepts absolute http(s) URLs only.
func ValidateURL(rawURL string) error {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return services.Invalid("No URL provided")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return services.Invalid("Invalid video URL")
	}
	return nil
}

// Prefix is the file-name prefix every download for jobID starts with.
func Prefix(jobID string) string {
	return jobID + "_downloaded."
}

// Fetch downloads rawURL into destDir and returns the path of the file yt-dlp
// produced.
func (c *Client) Fetch(ctx context.Context, rawURL, destDir, jobID string) (string, error) {
	if err := ValidateURL(rawURL); err != nil {
		return "", err
	}
	if strings.TrimSpace(jobID) == "" {
		return "", errors.New("download: job id required")
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("download: create destination: %w", err)
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	template := filepath.Join(destDir, Prefix(jobID)+"%(ext)s")
	args := []string{"-f", Format, "--no-playlist", "--no-progress", "-o", template, strings.TrimSpace(rawURL)}
	if _, err := c.run(runCtx, c.binary, args...); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "download", "yt-dlp", "download failed", err)
	}
	path, err := Locate(destDir, jobID)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "download", "locate", "", err)
	}
	return path, nil
}

// Locate finds the completed download for jobID in dir. Partial and
// fragment files left by yt-dlp are ignored.
func Locate(dir, jobID string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", dir, err)
	}
	prefix := Prefix(jobID)
	var matches []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		if strings.HasSuffix(name, ".part") || strings.HasSuffix(name, ".ytdl") || strings.Contains(name, ".part-Frag") {
			continue
		}
		matches = append(matches, name)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no downloaded file with prefix %s in %s", prefix, dir)
	}
	sort.Strings(matches)
	return filepath.Join(dir, matches[0]), nil
}
