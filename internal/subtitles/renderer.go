package subtitles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"subtitler/internal/fileutil"
	"subtitler/internal/logging"
	"subtitler/internal/segment"
	"subtitler/internal/services"
)

// Strategy names a rendering approach.
type Strategy string

const (
	StrategyOverlay     Strategy = "overlay"
	StrategyBurnIn      Strategy = "burn-in"
	StrategyPassthrough Strategy = "passthrough"
	StrategyFileCopy    Strategy = "file-copy"
)

var errNothingToOverlay = errors.New("no segments to overlay")

// Style controls the drawtext overlay appearance.
type Style struct {
	FontSize     int
	FontColor    string
	BoxColor     string
	BoxBorder    int
	MarginBottom int
}

// DefaultStyle returns white 18px text on a half-transparent black box.
func DefaultStyle() Style {
	return Style{FontSize: 18, FontColor: "white", BoxColor: "black@0.5", BoxBorder: 3, MarginBottom: 20}
}

// Request describes one render.
type Request struct {
	JobID       string
	VideoPath   string
	Segments    []segment.Translated
	SubtitleDir string
	OutputDir   string
}

// Attempt records one strategy that was tried.
type Attempt struct {
	Strategy Strategy
	Err      error
}

// Result reports the artifacts of a render. Strategy is the one that produced
// OutputPath; Attempts lists every strategy tried, in order.
type Result struct {
	SubtitlePath string
	TextPath     string
	OutputPath   string
	Strategy     Strategy
	Attempts     []Attempt
}

// Subtitled reports whether subtitles ended up in the video pixels.
func (r Result) Subtitled() bool {
	return r.Strategy == StrategyOverlay || r.Strategy == StrategyBurnIn
}

type strategy struct {
	name   Strategy
	output func(req Request) string
	apply  func(ctx context.Context, req Request, srtPath, outPath string) error
}

// Renderer writes subtitle artifacts and produces the output video.
type Renderer struct {
	logger *slog.Logger
	run    services.CommandRunner
	ffmpeg string
	style  Style
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithCommandRunner allows injecting a custom command runner for tests.
func WithCommandRunner(run services.CommandRunner) Option {
	return func(r *Renderer) {
		if run != nil {
			r.run = run
		}
	}
}

// WithFFmpegBinary overrides the ffmpeg executable.
func WithFFmpegBinary(binary string) Option {
	return func(r *Renderer) {
		if strings.TrimSpace(binary) != "" {
			r.ffmpeg = binary
		}
	}
}

// WithStyle overrides the overlay style.
func WithStyle(style Style) Option {
	return func(r *Renderer) { r.style = style }
}

// NewRenderer constructs a renderer.
func NewRenderer(logger *slog.Logger, opts ...Option) *Renderer {
	r := &Renderer{
		logger: logging.NewComponentLogger(logger, "renderer"),
		run:    services.RunCommand,
		ffmpeg: "ffmpeg",
		style:  DefaultStyle(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OutputPath is where a successful render writes the subtitled video.
func OutputPath(dir, jobID string) string {
	return filepath.Join(dir, jobID+"_subtitled.mp4")
}

// Render writes the SRT and TXT artifacts, then tries each strategy in order
// until one produces an output video. The artifacts are kept regardless of
// which strategy wins. An error is returned only when the source cannot be
// read, the artifacts cannot be written, or every strategy failed.
func (r *Renderer) Render(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.JobID) == "" {
		return Result{}, services.Wrap(services.ErrValidation, "render", "request", "job id is required", nil)
	}
	info, err := os.Stat(req.VideoPath)
	if err != nil {
		return Result{}, services.Wrap(services.ErrFatal, "render", "read source", "", err)
	}
	if info.IsDir() {
		return Result{}, services.Wrap(services.ErrFatal, "render", "read source", req.VideoPath+" is a directory", nil)
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrFatal, "render", "create output dir", "", err)
	}

	result := Result{}
	if result.SubtitlePath, err = WriteSRT(req.SubtitleDir, req.JobID, FromTranslated(req.Segments)); err != nil {
		return Result{}, services.Wrap(services.ErrFatal, "render", "write subtitles", "", err)
	}
	if result.TextPath, err = WriteText(req.SubtitleDir, req.JobID, req.Segments); err != nil {
		return result, services.Wrap(services.ErrFatal, "render", "write transcript", "", err)
	}

	logger := logging.WithContext(ctx, r.logger)
	for _, s := range r.strategies() {
		outPath := s.output(req)
		err := s.apply(ctx, req, result.SubtitlePath, outPath)
		if err == nil {
			if info, statErr := os.Stat(outPath); statErr != nil || info.Size() == 0 {
				err = fmt.Errorf("no output produced at %s", outPath)
			}
		}
		result.Attempts = append(result.Attempts, Attempt{Strategy: s.name, Err: err})
		if err == nil {
			result.OutputPath = outPath
			result.Strategy = s.name
			logger.Info("video rendered",
				logging.String(logging.FieldEventType, "render_complete"),
				logging.String("strategy", string(s.name)),
				logging.String("output", outPath),
				logging.Int("segments", len(req.Segments)),
			)
			return result, nil
		}
		_ = os.Remove(outPath)
		if errors.Is(err, errNothingToOverlay) {
			logger.Debug("render strategy skipped", logging.String("strategy", string(s.name)), logging.Error(err))
			continue
		}
		if ctx.Err() != nil {
			return result, services.Wrap(services.ErrFatal, "render", string(s.name), "cancelled", ctx.Err())
		}
		attrs := []logging.Attr{
			logging.String("strategy", string(s.name)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect ffmpeg stderr"),
			logging.String(logging.FieldImpact, "falling back to next render strategy"),
		}
		var toolErr *services.ToolError
		if errors.As(err, &toolErr) {
			attrs = append(attrs, logging.String("stderr", strings.TrimSpace(toolErr.Stderr)))
		}
		logging.WarnWithContext(logger, "render strategy failed", "render_strategy_failed", attrs...)
	}

	return result, services.Wrap(services.ErrExternalTool, "render", "strategies", "all render strategies failed", lastAttemptErr(result.Attempts))
}

func lastAttemptErr(attempts []Attempt) error {
	for i := len(attempts) - 1; i >= 0; i-- {
		if attempts[i].Err != nil {
			return attempts[i].Err
		}
	}
	return nil
}

func (r *Renderer) strategies() []strategy {
	rendered := func(req Request) string { return OutputPath(req.OutputDir, req.JobID) }
	return []strategy{
		{name: StrategyOverlay, output: rendered, apply: r.overlay},
		{name: StrategyBurnIn, output: rendered, apply: r.burnIn},
		{name: StrategyPassthrough, output: rendered, apply: r.passthrough},
		{name: StrategyFileCopy, output: func(req Request) string {
			ext := strings.ToLower(filepath.Ext(req.VideoPath))
			if ext == "" {
				ext = ".mp4"
			}
			return filepath.Join(req.OutputDir, req.JobID+"_subtitled"+ext)
		}, apply: fileCopy},
	}
}

func (r *Renderer) overlay(ctx context.Context, req Request, _ string, outPath string) error {
	filter := r.OverlayFilter(req.Segments)
	if filter == "" {
		return errNothingToOverlay
	}
	_, err := r.run(ctx, r.ffmpeg, "-y", "-hide_banner", "-loglevel", "error",
		"-i", req.VideoPath, "-vf", filter, "-c:a", "copy", outPath)
	return err
}

func (r *Renderer) burnIn(ctx context.Context, req Request, srtPath, outPath string) error {
	abs, err := filepath.Abs(srtPath)
	if err != nil {
		return err
	}
	_, err = r.run(ctx, r.ffmpeg, "-y", "-hide_banner", "-loglevel", "error",
		"-i", req.VideoPath, "-vf", "subtitles="+EscapeFilterPath(abs), "-c:a", "copy", outPath)
	return err
}

func (r *Renderer) passthrough(ctx context.Context, req Request, _ string, outPath string) error {
	_, err := r.run(ctx, r.ffmpeg, "-y", "-hide_banner", "-loglevel", "error",
		"-i", req.VideoPath, "-c", "copy", outPath)
	return err
}

func fileCopy(_ context.Context, req Request, _ string, outPath string) error {
	return fileutil.CopyVerified(req.VideoPath, outPath)
}

// OverlayFilter builds one drawtext filter per segment, each enabled only
// inside its window, joined into a single filter chain.
func (r *Renderer) OverlayFilter(segs []segment.Translated) string {
	style := r.style
	parts := make([]string, 0, len(segs))
	for _, seg := range segs {
		text := strings.Join(strings.Fields(seg.Text()), " ")
		if text == "" || seg.End <= seg.Start {
			continue
		}
		parts = append(parts, fmt.Sprintf(
			"drawtext=text='%s':fontcolor=%s:fontsize=%d:box=1:boxcolor=%s:boxborderw=%d:x=(w-text_w)/2:y=h-th-%d:enable='between(t,%s,%s)'",
			EscapeDrawtext(text),
			style.FontColor,
			style.FontSize,
			style.BoxColor,
			style.BoxBorder,
			style.MarginBottom,
			formatSeconds(seg.Start),
			formatSeconds(seg.End),
		))
	}
	return strings.Join(parts, ",")
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
