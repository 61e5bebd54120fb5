package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"subtitler/internal/services"
)

// SampleRate is the output rate of every extraction.
const SampleRate = 16000

// Extractor runs ffmpeg to produce WAV files.
type Extractor struct {
	ffmpeg string
	run    services.CommandRunner
}

// NewExtractor returns an extractor for the given ffmpeg binary. A nil runner
// uses services.RunCommand.
func NewExtractor(ffmpegBinary string, run services.CommandRunner) *Extractor {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	if run == nil {
		run = services.RunCommand
	}
	return &Extractor{ffmpeg: ffmpegBinary, run: run}
}

// Path returns the job's audio artifact location, <dir>/<jobID>_audio.wav.
func Path(dir, jobID string) string {
	return filepath.Join(dir, jobID+"_audio.wav")
}

// Extract writes the whole audio track of source to dest.
func (e *Extractor) Extract(ctx context.Context, source, dest string) error {
	return e.extract(ctx, source, dest, -1, -1)
}

// ExtractRange writes durationSec seconds of audio starting at startSec.
func (e *Extractor) ExtractRange(ctx context.Context, source, dest string, startSec, durationSec float64) error {
	if startSec < 0 {
		return fmt.Errorf("extract range: invalid start %v", startSec)
	}
	if durationSec <= 0 {
		return fmt.Errorf("extract range: invalid duration %v", durationSec)
	}
	return e.extract(ctx, source, dest, startSec, durationSec)
}

func (e *Extractor) extract(ctx context.Context, source, dest string, startSec, durationSec float64) error {
	if strings.TrimSpace(source) == "" || strings.TrimSpace(dest) == "" {
		return fmt.Errorf("extract audio: source and destination are required")
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("extract audio: ensure dir: %w", err)
	}
	if _, err := e.run(ctx, e.ffmpeg, buildArgs(source, dest, startSec, durationSec)...); err != nil {
		_ = os.Remove(dest)
		return fmt.Errorf("ffmpeg extract: %w", err)
	}
	info, err := os.Stat(dest)
	if err != nil {
		return fmt.Errorf("ffmpeg extract: %w", err)
	}
	if info.Size() == 0 {
		_ = os.Remove(dest)
		return fmt.Errorf("ffmpeg extract: empty output %s", dest)
	}
	return nil
}

func buildArgs(source, dest string, startSec, durationSec float64) []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	if startSec >= 0 && durationSec > 0 {
		args = append(args,
			"-ss", strconv.FormatFloat(startSec, 'f', 3, 64),
			"-t", strconv.FormatFloat(durationSec, 'f', 3, 64),
		)
	}
	return append(args,
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", strconv.Itoa(SampleRate),
		"-c:a", "pcm_s16le",
		"-f", "wav",
		dest,
	)
}
