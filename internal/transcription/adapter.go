package transcription

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"subtitler/internal/logging"
	"subtitler/internal/segment"
)

// Placeholder texts, chosen by failure class.
const (
	PlaceholderText = "Audio content detected - transcription failed"
	NoSpeechText    = "Audio detected but speech could not be recognized"
	UnavailableText = "Audio detected - speech recognition service unavailable"
)

// Outcome records which path produced the segments.
type Outcome string

const (
	OutcomeTimed       Outcome = "timed"
	OutcomeSegmented   Outcome = "segmented"
	OutcomePlaceholder Outcome = "placeholder"
)

// PlaceholderFor picks the placeholder text for a transcription failure.
func PlaceholderFor(err error) string {
	switch {
	case errors.Is(err, ErrNoSpeech):
		return NoSpeechText
	case IsUnavailable(err):
		return UnavailableText
	default:
		return PlaceholderText
	}
}

// Adapter applies the segment policy on top of a backend.
type Adapter struct {
	backend Transcriber
	weights segment.Weights
	logger  *slog.Logger
}

// NewAdapter wraps backend. A nil backend always produces the placeholder.
func NewAdapter(backend Transcriber, weights segment.Weights, logger *slog.Logger) *Adapter {
	return &Adapter{
		backend: backend,
		weights: weights,
		logger:  logging.NewComponentLogger(logger, "transcription"),
	}
}

// Backend returns the wrapped backend's name.
func (a *Adapter) Backend() string {
	if a.backend == nil {
		return "none"
	}
	return a.backend.Name()
}

// Segments transcribes audioPath and returns ordered, non-overlapping speech
// segments inside [0, duration]. It never fails: backend errors, timeouts, and
// empty transcripts all produce one placeholder segment covering the whole
// duration.
func (a *Adapter) Segments(ctx context.Context, audioPath string, duration float64) ([]segment.Speech, Outcome) {
	logger := logging.WithContext(ctx, a.logger)

	var (
		res Result
		err error
	)
	if a.backend == nil {
		err = ErrDisabled
	} else {
		res, err = a.backend.Transcribe(ctx, audioPath)
	}

	if err == nil {
		if segs := segment.Sanitize(res.Segments, duration); len(segs) > 0 {
			logger.Info("transcription complete",
				logging.String(logging.FieldEventType, "transcription_complete"),
				logging.String("backend", a.Backend()),
				logging.String("outcome", string(OutcomeTimed)),
				logging.Int("segments", len(segs)),
				logging.String("language", res.Language),
			)
			return segs, OutcomeTimed
		}
		transcript := strings.TrimSpace(res.Transcript)
		if transcript == "" {
			transcript = joinText(res.Segments)
		}
		if segs := segment.Split(transcript, duration, a.weights); len(segs) > 0 {
			logger.Info("transcription complete",
				logging.String(logging.FieldEventType, "transcription_complete"),
				logging.String("backend", a.Backend()),
				logging.String("outcome", string(OutcomeSegmented)),
				logging.Int("segments", len(segs)),
				logging.Int("transcript_chars", len(transcript)),
			)
			return segs, OutcomeSegmented
		}
		err = ErrNoSpeech
	}

	text := PlaceholderFor(err)
	logging.WarnWithContext(logger, "transcription failed; using placeholder segment", "transcription_fallback",
		logging.String("backend", a.Backend()),
		logging.Error(err),
		logging.String("placeholder", text),
		logging.String(logging.FieldErrorHint, "check the transcription backend configuration and connectivity"),
		logging.String(logging.FieldImpact, "subtitles will contain a placeholder instead of speech"),
	)
	return segment.Placeholder(duration, text), OutcomePlaceholder
}

func joinText(segs []segment.Speech) string {
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
