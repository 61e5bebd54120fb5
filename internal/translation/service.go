package translation

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"subtitler/internal/language"
	"subtitler/internal/logging"
	"subtitler/internal/segment"
	"subtitler/internal/services"
)

// Backend translates a single piece of text between named languages.
type Backend interface {
	Translate(ctx context.Context, text, sourceName, targetName string, autoDetect bool) (string, error)
}

// ErrDisabled is returned by the "none" backend.
var ErrDisabled = errors.New("translation disabled")

// Disabled is the "none" backend. Every call fails, which keeps all
// segments in their source language.
type Disabled struct{}

// Translate implements Backend.
func (Disabled) Translate(context.Context, string, string, string, bool) (string, error) {
	return "", ErrDisabled
}

// Service applies a Backend to segment lists.
type Service struct {
	backend Backend
	logger  *slog.Logger
}

// NewService wraps backend. A nil backend behaves like Disabled.
func NewService(backend Backend, logger *slog.Logger) *Service {
	if backend == nil {
		backend = Disabled{}
	}
	return &Service{backend: backend, logger: logging.NewComponentLogger(logger, "translation")}
}

// Translate returns one Translated segment per input segment, in order, with
// timing unchanged. Per-segment failures keep the original text and never
// abort the batch; only structurally invalid input is an error. Empty input
// yields an empty, non-nil result.
func (s *Service) Translate(ctx context.Context, segs []segment.Speech, source, target string) ([]segment.Translated, error) {
	if err := segment.Validate(segs); err != nil {
		return nil, services.Wrap(services.ErrValidation, "translate", "segments", "", err)
	}
	out := make([]segment.Translated, 0, len(segs))
	if len(segs) == 0 {
		return out, nil
	}

	logger := logging.WithContext(ctx, s.logger)
	autoDetect := language.IsAuto(source) || strings.TrimSpace(source) == ""
	sourceName := language.Name(source)
	targetName := language.Name(target)
	sameLanguage := !autoDetect && strings.EqualFold(language.Normalize(source), language.Normalize(target))

	var failed, transient, skipped int
	var lastErr error
	for i, seg := range segs {
		tr := segment.Translated{Start: seg.Start, End: seg.End, OriginalText: seg.Text, TranslatedText: seg.Text}
		text := strings.TrimSpace(seg.Text)
		switch {
		case text == "" || sameLanguage:
			skipped++
		case ctx.Err() != nil:
			failed++
			lastErr = ctx.Err()
		default:
			translated, err := s.backend.Translate(ctx, text, sourceName, targetName, autoDetect)
			translated = strings.TrimSpace(translated)
			if err != nil || translated == "" {
				failed++
				if err == nil {
					err = errors.New("empty translation")
				}
				if errors.Is(err, services.ErrTransient) {
					transient++
				}
				lastErr = err
				logger.Debug("segment translation failed; keeping original",
					logging.Int("segment", i),
					logging.Error(err),
				)
				break
			}
			tr.TranslatedText = translated
		}
		out = append(out, tr)
	}

	if failed > 0 {
		hint := "check llm.api_key, llm.model, and llm.base_url"
		if transient == failed {
			hint = "provider overloaded or unreachable; resubmit later"
		}
		logging.WarnWithContext(logger, "some segments kept their original text", "translation_partial",
			logging.Int("failed", failed),
			logging.Int("transient", transient),
			logging.Int("permanent", failed-transient),
			logging.Int("segments", len(segs)),
			logging.Error(lastErr),
			logging.String("target", targetName),
			logging.String(logging.FieldErrorHint, hint),
			logging.String(logging.FieldImpact, "untranslated segments appear in the source language"),
		)
	} else {
		logger.Info("segments translated",
			logging.String(logging.FieldEventType, "translation_complete"),
			logging.Int("segments", len(segs)),
			logging.Int("skipped", skipped),
			logging.String("source", sourceName),
			logging.String("target", targetName),
		)
	}
	return out, nil
}
