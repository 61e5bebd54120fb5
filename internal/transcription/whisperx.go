package transcription

import (
	"context"
	"path/filepath"

	"subtitler/internal/segment"
	"subtitler/internal/services/whisperx"
)

// WhisperX runs the offline WhisperX model and returns timed segments.
type WhisperX struct {
	svc      *whisperx.Service
	language string
}

// NewWhisperX wraps a WhisperX service. language may be empty or "auto".
func NewWhisperX(svc *whisperx.Service, language string) *WhisperX {
	return &WhisperX{svc: svc, language: language}
}

// Name implements Transcriber.
func (w *WhisperX) Name() string { return "whisperx" }

// Transcribe implements Transcriber. WhisperX output is written beside the
// audio file.
func (w *WhisperX) Transcribe(ctx context.Context, audioPath string) (Result, error) {
	transcript, err := w.svc.TranscribeFile(ctx, audioPath, filepath.Dir(audioPath), w.language)
	if err != nil {
		return Result{}, err
	}
	segs := make([]segment.Speech, 0, len(transcript.Segments))
	for _, s := range transcript.Segments {
		segs = append(segs, segment.Speech{Start: s.Start, End: s.End, Text: s.Text})
	}
	return Result{
		Transcript: transcript.Text(),
		Segments:   segs,
		Language:   transcript.Language,
	}, nil
}
