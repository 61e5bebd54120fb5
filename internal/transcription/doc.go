// Package transcription turns extracted audio into timed speech segments.
//
// A Transcriber is one speech-to-text backend (WhisperX, an OpenAI-compatible
// transcription endpoint, or a polling ASR service). The Adapter wraps a
// backend with the pipeline's policy:
//
//   - timed segments from the backend are sanitized and used directly
//   - a flat transcript is aligned with segment.Split
//   - any failure, timeout, or empty transcript yields a single placeholder
//     segment spanning the whole duration
//
// The adapter never returns an error; a job always continues past
// transcription.
package transcription
