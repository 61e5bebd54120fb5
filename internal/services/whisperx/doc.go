// Package whisperx runs WhisperX through uvx and reads its JSON output.
//
// WhisperX writes <basename>.json next to the requested output directory;
// the segments in that file carry sentence-level timing, so callers get
// timed speech without a separate alignment step.
//
// Configuration options (model, CUDA, VAD method) are passed via Config.
package whisperx
