// Package pipeline runs submitted videos through the subtitle stages.
//
// Manager owns the job table handle and one worker goroutine per job. Stages
// for a job run strictly in sequence: download (URL sources only), duration
// probe and ceiling check, audio extraction, transcription with segment
// alignment, translation, and rendering. The ceiling check happens before
// any transcription work so oversized sources fail fast.
//
// Failures map onto job state the same way everywhere: validation problems
// surface their own message, everything else becomes
// "Processing failed: <detail>". Transcription and translation outages never
// fail a job; the adapters below substitute placeholder or source text.
package pipeline
