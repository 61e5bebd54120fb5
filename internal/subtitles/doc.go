// Package subtitles turns translated segments into subtitle artifacts and
// burns them into the output video.
//
// SRT and plain-text transcripts are written next to each other using the job
// identifier as a filename prefix and are always retained. Rendering walks an
// ordered list of ffmpeg strategies (per-segment drawtext overlay, SRT
// burn-in, stream copy) and stops at the first that succeeds.
package subtitles
