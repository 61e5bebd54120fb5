// Package audio extracts speech-ready audio from uploaded videos.
//
// Every extraction produces a mono 16kHz PCM WAV file, the input format the
// transcription backends expect. Extract handles a whole file; ExtractRange
// cuts a window for backends that upload audio in chunks.
package audio
