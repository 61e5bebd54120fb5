package transcription

import "context"

// Disabled is the "none" backend; every call fails so the placeholder is used.
type Disabled struct{}

// Name implements Transcriber.
func (Disabled) Name() string { return "none" }

// Transcribe implements Transcriber.
func (Disabled) Transcribe(context.Context, string) (Result, error) {
	return Result{}, ErrDisabled
}
