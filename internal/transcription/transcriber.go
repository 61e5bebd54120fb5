package transcription

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"subtitler/internal/segment"
	"subtitler/internal/services"
)

// Result is what a backend recognized. Segments is empty when the backend
// produced no timing information.
type Result struct {
	Transcript string
	Segments   []segment.Speech
	Language   string
}

// Transcriber is a speech-to-text backend.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, audioPath string) (Result, error)
}

var (
	// ErrNoSpeech marks audio in which the backend found nothing to transcribe.
	ErrNoSpeech = errors.New("no speech recognized")
	// ErrUnavailable marks a backend that could not be reached or refused service.
	ErrUnavailable = errors.New("speech recognition service unavailable")
	// ErrDisabled is returned by the "none" backend.
	ErrDisabled = errors.New("transcription disabled")
)

// StatusError is a non-2xx response from an HTTP backend.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("%s: http %d: %s", e.Service, e.StatusCode, body)
}

// Is reports 408, 429, and 5xx responses as ErrUnavailable.
func (e *StatusError) Is(target error) bool {
	if target != ErrUnavailable {
		return false
	}
	return e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= http.StatusInternalServerError
}

// IsUnavailable reports whether err means the backend could not be reached
// in time: an explicit ErrUnavailable, a timeout, or a network failure.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnavailable) || errors.Is(err, services.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
