package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"subtitler/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "render", "overlay", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"render", "overlay", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestUserMessage(t *testing.T) {
	invalid := services.Invalid("Video exceeds %d minute limit", 10)
	if !errors.Is(invalid, services.ErrValidation) {
		t.Fatal("expected validation marker")
	}
	wrapped := services.Wrap(services.ErrValidation, "probe", "duration", "", invalid)
	if got := services.UserMessage(wrapped); got != "Video exceeds 10 minute limit" {
		t.Fatalf("unexpected user message: %q", got)
	}

	fatal := services.Wrap(services.ErrFatal, "extract", "ffmpeg", "", errors.New("disk full"))
	if got := services.UserMessage(fatal); !strings.HasPrefix(got, "Processing failed: ") || !strings.Contains(got, "disk full") {
		t.Fatalf("unexpected fatal message: %q", got)
	}
	if services.UserMessage(nil) != "" {
		t.Fatal("expected empty message for nil error")
	}
}

func TestRunCommandReturnsToolError(t *testing.T) {
	_, err := services.RunCommand(context.Background(), "sh", "-c", "echo bad input >&2; exit 3")
	if err == nil {
		t.Fatal("expected error")
	}
	var toolErr *services.ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected ToolError, got %T", err)
	}
	if toolErr.Tool != "sh" || !strings.Contains(toolErr.Stderr, "bad input") {
		t.Fatalf("unexpected tool error: %+v", toolErr)
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatal("expected external tool marker")
	}
	if !strings.Contains(err.Error(), "bad input") {
		t.Fatalf("expected stderr tail in message, got %q", err.Error())
	}
}

func TestRunCommandCapturesStdout(t *testing.T) {
	out, err := services.RunCommand(context.Background(), "sh", "-c", "printf 12.5")
	if err != nil {
		t.Fatalf("RunCommand: %v", err)
	}
	if string(out) != "12.5" {
		t.Fatalf("unexpected stdout %q", out)
	}
}
