package ffprobe

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "audio"},
			{CodecType: "AUDIO"},
		},
		Format: Format{
			Duration: "123.45",
			Size:     "1000",
		},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad", Size: "-1"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
}

func TestDurationUsesRunner(t *testing.T) {
	var gotArgs []string
	run := func(_ context.Context, name string, args ...string) ([]byte, error) {
		if name != "/usr/bin/ffprobe" {
			t.Fatalf("unexpected binary %q", name)
		}
		gotArgs = args
		return []byte(`{"streams":[{"index":0,"codec_type":"video"}],"format":{"duration":"605.120000"}}`), nil
	}
	d, err := Duration(context.Background(), run, "/usr/bin/ffprobe", "/tmp/clip.mp4")
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	if d != 605.12 {
		t.Fatalf("unexpected duration %v", d)
	}
	if gotArgs[len(gotArgs)-1] != "/tmp/clip.mp4" || !strings.Contains(strings.Join(gotArgs, " "), "-of json") {
		t.Fatalf("unexpected args %v", gotArgs)
	}
}

func TestDurationErrors(t *testing.T) {
	cases := map[string]func(context.Context, string, ...string) ([]byte, error){
		"tool failure": func(context.Context, string, ...string) ([]byte, error) {
			return nil, errors.New("exit status 1")
		},
		"bad json": func(context.Context, string, ...string) ([]byte, error) {
			return []byte("not json"), nil
		},
		"no duration": func(context.Context, string, ...string) ([]byte, error) {
			return []byte(`{"format":{}}`), nil
		},
	}
	for name, run := range cases {
		if _, err := Duration(context.Background(), run, "", "/tmp/x.mp4"); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := Duration(context.Background(), nil, "", "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
