package subtitles_test

import (
	"testing"

	"subtitler/internal/subtitles"
)

func TestEscapeDrawtext(t *testing.T) {
	cases := map[string]string{
		"plain text":     "plain text",
		"time: 10:30":    `time\: 10\:30`,
		"it's":           `it'\\\''s`,
		`back\slash`:     `back\\\\slash`,
		"50% off, today": `50\\% off\, today`,
		"two\nlines":     "two lines",
	}
	for in, want := range cases {
		if got := subtitles.EscapeDrawtext(in); got != want {
			t.Fatalf("EscapeDrawtext(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEscapeFilterPath(t *testing.T) {
	got := subtitles.EscapeFilterPath(`/data/it's [a]:b,c.srt`)
	want := `/data/it\\\'s \[a\]\\:b\,c.srt`
	if got != want {
		t.Fatalf("EscapeFilterPath = %q, want %q", got, want)
	}
}
