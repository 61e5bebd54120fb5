package segment

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Speech is a contiguous time window of speech with its text. Times are seconds
// from the start of the audio.
type Speech struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Duration returns the window length in seconds.
func (s Speech) Duration() float64 { return s.End - s.Start }

// Translated pairs a speech window with its source and translated text. When
// translation fails TranslatedText equals OriginalText.
type Translated struct {
	Start          float64 `json:"start"`
	End            float64 `json:"end"`
	OriginalText   string  `json:"original_text"`
	TranslatedText string  `json:"translated_text"`
}

// Text returns the text to display for the window.
func (t Translated) Text() string {
	if strings.TrimSpace(t.TranslatedText) != "" {
		return t.TranslatedText
	}
	return t.OriginalText
}

// Placeholder returns the single full-duration segment used when no usable
// transcript exists.
func Placeholder(total float64, text string) []Speech {
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return nil
	}
	return []Speech{{Start: 0, End: total, Text: text}}
}

// Validate rejects segment lists that cannot be processed: negative or
// non-finite times and windows that end before they start.
func Validate(segs []Speech) error {
	for i, s := range segs {
		if math.IsNaN(s.Start) || math.IsNaN(s.End) || math.IsInf(s.Start, 0) || math.IsInf(s.End, 0) {
			return fmt.Errorf("segment %d: non-finite time", i)
		}
		if s.Start < 0 {
			return fmt.Errorf("segment %d: negative start %.3f", i, s.Start)
		}
		if s.End < s.Start {
			return fmt.Errorf("segment %d: end %.3f before start %.3f", i, s.End, s.Start)
		}
	}
	return nil
}

// Sanitize normalizes backend-provided timed segments: blank text is dropped,
// windows are clamped to [0, total] (when total > 0), ordered by start, and
// overlaps are resolved by trimming the earlier window. A window trimmed to
// nothing hands its text and end time to the window that displaced it.
func Sanitize(segs []Speech, total float64) []Speech {
	cleaned := make([]Speech, 0, len(segs))
	for _, s := range segs {
		s.Text = strings.Join(strings.Fields(s.Text), " ")
		if s.Text == "" || math.IsNaN(s.Start) || math.IsNaN(s.End) {
			continue
		}
		if s.Start < 0 {
			s.Start = 0
		}
		if total > 0 {
			s.End = math.Min(s.End, total)
		}
		if s.End <= s.Start {
			continue
		}
		cleaned = append(cleaned, s)
	}
	sort.SliceStable(cleaned, func(i, j int) bool { return cleaned[i].Start < cleaned[j].Start })

	out := make([]Speech, 0, len(cleaned))
	for _, s := range cleaned {
		for len(out) > 0 {
			last := &out[len(out)-1]
			if last.End <= s.Start {
				break
			}
			end := last.End
			last.End = s.Start
			if last.End > last.Start {
				break
			}
			s.Text = last.Text + " " + s.Text
			s.End = math.Max(s.End, end)
			out = out[:len(out)-1]
		}
		out = append(out, s)
	}
	return out
}
