package subtitles

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"subtitler/internal/segment"
)

// Cue is one indexed subtitle entry.
type Cue struct {
	Index   int
	Start   time.Duration
	End     time.Duration
	Content string
}

// Track is an ordered cue list with contiguous 1-based indices.
type Track []Cue

// FromTranslated builds a track one cue per segment, in order.
func FromTranslated(segs []segment.Translated) Track {
	track := make(Track, 0, len(segs))
	for i, seg := range segs {
		track = append(track, Cue{
			Index:   i + 1,
			Start:   secondsToDuration(seg.Start),
			End:     secondsToDuration(seg.End),
			Content: cleanContent(seg.Text()),
		})
	}
	return track
}

func secondsToDuration(seconds float64) time.Duration {
	if seconds <= 0 || math.IsNaN(seconds) {
		return 0
	}
	return time.Duration(math.Round(seconds*1000)) * time.Millisecond
}

// cleanContent removes blank lines, which would terminate the cue early.
func cleanContent(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// FormatTimestamp renders d as HH:MM:SS,mmm.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	hours := ms / 3_600_000
	ms %= 3_600_000
	minutes := ms / 60_000
	ms %= 60_000
	seconds := ms / 1000
	ms %= 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, ms)
}

// ParseTimestamp accepts HH:MM:SS,mmm (or a period before the milliseconds).
func ParseTimestamp(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	total := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond
	return total, nil
}

// Compose serializes the track in SRT format.
func Compose(track Track) string {
	var b strings.Builder
	for i, cue := range track {
		index := cue.Index
		if index <= 0 {
			index = i + 1
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", index, FormatTimestamp(cue.Start), FormatTimestamp(cue.End), cleanContent(cue.Content))
	}
	return b.String()
}

// Parse reads SRT content back into a track.
func Parse(content string) (Track, error) {
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var track Track
	var block []string
	flush := func() error {
		if len(block) == 0 {
			return nil
		}
		cue, err := parseBlock(block)
		block = block[:0]
		if err != nil {
			return fmt.Errorf("cue %d: %w", len(track)+1, err)
		}
		track = append(track, cue)
		return nil
	}
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		block = append(block, line)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return track, nil
}

func parseBlock(lines []string) (Cue, error) {
	if len(lines) < 2 {
		return Cue{}, fmt.Errorf("incomplete cue")
	}
	index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return Cue{}, fmt.Errorf("invalid index %q", lines[0])
	}
	parts := strings.SplitN(lines[1], "-->", 2)
	if len(parts) != 2 {
		return Cue{}, fmt.Errorf("invalid timing line %q", lines[1])
	}
	start, err := ParseTimestamp(parts[0])
	if err != nil {
		return Cue{}, err
	}
	endFields := strings.Fields(parts[1])
	if len(endFields) == 0 {
		return Cue{}, fmt.Errorf("missing end timestamp")
	}
	end, err := ParseTimestamp(endFields[0])
	if err != nil {
		return Cue{}, err
	}
	return Cue{
		Index:   index,
		Start:   start,
		End:     end,
		Content: strings.Join(lines[2:], "\n"),
	}, nil
}

// SubtitlePath returns where the job's SRT artifact lives.
func SubtitlePath(dir, jobID string) string {
	return filepath.Join(dir, jobID+"_subtitles.srt")
}

// TextPath returns where the job's numbered transcript lives.
func TextPath(dir, jobID string) string {
	return filepath.Join(dir, jobID+"_subtitles.txt")
}

// WriteSRT writes the track to <dir>/<jobID>_subtitles.srt.
func WriteSRT(dir, jobID string, track Track) (string, error) {
	path := SubtitlePath(dir, jobID)
	if err := writeArtifact(path, Compose(track)); err != nil {
		return "", fmt.Errorf("write srt: %w", err)
	}
	return path, nil
}

// WriteText writes a numbered "N. text" transcript to <dir>/<jobID>_subtitles.txt.
func WriteText(dir, jobID string, segs []segment.Translated) (string, error) {
	var b strings.Builder
	for i, seg := range segs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.Join(strings.Fields(seg.Text()), " "))
	}
	path := TextPath(dir, jobID)
	if err := writeArtifact(path, b.String()); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	return path, nil
}

func writeArtifact(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
