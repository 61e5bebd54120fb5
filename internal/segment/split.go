package segment

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Weights tunes how Split distributes time across text units.
type Weights struct {
	WordFactor       float64
	CommaBonus       float64
	TerminalBonus    float64
	ColonBonus       float64
	PauseRatio       float64
	PausePerSentence float64
	MinDuration      float64
	ChunkWords       int
}

// DefaultWeights returns the stock alignment constants.
func DefaultWeights() Weights {
	return Weights{
		WordFactor:       0.5,
		CommaBonus:       2.0,
		TerminalBonus:    3.0,
		ColonBonus:       2.5,
		PauseRatio:       0.15,
		PausePerSentence: 0.3,
		MinDuration:      1.0,
		ChunkWords:       4,
	}
}

func (w Weights) withDefaults() Weights {
	d := DefaultWeights()
	if w.ChunkWords <= 0 {
		w.ChunkWords = d.ChunkWords
	}
	if w.MinDuration <= 0 {
		w.MinDuration = d.MinDuration
	}
	if w.PauseRatio < 0 || w.PauseRatio >= 1 {
		w.PauseRatio = d.PauseRatio
	}
	if w.PausePerSentence < 0 {
		w.PausePerSentence = d.PausePerSentence
	}
	return w
}

// Split turns an untimed transcript into contiguous windows covering
// [0, total]. Timing is estimated from text length and punctuation; it is an
// approximation of where speech falls, not a measurement. The returned windows
// are ordered, do not overlap, and the last one ends exactly at total.
func Split(transcript string, total float64, w Weights) []Speech {
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return nil
	}
	units := Units(transcript, w.ChunkWords)
	if len(units) == 0 {
		return nil
	}
	return Align(units, total, w)
}

// Units breaks text into sentence units. Sentences end at runs of '.', '!'
// or '?' followed by whitespace; with fewer than two sentences the text is
// split on commas, and failing that into fixed-size word chunks.
func Units(transcript string, chunkWords int) []string {
	text := strings.Join(strings.Fields(transcript), " ")
	if text == "" {
		return nil
	}
	if units := splitSentences(text); len(units) >= 2 {
		return units
	}
	if units := splitCommas(text); len(units) >= 2 {
		return units
	}
	if chunkWords <= 0 {
		chunkWords = DefaultWeights().ChunkWords
	}
	return chunkByWords(text, chunkWords)
}

func isTerminal(r rune) bool { return r == '.' || r == '!' || r == '?' }

func splitSentences(text string) []string {
	var units []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) {
			continue
		}
		j := i
		for j+1 < len(runes) && isTerminal(runes[j+1]) {
			j++
		}
		if j+1 < len(runes) && !unicode.IsSpace(runes[j+1]) {
			i = j
			continue
		}
		if unit := strings.TrimSpace(string(runes[start : j+1])); unit != "" {
			units = append(units, unit)
		}
		start = j + 1
		i = j
	}
	if rest := strings.TrimSpace(string(runes[start:])); rest != "" {
		units = append(units, rest)
	}
	return units
}

func splitCommas(text string) []string {
	parts := strings.SplitAfter(text, ",")
	units := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" || part == "," {
			continue
		}
		units = append(units, part)
	}
	return units
}

func chunkByWords(text string, size int) []string {
	words := strings.Fields(text)
	units := make([]string, 0, (len(words)+size-1)/size)
	for i := 0; i < len(words); i += size {
		end := min(i+size, len(words))
		units = append(units, strings.Join(words[i:end], " "))
	}
	return units
}

// Weight scores a unit by length plus pause-inducing punctuation. The floor
// is 1.0.
func Weight(unit string, w Weights) float64 {
	var commas, terminals, colons int
	for _, r := range unit {
		switch {
		case r == ',':
			commas++
		case isTerminal(r):
			terminals++
		case r == ':' || r == ';':
			colons++
		}
	}
	score := float64(utf8.RuneCountInString(unit)) +
		w.WordFactor*float64(len(strings.Fields(unit))) +
		w.CommaBonus*float64(commas) +
		w.TerminalBonus*float64(terminals) +
		w.ColonBonus*float64(colons)
	return math.Max(score, 1.0)
}

// Align assigns windows to units. A pause budget of
// min(PauseRatio*total, PausePerSentence*n) is spread evenly over the
// boundaries between units; the remaining time is shared in proportion to
// Weight with a MinDuration floor. Units pushed past the end by the floor are
// merged into the preceding window.
func Align(units []string, total float64, w Weights) []Speech {
	w = w.withDefaults()
	n := len(units)
	if n == 0 || total <= 0 {
		return nil
	}

	pauseTotal := 0.0
	pauseEach := 0.0
	if n > 1 {
		pauseTotal = math.Min(w.PauseRatio*total, w.PausePerSentence*float64(n))
		pauseEach = pauseTotal / float64(n-1)
	}
	speakingTotal := total - pauseTotal

	weights := make([]float64, n)
	sum := 0.0
	for i, unit := range units {
		weights[i] = Weight(unit, w)
		sum += weights[i]
	}

	out := make([]Speech, 0, n)
	current := 0.0
	for i, unit := range units {
		if current >= total && len(out) > 0 {
			last := &out[len(out)-1]
			last.Text = last.Text + " " + unit
			continue
		}
		speaking := math.Max(weights[i]/sum*speakingTotal, w.MinDuration)
		end := current + speaking
		if i < n-1 {
			end += pauseEach
		}
		end = math.Min(end, total)
		out = append(out, Speech{Start: current, End: end, Text: unit})
		current = end
	}
	out[len(out)-1].End = total
	return out
}
