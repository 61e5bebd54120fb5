package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
)

// Auto is the source-language value that asks the translator to detect the language.
const Auto = "auto"

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2 primary (3-letter)
	alt3    string   // ISO 639-2 alternate (e.g. "fre" vs "fra")
	display string   // Human-readable name
	words   []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{"en", "eng", "", "English", []string{"english"}},
	{"es", "spa", "", "Spanish", []string{"spanish"}},
	{"fr", "fra", "fre", "French", []string{"french"}},
	{"de", "deu", "ger", "German", []string{"german"}},
	{"it", "ita", "", "Italian", []string{"italian"}},
	{"pt", "por", "", "Portuguese", []string{"portuguese"}},
	{"ru", "rus", "", "Russian", []string{"russian"}},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}},
	{"ko", "kor", "", "Korean", []string{"korean"}},
	{"zh", "zho", "chi", "Chinese", []string{"chinese"}},
	{"ar", "ara", "", "Arabic", []string{"arabic"}},
	{"hi", "hin", "", "Hindi", []string{"hindi"}},
	{"nl", "nld", "dut", "Dutch", []string{"dutch"}},
	{"pl", "pol", "", "Polish", []string{"polish"}},
	{"sv", "swe", "", "Swedish", []string{"swedish"}},
	{"tr", "tur", "", "Turkish", []string{"turkish"}},
}

var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	// BCP 47 tags such as "pt-BR" or "zh-Hant" resolve through their base language.
	if tag, err := xlanguage.Parse(code); err == nil {
		if base, conf := tag.Base(); conf != xlanguage.No {
			if e, ok := byCode2[base.String()]; ok {
				return e
			}
		}
	}
	return nil
}

// IsAuto reports whether code requests automatic source-language detection.
func IsAuto(code string) bool {
	return strings.EqualFold(strings.TrimSpace(code), Auto)
}

// Name returns the display name handed to the translator. Unknown codes pass
// through unchanged so callers can supply names the table does not cover.
func Name(code string) string {
	if IsAuto(code) {
		return "Auto-detect"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.TrimSpace(code)
}

// Normalize maps recognized codes, words, and tags to ISO 639-1. "auto" is
// preserved; unknown values are only trimmed, so Name still sees them as the
// caller wrote them.
func Normalize(code string) string {
	if IsAuto(code) {
		return Auto
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	return strings.TrimSpace(code)
}

// ToISO2 converts any recognized language code or word to ISO 639-1 (2-letter).
// Returns empty string for unrecognized input and for "auto".
func ToISO2(code string) string {
	if IsAuto(code) {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	return ""
}

// Language is one entry of the supported-language listing.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Supported lists the languages with known display names, led by "auto".
func Supported() []Language {
	out := make([]Language, 0, len(languages)+1)
	out = append(out, Language{Code: Auto, Name: "Auto-detect"})
	for _, e := range languages {
		out = append(out, Language{Code: e.code2, Name: e.display})
	}
	return out
}
