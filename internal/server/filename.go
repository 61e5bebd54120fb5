package server

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SanitizeFilename reduces an uploaded file name to a safe ASCII base name.
// Accents are folded, separators and whitespace become underscores, and
// anything outside [A-Za-z0-9._-] is dropped. Leading dots and underscores
// are trimmed so the result can never be hidden or climb directories.
// An empty result falls back to "upload" plus the original extension.
func SanitizeFilename(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	name = strings.NewReplacer("/", " ", "\\", " ").Replace(name)

	fold := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, name)
	if err != nil {
		folded = name
	}

	name = strings.Join(strings.Fields(folded), "_")
	var b strings.Builder
	for _, r := range name {
		switch {
		case r > unicode.MaxASCII:
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	cleaned := strings.Trim(b.String(), "._")
	if cleaned == "" || cleaned == strings.TrimPrefix(ext, ".") {
		return "upload" + sanitizeExt(ext)
	}
	return cleaned
}

func sanitizeExt(ext string) string {
	var b strings.Builder
	for _, r := range ext {
		if r == '.' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
