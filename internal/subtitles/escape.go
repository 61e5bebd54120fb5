package subtitles

import "strings"

// drawtextReplacer escapes text for a single-quoted drawtext value inside a
// comma-separated filter chain. Backslashes go first so later escapes are not
// doubled.
var drawtextReplacer = strings.NewReplacer(
	`\`, `\\\\`,
	`'`, `'\\\''`,
	`:`, `\:`,
	`%`, `\\%`,
	`,`, `\,`,
	"\n", " ",
	"\r", " ",
)

// EscapeDrawtext prepares segment text for embedding in drawtext=text='...'.
func EscapeDrawtext(text string) string {
	return drawtextReplacer.Replace(text)
}

var filterPathReplacer = strings.NewReplacer(
	`\`, `\\\\`,
	`'`, `\\\'`,
	`:`, `\\:`,
	`,`, `\,`,
	`[`, `\[`,
	`]`, `\]`,
	`;`, `\;`,
)

// EscapeFilterPath prepares a file path for use as a filter option value,
// such as subtitles=<path>.
func EscapeFilterPath(path string) string {
	return filterPathReplacer.Replace(path)
}
