// Package language maps user-supplied language codes to the display names used
// in translation prompts and the ISO 639-1 codes speech backends expect.
//
// Lookups accept 2-letter and 3-letter codes, English words, and BCP 47 tags
// (via golang.org/x/text/language). Unknown codes are passed through rather
// than rejected.
package language
