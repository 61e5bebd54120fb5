// Package translation translates timed speech segments one at a time.
//
// Each segment is sent to the Backend independently. A failed or empty
// translation keeps the segment's original text, so the output always has
// the same length, order, and timing as the input. The LLM backend lives in
// internal/services/llm; Disabled is the "none" backend.
package translation
