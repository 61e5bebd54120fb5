// Package llm provides an OpenAI-compatible chat client and the translator
// built on it.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.CompleteText: send system/user prompts, receive the model's text.
// Client.HealthCheck: verify API key and model availability.
// NewTranslator / Translator.Translate: translate one piece of text between
// named languages.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, network timeouts, and empty
// completions with exponential backoff (base 1s, max 10s, up to 3 attempts by
// default). A Retry-After header overrides the computed delay. Errors that
// outlive the retries carry services.ErrTransient for those causes and
// services.ErrExternalTool for everything else.
//
// # Fallback
//
// Callers treat any error as "keep the original text"; the translator never
// substitutes content of its own.
package llm
