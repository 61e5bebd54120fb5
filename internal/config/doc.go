// Package config loads, normalizes, and validates subtitler configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENAI_API_KEY and SUBTITLER_LLM_API_KEY. The Config type centralizes every
// knob the server and CLI need, from the data directory layout to the
// segmentation weights.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical backend names, and clear validation errors.
package config
