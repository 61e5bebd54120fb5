package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLimits(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateSegmenter(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateLimits() error {
	return ensurePositiveMap(map[string]int{
		"limits.max_duration_seconds": c.Limits.MaxDurationSeconds,
		"limits.max_upload_mb":        c.Limits.MaxUploadMB,
		"limits.max_concurrent_jobs":  c.Limits.MaxConcurrentJobs,
	})
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.Backend {
	case "whisperx", "none":
	case "openai":
		if c.Transcription.OpenAIAPIKey == "" {
			return errors.New("transcription.openai_api_key is required when transcription.backend is \"openai\" (or set OPENAI_API_KEY)")
		}
	case "asrapi":
		if c.Transcription.ASRAPIKey == "" {
			return errors.New("transcription.asr_api_key is required when transcription.backend is \"asrapi\" (or set ASR_API_KEY)")
		}
	default:
		return fmt.Errorf("transcription.backend: unsupported value %q (want whisperx, openai, asrapi, or none)", c.Transcription.Backend)
	}
	if err := ensurePositiveMap(map[string]int{
		"transcription.timeout_seconds":       c.Transcription.TimeoutSeconds,
		"transcription.poll_interval_seconds": c.Transcription.PollIntervalSeconds,
		"transcription.chunk_seconds":         c.Transcription.ChunkSeconds,
	}); err != nil {
		return err
	}
	switch c.Transcription.WhisperXVADMethod {
	case "silero", "pyannote":
	default:
		return fmt.Errorf("transcription.whisperx_vad_method: unsupported value %q (want silero or pyannote)", c.Transcription.WhisperXVADMethod)
	}
	return nil
}

func (c *Config) validateTranslation() error {
	switch c.Translation.Backend {
	case "none":
		return nil
	case "llm":
	default:
		return fmt.Errorf("translation.backend: unsupported value %q (want llm or none)", c.Translation.Backend)
	}
	if c.LLM.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("llm.api_key is required for translation. Set SUBTITLER_LLM_API_KEY env var or edit %s (create with 'subtitler config init')", defaultPath)
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return errors.New("llm.temperature must be between 0 and 2")
	}
	if c.LLM.MaxTokens <= 0 {
		return errors.New("llm.max_tokens must be positive")
	}
	return nil
}

func (c *Config) validateSegmenter() error {
	s := c.Segmenter
	for key, value := range map[string]float64{
		"segmenter.word_factor":        s.WordFactor,
		"segmenter.comma_bonus":        s.CommaBonus,
		"segmenter.terminal_bonus":     s.TerminalBonus,
		"segmenter.colon_bonus":        s.ColonBonus,
		"segmenter.pause_per_sentence": s.PausePerSentence,
	} {
		if value < 0 {
			return fmt.Errorf("%s must be non-negative", key)
		}
	}
	if s.PauseRatio < 0 || s.PauseRatio >= 1 {
		return errors.New("segmenter.pause_ratio must be in [0, 1)")
	}
	if s.MinDuration <= 0 {
		return errors.New("segmenter.min_duration must be positive")
	}
	if s.ChunkWords <= 0 {
		return errors.New("segmenter.chunk_words must be positive")
	}
	return nil
}

func (c *Config) validateRender() error {
	if c.Render.FontSize <= 0 {
		return errors.New("render.font_size must be positive")
	}
	if c.Render.BoxBorder < 0 || c.Render.MarginBottom < 0 {
		return errors.New("render.box_border and render.margin_bottom must be non-negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (want console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
