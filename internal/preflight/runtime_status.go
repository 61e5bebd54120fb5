package preflight

import (
	"fmt"
	"strings"

	"subtitler/internal/config"
)

// CheckTranscriptionConfig reports whether the selected speech-to-text
// backend has what it needs to run. A disabled backend passes; jobs then get
// placeholder subtitles.
func CheckTranscriptionConfig(cfg *config.Config) Result {
	const name = "Transcription"
	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	tc := cfg.Transcription
	backend := strings.ToLower(strings.TrimSpace(tc.Backend))
	switch backend {
	case "none", "":
		return Result{Name: name, Passed: true, Detail: "Disabled (placeholder subtitles)"}
	case "openai":
		if strings.TrimSpace(tc.OpenAIAPIKey) == "" {
			return Result{Name: name, Detail: "openai: missing API key"}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("openai (%s)", tc.OpenAIModel)}
	case "asrapi":
		if strings.TrimSpace(tc.ASRAPIKey) == "" {
			return Result{Name: name, Detail: "asrapi: missing API key"}
		}
		return Result{Name: name, Passed: true, Detail: "asrapi (" + tc.ASRBaseURL + ")"}
	case "whisperx":
		device := "cpu"
		if tc.WhisperXCUDAEnabled {
			device = "cuda"
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("whisperx (%s, %s)", tc.WhisperXModel, device)}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("unknown backend %q", tc.Backend)}
	}
}

// CheckTranslationConfig reports whether the translation backend is usable.
func CheckTranslationConfig(cfg *config.Config) Result {
	const name = "Translation"
	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Translation.Backend)) {
	case "none", "":
		return Result{Name: name, Passed: true, Detail: "Disabled (source text kept)"}
	case "llm":
		llmCfg := cfg.GetLLM()
		if llmCfg.APIKey == "" {
			return Result{Name: name, Detail: "llm: missing API key"}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("llm (%s)", llmCfg.Model)}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("unknown backend %q", cfg.Translation.Backend)}
	}
}
