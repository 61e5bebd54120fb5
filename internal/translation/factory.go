package translation

import (
	"fmt"
	"strings"

	"subtitler/internal/config"
	"subtitler/internal/services"
	"subtitler/internal/services/llm"
)

// Backend names accepted by translation.backend.
const (
	BackendLLM  = "llm"
	BackendNone = "none"
)

// NewBackend builds the backend selected in cfg.
func NewBackend(cfg *config.Config, opts ...llm.Option) (Backend, error) {
	if cfg == nil {
		return nil, fmt.Errorf("translation: config required")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Translation.Backend)) {
	case BackendLLM:
		settings := cfg.GetLLM()
		client := llm.NewClient(llm.Config{
			APIKey:         settings.APIKey,
			BaseURL:        settings.BaseURL,
			Model:          settings.Model,
			Referer:        settings.Referer,
			Title:          settings.Title,
			TimeoutSeconds: settings.TimeoutSeconds,
			Temperature:    settings.Temperature,
			MaxTokens:      settings.MaxTokens,
		}, opts...)
		return llm.NewTranslator(client), nil
	case BackendNone, "":
		return Disabled{}, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "translation", "backend", fmt.Sprintf("unknown backend %q", cfg.Translation.Backend), nil)
	}
}
