package transcription

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"subtitler/internal/config"
	"subtitler/internal/media/audio"
	"subtitler/internal/media/ffprobe"
	"subtitler/internal/services"
	"subtitler/internal/services/whisperx"
)

// Backend names accepted by transcription.backend.
const (
	BackendWhisperX = "whisperx"
	BackendOpenAI   = "openai"
	BackendASR      = "asrapi"
	BackendNone     = "none"
)

// New builds the backend selected in cfg. run executes external tools; nil
// uses services.RunCommand.
func New(cfg *config.Config, run services.CommandRunner, logger *slog.Logger) (Transcriber, error) {
	if cfg == nil {
		return nil, fmt.Errorf("transcription: config required")
	}
	// WhisperX needs its own default runner for the torch environment.
	whisperRun := run
	if run == nil {
		run = services.RunCommand
	}
	tc := cfg.Transcription
	switch strings.ToLower(strings.TrimSpace(tc.Backend)) {
	case BackendWhisperX:
		svc := whisperx.NewService(whisperx.Config{
			Model:       tc.WhisperXModel,
			CUDAEnabled: tc.WhisperXCUDAEnabled,
			VADMethod:   tc.WhisperXVADMethod,
			HFToken:     tc.WhisperXHuggingFace,
		}, whisperx.WithCommandRunner(whisperRun))
		return NewWhisperX(svc, ""), nil
	case BackendOpenAI:
		ffprobeBinary := cfg.FFprobeBinary()
		probe := func(ctx context.Context, path string) (float64, error) {
			return ffprobe.Duration(ctx, run, ffprobeBinary, path)
		}
		return NewOpenAI(OpenAIConfig{
			APIKey:         tc.OpenAIAPIKey,
			BaseURL:        tc.OpenAIBaseURL,
			Model:          tc.OpenAIModel,
			ChunkSeconds:   tc.ChunkSeconds,
			TimeoutSeconds: tc.TimeoutSeconds,
		},
			WithChunking(probe, audio.NewExtractor(cfg.FFmpegBinary(), run)),
			WithOpenAILogger(logger),
		), nil
	case BackendASR:
		return NewASR(ASRConfig{
			APIKey:       tc.ASRAPIKey,
			BaseURL:      tc.ASRBaseURL,
			Timeout:      time.Duration(tc.TimeoutSeconds) * time.Second,
			PollInterval: time.Duration(tc.PollIntervalSeconds) * time.Second,
		}), nil
	case BackendNone, "":
		return Disabled{}, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "transcription", "backend", fmt.Sprintf("unknown backend %q", tc.Backend), nil)
	}
}
