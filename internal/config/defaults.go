package config

const (
	defaultConfigPath                  = "~/.config/subtitler/config.toml"
	defaultDataDir                     = "~/.local/share/subtitler"
	defaultLogDir                      = "~/.local/share/subtitler/logs"
	defaultServerBind                  = "127.0.0.1:5000"
	defaultMaxDurationSeconds          = 600
	defaultMaxUploadMB                 = 500
	defaultMaxConcurrentJobs           = 2
	defaultTranscriptionBackend        = "whisperx"
	defaultTranscriptionTimeoutSeconds = 600
	defaultTranscriptionPollSeconds    = 3
	defaultTranscriptionChunkSeconds   = 300
	defaultOpenAIBaseURL               = "https://api.openai.com/v1"
	defaultOpenAIModel                 = "whisper-1"
	defaultASRBaseURL                  = "https://api.assemblyai.com/v2"
	defaultWhisperXModel               = "large-v3"
	defaultWhisperXVADMethod           = "silero"
	defaultTranslationBackend          = "llm"
	defaultLLMBaseURL                  = "https://api.openai.com/v1/chat/completions"
	defaultLLMModel                    = "gpt-3.5-turbo"
	defaultLLMReferer                  = "https://github.com/subtitler/subtitler"
	defaultLLMTitle                    = "Subtitler Translator"
	defaultLLMTimeoutSeconds           = 60
	defaultLLMTemperature              = 0.3
	defaultLLMMaxTokens                = 1000
	defaultFontSize                    = 18
	defaultFontColor                   = "white"
	defaultBoxColor                    = "black@0.5"
	defaultBoxBorder                   = 3
	defaultMarginBottom                = 20
	defaultLogFormat                   = "console"
	defaultLogLevel                    = "info"
)

var defaultAllowedExtensions = []string{"mp4", "avi", "mov", "mkv", "wmv", "flv", "webm"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Server: Server{
			Bind: defaultServerBind,
		},
		Limits: Limits{
			MaxDurationSeconds: defaultMaxDurationSeconds,
			MaxUploadMB:        defaultMaxUploadMB,
			MaxConcurrentJobs:  defaultMaxConcurrentJobs,
			AllowedExtensions:  append([]string(nil), defaultAllowedExtensions...),
		},
		Transcription: Transcription{
			Backend:             defaultTranscriptionBackend,
			TimeoutSeconds:      defaultTranscriptionTimeoutSeconds,
			PollIntervalSeconds: defaultTranscriptionPollSeconds,
			ChunkSeconds:        defaultTranscriptionChunkSeconds,
			OpenAIBaseURL:       defaultOpenAIBaseURL,
			OpenAIModel:         defaultOpenAIModel,
			ASRBaseURL:          defaultASRBaseURL,
			WhisperXModel:       defaultWhisperXModel,
			WhisperXVADMethod:   defaultWhisperXVADMethod,
		},
		Translation: Translation{
			Backend: defaultTranslationBackend,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
			Temperature:    defaultLLMTemperature,
			MaxTokens:      defaultLLMMaxTokens,
		},
		Segmenter: Segmenter{
			WordFactor:       0.5,
			CommaBonus:       2.0,
			TerminalBonus:    3.0,
			ColonBonus:       2.5,
			PauseRatio:       0.15,
			PausePerSentence: 0.3,
			MinDuration:      1.0,
			ChunkWords:       4,
		},
		Render: Render{
			FontSize:     defaultFontSize,
			FontColor:    defaultFontColor,
			BoxColor:     defaultBoxColor,
			BoxBorder:    defaultBoxBorder,
			MarginBottom: defaultMarginBottom,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
