package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Server contains HTTP API settings.
type Server struct {
	Bind     string `toml:"bind"`
	APIToken string `toml:"api_token"`
}

// Limits bounds the work a single job may request.
type Limits struct {
	MaxDurationSeconds int      `toml:"max_duration_seconds"`
	MaxUploadMB        int      `toml:"max_upload_mb"`
	MaxConcurrentJobs  int      `toml:"max_concurrent_jobs"`
	AllowedExtensions  []string `toml:"allowed_extensions"`
}

// Transcription selects and configures the speech-to-text backend.
type Transcription struct {
	// Backend is one of "whisperx", "openai", "asrapi", or "none".
	Backend             string `toml:"backend"`
	TimeoutSeconds      int    `toml:"timeout_seconds"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
	ChunkSeconds        int    `toml:"chunk_seconds"`

	OpenAIAPIKey  string `toml:"openai_api_key"`
	OpenAIBaseURL string `toml:"openai_base_url"`
	OpenAIModel   string `toml:"openai_model"`

	ASRAPIKey  string `toml:"asr_api_key"`
	ASRBaseURL string `toml:"asr_base_url"`

	WhisperXModel       string `toml:"whisperx_model"`
	WhisperXCUDAEnabled bool   `toml:"whisperx_cuda_enabled"`
	WhisperXVADMethod   string `toml:"whisperx_vad_method"`
	WhisperXHuggingFace string `toml:"whisperx_hf_token"`
}

// Translation selects the translation backend.
type Translation struct {
	// Backend is "llm" or "none". "none" keeps every segment in its source language.
	Backend string `toml:"backend"`
}

// LLM contains chat-completion connection settings used for translation.
type LLM struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	Referer        string  `toml:"referer"`
	Title          string  `toml:"title"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	Temperature    float64 `toml:"temperature"`
	MaxTokens      int     `toml:"max_tokens"`
}

// Segmenter holds the weighting constants for untimed transcript alignment.
type Segmenter struct {
	WordFactor       float64 `toml:"word_factor"`
	CommaBonus       float64 `toml:"comma_bonus"`
	TerminalBonus    float64 `toml:"terminal_bonus"`
	ColonBonus       float64 `toml:"colon_bonus"`
	PauseRatio       float64 `toml:"pause_ratio"`
	PausePerSentence float64 `toml:"pause_per_sentence"`
	MinDuration      float64 `toml:"min_duration"`
	ChunkWords       int     `toml:"chunk_words"`
}

// Render contains subtitle overlay styling.
type Render struct {
	FontSize     int    `toml:"font_size"`
	FontColor    string `toml:"font_color"`
	BoxColor     string `toml:"box_color"`
	BoxBorder    int    `toml:"box_border"`
	MarginBottom int    `toml:"margin_bottom"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the subtitler service.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - Server: HTTP bind address and bearer token
//   - Limits: duration ceiling, upload size, concurrency, accepted extensions
//   - Transcription: speech-to-text backend selection and credentials
//   - Translation/LLM: translation backend and chat-completion settings
//   - Segmenter: alignment weights for untimed transcripts
//   - Render: drawtext overlay styling
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Server        Server        `toml:"server"`
	Limits        Limits        `toml:"limits"`
	Transcription Transcription `toml:"transcription"`
	Translation   Translation   `toml:"translation"`
	LLM           LLM           `toml:"llm"`
	Segmenter     Segmenter     `toml:"segmenter"`
	Render        Render        `toml:"render"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("subtitler.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// UploadDir holds uploaded and downloaded source videos.
func (c *Config) UploadDir() string { return filepath.Join(c.Paths.DataDir, "uploads") }

// AudioDir holds extracted mono WAV files.
func (c *Config) AudioDir() string { return filepath.Join(c.Paths.DataDir, "audio") }

// SubtitleDir holds the retained SRT and TXT artifacts.
func (c *Config) SubtitleDir() string { return filepath.Join(c.Paths.DataDir, "srt") }

// ProcessedDir holds rendered output videos.
func (c *Config) ProcessedDir() string { return filepath.Join(c.Paths.DataDir, "processed") }

// StorePath is the SQLite job history database.
func (c *Config) StorePath() string { return filepath.Join(c.Paths.DataDir, "jobs.db") }

// LockPath guards against two servers sharing one data directory.
func (c *Config) LockPath() string { return filepath.Join(c.Paths.DataDir, "subtitler.lock") }

// EnsureDirectories creates the data layout used by the service.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.UploadDir(), c.AudioDir(), c.SubtitleDir(), c.ProcessedDir()} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for duration probing.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// YtDlpBinary returns the downloader executable used for URL sources.
func (c *Config) YtDlpBinary() string {
	return "yt-dlp"
}

// IsAllowedExtension reports whether the file name carries an accepted video extension.
func (c *Config) IsAllowedExtension(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(strings.TrimSpace(name))), ".")
	if ext == "" {
		return false
	}
	for _, allowed := range c.Limits.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains the LLM settings handed to the translation client.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
	Temperature    float64
	MaxTokens      int
}

// GetLLM returns the chat-completion connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		Referer:        strings.TrimSpace(c.LLM.Referer),
		Title:          strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
		Temperature:    c.LLM.Temperature,
		MaxTokens:      c.LLM.MaxTokens,
	}
}
