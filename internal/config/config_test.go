package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"subtitler/internal/config"
)

func TestLoadDefaultConfigUsesEnvKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("SUBTITLER_LLM_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "subtitler")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.UploadDir() != filepath.Join(wantData, "uploads") {
		t.Fatalf("unexpected upload dir: %q", cfg.UploadDir())
	}
	if cfg.Server.Bind != "127.0.0.1:5000" {
		t.Fatalf("unexpected bind: %q", cfg.Server.Bind)
	}
	if cfg.LLM.APIKey != "test-key" {
		t.Fatalf("expected LLM key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.Limits.MaxDurationSeconds != 600 {
		t.Fatalf("expected 600s duration ceiling, got %d", cfg.Limits.MaxDurationSeconds)
	}
	if cfg.Limits.MaxUploadMB != 500 {
		t.Fatalf("expected 500MB upload limit, got %d", cfg.Limits.MaxUploadMB)
	}
	if cfg.Transcription.Backend != "whisperx" {
		t.Fatalf("expected whisperx backend by default, got %q", cfg.Transcription.Backend)
	}
	if cfg.Segmenter.WordFactor != 0.5 || cfg.Segmenter.PauseRatio != 0.15 || cfg.Segmenter.ChunkWords != 4 {
		t.Fatalf("unexpected segmenter defaults: %+v", cfg.Segmenter)
	}
	if cfg.LLM.Temperature != 0.3 || cfg.LLM.MaxTokens != 1000 {
		t.Fatalf("unexpected llm defaults: %+v", cfg.LLM)
	}
}

func TestLoadRequiresLLMKeyForTranslation(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SUBTITLER_LLM_API_KEY", "")
	t.Chdir(t.TempDir())

	_, _, _, err := config.Load("")
	if err == nil {
		t.Fatal("expected error without llm api key")
	}
	if !strings.Contains(err.Error(), "llm.api_key") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadCustomConfig(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("SUBTITLER_API_TOKEN", "")

	configPath := filepath.Join(t.TempDir(), "config.toml")
	data := map[string]any{
		"paths": map[string]any{
			"data_dir": "~/subs",
		},
		"limits": map[string]any{
			"max_duration_seconds": 120,
			"allowed_extensions":   []string{".MP4", "mkv", "mkv", " "},
		},
		"transcription": map[string]any{
			"backend": " NONE ",
		},
		"translation": map[string]any{
			"backend": "none",
		},
		"segmenter": map[string]any{
			"word_factor":  0.75,
			"chunk_words":  5,
			"min_duration": 0.5,
		},
		"logging": map[string]any{
			"format": "JSON",
		},
	}
	encoded, err := toml.Marshal(data)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, encoded, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config at %q, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, "subs") {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if cfg.Limits.MaxDurationSeconds != 120 {
		t.Fatalf("unexpected duration ceiling: %d", cfg.Limits.MaxDurationSeconds)
	}
	if got := strings.Join(cfg.Limits.AllowedExtensions, ","); got != "mp4,mkv" {
		t.Fatalf("unexpected extensions: %q", got)
	}
	if cfg.Transcription.Backend != "none" {
		t.Fatalf("unexpected transcription backend: %q", cfg.Transcription.Backend)
	}
	if cfg.Segmenter.WordFactor != 0.75 || cfg.Segmenter.ChunkWords != 5 {
		t.Fatalf("unexpected segmenter: %+v", cfg.Segmenter)
	}
	if cfg.Segmenter.CommaBonus != 2.0 {
		t.Fatalf("expected untouched defaults to survive, got %+v", cfg.Segmenter)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected normalized log format, got %q", cfg.Logging.Format)
	}
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.APIKey = "k"
	cfg.Transcription.Backend = "carrier-pigeon"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "transcription.backend") {
		t.Fatalf("expected transcription backend error, got %v", err)
	}
}

func TestValidateRequiresASRKey(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.APIKey = "k"
	cfg.Transcription.Backend = "asrapi"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "asr_api_key") {
		t.Fatalf("expected asr key error, got %v", err)
	}
}

func TestValidateRejectsBadSegmenter(t *testing.T) {
	cfg := config.Default()
	cfg.Translation.Backend = "none"
	cfg.Segmenter.PauseRatio = 1.5
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "pause_ratio") {
		t.Fatalf("expected pause ratio error, got %v", err)
	}
}

func TestIsAllowedExtension(t *testing.T) {
	cfg := config.Default()
	cases := map[string]bool{
		"clip.mp4":     true,
		"CLIP.MKV":     true,
		"movie.webm":   true,
		"notes.txt":    false,
		"noextension":  false,
		"archive.mp4x": false,
	}
	for name, want := range cases {
		if got := cfg.IsAllowedExtension(name); got != want {
			t.Fatalf("IsAllowedExtension(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestCreateSampleLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SUBTITLER_LLM_API_KEY", "sample-key")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Render.BoxColor != "black@0.5" {
		t.Fatalf("unexpected box color: %q", cfg.Render.BoxColor)
	}
}

func TestEnsureDirectoriesCreatesLayout(t *testing.T) {
	cfg := config.Default()
	base := t.TempDir()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.UploadDir(), cfg.AudioDir(), cfg.SubtitleDir(), cfg.ProcessedDir(), cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q: %v", dir, err)
		}
	}
}
