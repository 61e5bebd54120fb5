package preflight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subtitler/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckFreeSpace("space", dir, 1); !result.Passed {
		t.Fatalf("expected pass with a one byte floor, got %s", result.Detail)
	}
	if result := CheckFreeSpace("space", dir, ^uint64(0)); result.Passed {
		t.Fatal("expected failure with an impossible floor")
	}
	if result := CheckFreeSpace("space", filepath.Join(dir, "missing"), 1); result.Passed {
		t.Fatal("expected failure for missing path")
	}
}

func TestCheckLLM_MissingKey(t *testing.T) {
	result := CheckLLM(context.Background(), "Translation LLM", config.LLMConfig{})
	if result.Passed || result.Detail != "API key missing" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCheckLLM_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": `{"ok":true}`}},
			},
		})
	}))
	defer srv.Close()

	result := CheckLLM(context.Background(), "Translation LLM", config.LLMConfig{APIKey: "good-key", BaseURL: srv.URL, Model: "m"})
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckLLM_BadKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	result := CheckLLM(context.Background(), "Translation LLM", config.LLMConfig{APIKey: "bad", BaseURL: srv.URL, Model: "m"})
	if result.Passed {
		t.Fatal("expected failure for bad key")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatalf("expected nil results, got %v", results)
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Transcription.Backend = "none"
	cfg.Translation.Backend = "none"
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	results := RunAll(context.Background(), &cfg)
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
		if strings.HasSuffix(r.Name, "directory") && !r.Passed {
			t.Fatalf("directory check failed: %+v", r)
		}
		if (r.Name == "Transcription" || r.Name == "Translation") && !r.Passed {
			t.Fatalf("disabled backends should pass: %+v", r)
		}
	}
	want := "Data directory,Upload directory,Processed directory,Free space,Transcription,Translation"
	if got := strings.Join(names, ","); got != want {
		t.Fatalf("unexpected checks %s", got)
	}
}

func TestBackendConfigChecks(t *testing.T) {
	cfg := config.Default()
	cfg.Transcription.Backend = "openai"
	if r := CheckTranscriptionConfig(&cfg); r.Passed {
		t.Fatalf("openai without key should fail: %+v", r)
	}
	cfg.Transcription.OpenAIAPIKey = "k"
	if r := CheckTranscriptionConfig(&cfg); !r.Passed {
		t.Fatalf("openai with key should pass: %+v", r)
	}
	cfg.Transcription.Backend = "mystery"
	if r := CheckTranscriptionConfig(&cfg); r.Passed {
		t.Fatal("unknown backend should fail")
	}

	cfg.Translation.Backend = "llm"
	cfg.LLM.APIKey = ""
	if r := CheckTranslationConfig(&cfg); r.Passed {
		t.Fatal("llm without key should fail")
	}
	cfg.LLM.APIKey = "k"
	if r := CheckTranslationConfig(&cfg); !r.Passed {
		t.Fatalf("llm with key should pass: %+v", r)
	}
}

func TestCheckSystemDepsIncludesUVXForWhisperX(t *testing.T) {
	cfg := config.Default()
	cfg.Transcription.Backend = "whisperx"
	statuses := CheckSystemDeps(context.Background(), &cfg)
	found := false
	for _, s := range statuses {
		if s.Command == "uvx" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected uvx requirement for whisperx backend")
	}
	cfg.Transcription.Backend = "none"
	for _, s := range CheckSystemDeps(context.Background(), &cfg) {
		if s.Command == "uvx" {
			t.Fatal("uvx should only be required for whisperx")
		}
	}
}
