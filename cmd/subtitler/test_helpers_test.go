package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subtitler/internal/config"
	"subtitler/internal/jobs"
	"subtitler/internal/logging"
	"subtitler/internal/pipeline"
	"subtitler/internal/server"
	"subtitler/internal/services"
	"subtitler/internal/testsupport"
)

const (
	ffprobeStub = "#!/bin/sh\nprintf '{\"format\":{\"duration\":\"3.0\"},\"streams\":[]}'\n"
	ffmpegStub  = "#!/bin/sh\nfor last; do :; done\nprintf media > \"$last\"\n"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

// setupCLITestEnv writes a config file with offline backends and isolates
// HOME so the default config location is never read.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("SUBTITLER_LLM_API_KEY", "")
	t.Setenv("SUBTITLER_API_TOKEN", "")

	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(homeDir, ".config", "subtitler", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\nlog_dir = %q\n\n[server]\nbind = %q\n\n[transcription]\nbackend = \"none\"\n\n[translation]\nbackend = \"none\"\n",
		cfg.Paths.DataDir,
		cfg.Paths.LogDir,
		"127.0.0.1:5999",
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// installToolStubs puts shell versions of ffprobe and ffmpeg first on PATH.
func installToolStubs(t *testing.T, dir string) {
	t.Helper()
	binDir := filepath.Join(dir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	for name, script := range map[string]string{"ffprobe": ffprobeStub, "ffmpeg": ffmpegStub} {
		if err := os.WriteFile(filepath.Join(binDir, name), []byte(script), 0o755); err != nil {
			t.Fatalf("write %s stub: %v", name, err)
		}
	}
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func fakeRunner(_ context.Context, name string, args ...string) ([]byte, error) {
	switch name {
	case "ffprobe":
		return []byte(`{"format":{"duration":"3.0"},"streams":[]}`), nil
	case "ffmpeg":
		return nil, os.WriteFile(args[len(args)-1], []byte("rendered"), 0o644)
	}
	return nil, &services.ToolError{Tool: name, Err: errors.New("unexpected tool")}
}

// startTestServer serves the API for env's config over httptest.
func startTestServer(t *testing.T, env *cliTestEnv) string {
	t.Helper()
	manager, err := pipeline.New(env.cfg, jobs.NewTable(), pipeline.WithCommandRunner(fakeRunner))
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	t.Cleanup(func() { _ = manager.Stop(context.Background()) })
	srv, err := server.New(env.cfg, manager, logging.NewNop())
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func runCLI(t *testing.T, args []string, serverURL, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if serverURL != "" {
		flags = append(flags, "--server", serverURL)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
