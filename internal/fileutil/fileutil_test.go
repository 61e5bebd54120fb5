package fileutil_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"subtitler/internal/fileutil"
)

func TestCopyVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source.mp4")
	dst := filepath.Join(dir, "job_subtitled.mp4")

	content := bytes.Repeat([]byte("frame"), 50_000)
	if err := os.WriteFile(src, content, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := fileutil.CopyVerified(src, dst); err != nil {
		t.Fatalf("CopyVerified: %v", err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("content mismatch: got %d bytes, want %d", len(got), len(content))
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Fatalf("expected 0644, got %o", info.Mode().Perm())
	}
	assertNoPartials(t, dir)
}

func TestCopyVerifiedReplacesExistingDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source.mp4")
	dst := filepath.Join(dir, "out.mp4")
	if err := os.WriteFile(src, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, []byte("stale output from an earlier attempt"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := fileutil.CopyVerified(src, dst); err != nil {
		t.Fatalf("CopyVerified: %v", err)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != "new" {
		t.Fatalf("expected destination replaced, got %q", got)
	}
}

func TestCopyVerifiedMissingSourceLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.mp4")
	if err := fileutil.CopyVerified(filepath.Join(dir, "missing.mp4"), dst); err == nil {
		t.Fatal("expected error for missing source")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatalf("destination should not exist, stat err=%v", err)
	}
	assertNoPartials(t, dir)
}

func TestCopyVerifiedRejectsSameFileAndDirectories(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source.mp4")
	if err := os.WriteFile(src, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := fileutil.CopyVerified(src, src); err == nil {
		t.Fatal("expected error copying a file onto itself")
	}
	if got, _ := os.ReadFile(src); string(got) != "data" {
		t.Fatalf("source must be untouched, got %q", got)
	}
	if err := fileutil.CopyVerified(dir, filepath.Join(t.TempDir(), "out")); err == nil {
		t.Fatal("expected error copying a directory")
	}
}

func assertNoPartials(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".*.partial"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Fatalf("temporary files left behind: %v", matches)
	}
}
