package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"subtitler/internal/config"
	"subtitler/internal/jobs"
	"subtitler/internal/logging"
	"subtitler/internal/pipeline"
	"subtitler/internal/server"
	"subtitler/internal/services"
	"subtitler/internal/testsupport"
)

func fakeRunner(duration string) services.CommandRunner {
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		switch name {
		case "ffprobe":
			return []byte(`{"format":{"duration":"` + duration + `"},"streams":[]}`), nil
		case "ffmpeg":
			return nil, os.WriteFile(args[len(args)-1], []byte("rendered"), 0o644)
		}
		return nil, &services.ToolError{Tool: name, Err: errors.New("unexpected tool")}
	}
}

type fixture struct {
	cfg     *config.Config
	manager *pipeline.Manager
	handler http.Handler
	http    *httptest.Server
}

func newFixture(t *testing.T, duration string, opts ...testsupport.ConfigOption) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	manager, err := pipeline.New(cfg, jobs.NewTable(), pipeline.WithCommandRunner(fakeRunner(duration)))
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	t.Cleanup(func() { _ = manager.Stop(context.Background()) })
	srv, err := server.New(cfg, manager, logging.NewNop())
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	handler := srv.Handler()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return &fixture{cfg: cfg, manager: manager, handler: handler, http: ts}
}

func multipartBody(t *testing.T, field, filename string, content []byte, values map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range values {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func decodeError(t *testing.T, body io.Reader) string {
	t.Helper()
	var payload map[string]string
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return payload["error"]
}

func (f *fixture) post(t *testing.T, contentType string, body io.Reader) *http.Response {
	t.Helper()
	resp, err := http.Post(f.http.URL+"/upload", contentType, body)
	if err != nil {
		t.Fatalf("POST /upload: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestUploadProcessAndDownload(t *testing.T) {
	f := newFixture(t, "4.0")
	body, ct := multipartBody(t, "video_file", "My Clip.mp4", []byte("video-bytes"), map[string]string{
		"source_lang": "auto",
		"target_lang": "es",
	})
	resp := f.post(t, ct, body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var up server.UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&up); err != nil {
		t.Fatalf("decode upload: %v", err)
	}
	if up.JobID == "" {
		t.Fatal("expected job id")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := f.manager.WaitJob(ctx, up.JobID); err != nil {
		t.Fatalf("WaitJob: %v", err)
	}

	statusResp, err := http.Get(f.http.URL + "/status/" + up.JobID)
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer statusResp.Body.Close()
	var job jobs.Job
	if err := json.NewDecoder(statusResp.Body).Decode(&job); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if job.Status != jobs.StatusCompleted || job.Progress != 100 || job.TargetLang != "es" {
		t.Fatalf("unexpected job %+v", job)
	}
	if _, err := os.Stat(f.cfg.UploadDir() + "/" + up.JobID + "_My_Clip.mp4"); err != nil {
		t.Fatalf("expected sanitized upload on disk: %v", err)
	}

	dl, err := http.Get(f.http.URL + "/download/" + up.JobID)
	if err != nil {
		t.Fatalf("GET download: %v", err)
	}
	defer dl.Body.Close()
	if dl.StatusCode != http.StatusOK {
		t.Fatalf("expected download 200, got %d", dl.StatusCode)
	}
	if cd := dl.Header.Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment") {
		t.Fatalf("expected attachment disposition, got %q", cd)
	}
	data, _ := io.ReadAll(dl.Body)
	if string(data) != "rendered" {
		t.Fatalf("unexpected download body %q", data)
	}
}

func TestUploadValidationErrors(t *testing.T) {
	f := newFixture(t, "4.0")

	tests := []struct {
		name    string
		build   func() (io.Reader, string)
		message string
	}{
		{
			name: "missing file",
			build: func() (io.Reader, string) {
				return multipartBody(t, "", "", nil, map[string]string{"target_lang": "en"})
			},
			message: "No video file uploaded",
		},
		{
			name: "bad extension",
			build: func() (io.Reader, string) {
				return multipartBody(t, "video_file", "notes.txt", []byte("x"), nil)
			},
			message: "Invalid file type. Please upload a video file.",
		},
		{
			name: "unsupported content type",
			build: func() (io.Reader, string) {
				return strings.NewReader("video_url=x"), "application/x-www-form-urlencoded"
			},
			message: "Unsupported content type",
		},
		{
			name: "invalid json",
			build: func() (io.Reader, string) {
				return strings.NewReader("{not json"), "application/json"
			},
			message: "Invalid JSON data",
		},
		{
			name: "empty url",
			build: func() (io.Reader, string) {
				return strings.NewReader(`{"video_url":"   "}`), "application/json"
			},
			message: "No video URL provided",
		},
		{
			name: "bad scheme",
			build: func() (io.Reader, string) {
				return strings.NewReader(`{"video_url":"file:///etc/passwd"}`), "application/json"
			},
			message: "Invalid video URL",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			body, ct := tc.build()
			resp := f.post(t, ct, body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
			if got := decodeError(t, resp.Body); got != tc.message {
				t.Fatalf("unexpected error %q", got)
			}
		})
	}
	if n := f.manager.Table().Len(); n != 0 {
		t.Fatalf("rejected uploads must not create jobs, got %d", n)
	}
}

func TestUploadTooLarge(t *testing.T) {
	f := newFixture(t, "4.0")
	f.cfg.Limits.MaxUploadMB = 1
	srv, err := server.New(f.cfg, f.manager, logging.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	body, ct := multipartBody(t, "video_file", "big.mp4", bytes.Repeat([]byte("a"), 2<<20), nil)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
	if got := decodeError(t, rec.Body); got != "File too large. Maximum file size is 1MB." {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestDurationLimitSurfacesInStatus(t *testing.T) {
	f := newFixture(t, "605")
	body, ct := multipartBody(t, "video_file", "long.mkv", []byte("x"), nil)
	resp := f.post(t, ct, body)
	var up server.UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&up); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := f.manager.WaitJob(ctx, up.JobID); err != nil {
		t.Fatal(err)
	}
	statusResp, err := http.Get(f.http.URL + "/status/" + up.JobID)
	if err != nil {
		t.Fatal(err)
	}
	defer statusResp.Body.Close()
	var job jobs.Job
	_ = json.NewDecoder(statusResp.Body).Decode(&job)
	if job.Status != jobs.StatusError || job.Message != "Video exceeds 10 minute limit" {
		t.Fatalf("unexpected job %+v", job)
	}

	dl, err := http.Get(f.http.URL + "/download/" + up.JobID)
	if err != nil {
		t.Fatal(err)
	}
	defer dl.Body.Close()
	if dl.StatusCode != http.StatusNotFound {
		t.Fatalf("failed job must not be downloadable, got %d", dl.StatusCode)
	}
}

func TestUnknownJob(t *testing.T) {
	f := newFixture(t, "4.0")
	for _, path := range []string{"/status/nope", "/download/nope"} {
		resp, err := http.Get(f.http.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		msg := decodeError(t, resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, resp.StatusCode)
		}
		want := "Job not found"
		if strings.HasPrefix(path, "/download/") {
			want = "File not ready or not found"
		}
		if msg != want {
			t.Fatalf("%s: unexpected error %q", path, msg)
		}
	}
}

func TestJobsHealthAndLanguages(t *testing.T) {
	f := newFixture(t, "4.0")
	if _, err := f.manager.Reserve(jobs.SourceUpload, "a.mp4", "", ""); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get(f.http.URL + "/api/jobs?status=uploading")
	if err != nil {
		t.Fatal(err)
	}
	var list server.JobsResponse
	_ = json.NewDecoder(resp.Body).Decode(&list)
	resp.Body.Close()
	if len(list.Jobs) != 1 || list.Jobs[0].Status != jobs.StatusUploading {
		t.Fatalf("unexpected jobs %+v", list)
	}

	resp, err = http.Get(f.http.URL + "/api/jobs?status=bogus")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status filter, got %d", resp.StatusCode)
	}

	resp, err = http.Get(f.http.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	var health server.HealthResponse
	_ = json.NewDecoder(resp.Body).Decode(&health)
	resp.Body.Close()
	if health.Status == "" || health.Transcription != "none" || health.TotalJobs != 1 || health.ActiveJobs != 1 {
		t.Fatalf("unexpected health %+v", health)
	}
	if len(health.Dependencies) == 0 || len(health.Checks) == 0 {
		t.Fatalf("expected dependency and check listings: %+v", health)
	}

	resp, err = http.Get(f.http.URL + "/api/languages")
	if err != nil {
		t.Fatal(err)
	}
	var langs server.LanguagesResponse
	_ = json.NewDecoder(resp.Body).Decode(&langs)
	resp.Body.Close()
	if len(langs.Languages) < 2 || langs.Languages[0].Code != "auto" {
		t.Fatalf("unexpected languages %+v", langs)
	}
}

func TestBearerAuth(t *testing.T) {
	f := newFixture(t, "4.0", testsupport.WithAPIToken("secret"))

	resp, err := http.Get(f.http.URL + "/api/languages")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, f.http.URL+"/api/languages", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", resp.StatusCode)
	}

	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t, "4.0")
	resp, err := http.Get(f.http.URL + "/upload")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}
