package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"subtitler/internal/jobs"
	"subtitler/internal/server"
)

// apiClient talks to a running subtitler server.
type apiClient struct {
	base  string
	token string
	http  *http.Client
}

func newAPIClient(base, token string) *apiClient {
	return &apiClient{
		base:  strings.TrimRight(base, "/"),
		token: token,
		http:  &http.Client{Timeout: 0},
	}
}

type apiError struct {
	StatusCode int
	Message    string
}

func (e *apiError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

func (c *apiClient) do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("contact server at %s: %w", c.base, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		var payload struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &payload) != nil {
			payload.Error = strings.TrimSpace(string(raw))
		}
		return nil, &apiError{StatusCode: resp.StatusCode, Message: payload.Error}
	}
	return resp, nil
}

func (c *apiClient) getJSON(ctx context.Context, path string, target any) error {
	resp, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// submitFile streams path to /upload as multipart form data.
func (c *apiClient) submitFile(ctx context.Context, path, sourceLang, targetLang string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		err := func() error {
			if err := mw.WriteField("source_lang", sourceLang); err != nil {
				return err
			}
			if err := mw.WriteField("target_lang", targetLang); err != nil {
				return err
			}
			part, err := mw.CreateFormFile("video_file", filepath.Base(path))
			if err != nil {
				return err
			}
			if _, err := io.Copy(part, file); err != nil {
				return err
			}
			return mw.Close()
		}()
		_ = pw.CloseWithError(err)
	}()

	resp, err := c.do(ctx, http.MethodPost, "/upload", mw.FormDataContentType(), pr)
	if err != nil {
		_ = pr.CloseWithError(err)
		return "", err
	}
	defer resp.Body.Close()
	return decodeJobID(resp.Body)
}

func (c *apiClient) submitURL(ctx context.Context, rawURL, sourceLang, targetLang string) (string, error) {
	payload, err := json.Marshal(server.URLRequest{VideoURL: rawURL, SourceLang: sourceLang, TargetLang: targetLang})
	if err != nil {
		return "", err
	}
	resp, err := c.do(ctx, http.MethodPost, "/upload", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	return decodeJobID(resp.Body)
}

func decodeJobID(body io.Reader) (string, error) {
	var up server.UploadResponse
	if err := json.NewDecoder(body).Decode(&up); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if up.JobID == "" {
		return "", errors.New("server returned no job id")
	}
	return up.JobID, nil
}

func (c *apiClient) status(ctx context.Context, id string) (jobs.Job, error) {
	var job jobs.Job
	err := c.getJSON(ctx, "/status/"+url.PathEscape(id), &job)
	return job, err
}

func (c *apiClient) listJobs(ctx context.Context) ([]jobs.Job, error) {
	var resp server.JobsResponse
	err := c.getJSON(ctx, "/api/jobs", &resp)
	return resp.Jobs, err
}

func (c *apiClient) health(ctx context.Context) (server.HealthResponse, error) {
	var resp server.HealthResponse
	err := c.getJSON(ctx, "/api/health", &resp)
	return resp, err
}

// download writes the job's output to dest and returns the byte count.
func (c *apiClient) download(ctx context.Context, id, dest string) (int64, error) {
	resp, err := c.do(ctx, http.MethodGet, "/download/"+url.PathEscape(id), "", nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, err
	}
	out, err := os.Create(dest)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dest)
		return 0, err
	}
	return n, nil
}

// waitForJob polls status until the job reaches a terminal state. onChange
// is called whenever progress or message changes.
func (c *apiClient) waitForJob(ctx context.Context, id string, interval time.Duration, onChange func(jobs.Job)) (jobs.Job, error) {
	var last jobs.Job
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		job, err := c.status(ctx, id)
		if err != nil {
			return job, err
		}
		if onChange != nil && (job.Progress != last.Progress || job.Message != last.Message || job.Status != last.Status) {
			onChange(job)
		}
		last = job
		if job.Status.IsTerminal() {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-ticker.C:
		}
	}
}
